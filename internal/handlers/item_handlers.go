package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"billease/internal/common"
	"billease/internal/models"
	"billease/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ItemHandlers handles HTTP requests for catalog items
type ItemHandlers struct {
	itemService services.ItemService
}

// NewItemHandlers creates a new item handlers instance
func NewItemHandlers(itemService services.ItemService) *ItemHandlers {
	return &ItemHandlers{itemService: itemService}
}

type itemRequest struct {
	Name          string `json:"name"`
	Price         string `json:"price"`
	GSTPercentage string `json:"gst_percentage"`
	HSNCode       string `json:"hsn_code"`
}

// parseItem converts the wire representation into a model, validating the
// decimal fields. Prices travel as strings so clients never round them.
func (h *ItemHandlers) parseItem(req *itemRequest) (*models.Item, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Item name is required")
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Price must be a valid decimal number")
	}
	if price.IsNegative() {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Price cannot be negative")
	}

	gst := decimal.Zero
	if req.GSTPercentage != "" {
		gst, err = decimal.NewFromString(req.GSTPercentage)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "GST percentage must be a valid decimal number")
		}
		if gst.IsNegative() {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "GST percentage cannot be negative")
		}
	}

	return &models.Item{
		Name:          strings.TrimSpace(req.Name),
		Price:         price,
		GSTPercentage: gst,
		HSNCode:       req.HSNCode,
	}, nil
}

// CreateItem handles POST /items
func (h *ItemHandlers) CreateItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	item, err := h.parseItem(&req)
	if err != nil {
		return err
	}

	if err := h.itemService.Create(ctx, item); err != nil {
		return common.SendServerError(c, "Failed to create item: "+err.Error())
	}

	return c.JSON(http.StatusCreated, item)
}

// ListItems handles GET /items
func (h *ItemHandlers) ListItems(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 10
	offset := 0

	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}

	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			offset = o
		}
	}

	items, err := h.itemService.List(ctx, limit, offset)
	if err != nil {
		return common.SendServerError(c, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

// SearchItems handles GET /items/search?q=
func (h *ItemHandlers) SearchItems(c echo.Context) error {
	ctx := c.Request().Context()

	query := c.QueryParam("q")
	if strings.TrimSpace(query) == "" {
		return common.SendClientError(c, "Search query is required")
	}

	limit := 10
	offset := 0

	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}

	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			offset = o
		}
	}

	items, err := h.itemService.Search(ctx, query, limit, offset)
	if err != nil {
		return common.SendServerError(c, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"query":  query,
	})
}

// GetItemByID handles GET /items/:id
func (h *ItemHandlers) GetItemByID(c echo.Context) error {
	ctx := c.Request().Context()

	itemID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	item, err := h.itemService.GetByID(ctx, itemID)
	if err != nil {
		return common.SendNotFoundError(c, "item")
	}

	return c.JSON(http.StatusOK, item)
}

// UpdateItem handles PUT /items/:id. Existing invoice lines keep the price
// and GST rate they snapshotted at invoice time.
func (h *ItemHandlers) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()

	itemID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	item, err := h.parseItem(&req)
	if err != nil {
		return err
	}
	item.ID = itemID

	if err := h.itemService.Update(ctx, item); err != nil {
		return common.SendServerError(c, "Failed to update item: "+err.Error())
	}

	return c.JSON(http.StatusOK, item)
}

// DeleteItem handles DELETE /items/:id
func (h *ItemHandlers) DeleteItem(c echo.Context) error {
	ctx := c.Request().Context()

	itemID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.itemService.Delete(ctx, itemID); err != nil {
		return common.SendServerError(c, "Failed to delete item: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Item deleted successfully",
	})
}
