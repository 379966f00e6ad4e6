package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"billease/internal/common"
	"billease/internal/models"
	"billease/internal/services"

	"github.com/labstack/echo/v4"
)

// PartyHandlers handles HTTP requests for parties (customers and suppliers)
type PartyHandlers struct {
	partyService services.PartyService
}

// NewPartyHandlers creates a new party handlers instance
func NewPartyHandlers(partyService services.PartyService) *PartyHandlers {
	return &PartyHandlers{partyService: partyService}
}

type partyRequest struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Type    string  `json:"type"`
}

func (h *PartyHandlers) validateParty(req *partyRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Party name is required")
	}
	if !models.ValidPartyType(req.Type) {
		return echo.NewHTTPError(http.StatusBadRequest, "Party type must be 'customer' or 'supplier'")
	}
	return nil
}

// CreateParty handles POST /parties
func (h *PartyHandlers) CreateParty(c echo.Context) error {
	ctx := c.Request().Context()

	var req partyRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.validateParty(&req); err != nil {
		return err
	}

	party := &models.Party{
		Name:    strings.TrimSpace(req.Name),
		Phone:   req.Phone,
		Address: req.Address,
		Type:    req.Type,
	}

	if err := h.partyService.Create(ctx, party); err != nil {
		return common.SendServerError(c, "Failed to create party: "+err.Error())
	}

	return c.JSON(http.StatusCreated, party)
}

// ListParties handles GET /parties, optionally filtered by ?type=
func (h *PartyHandlers) ListParties(c echo.Context) error {
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

	var (
		parties []*models.Party
		err     error
	)
	if partyType := c.QueryParam("type"); partyType != "" {
		parties, err = h.partyService.ListByType(ctx, partyType, limit, offset)
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
	} else {
		parties, err = h.partyService.List(ctx, limit, offset)
		if err != nil {
			return common.SendServerError(c, err.Error())
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"parties": parties,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetPartyByID handles GET /parties/:id
func (h *PartyHandlers) GetPartyByID(c echo.Context) error {
	ctx := c.Request().Context()

	partyID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	party, err := h.partyService.GetByID(ctx, partyID)
	if err != nil {
		return common.SendNotFoundError(c, "party")
	}

	return c.JSON(http.StatusOK, party)
}

// UpdateParty handles PUT /parties/:id
func (h *PartyHandlers) UpdateParty(c echo.Context) error {
	ctx := c.Request().Context()

	partyID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req partyRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.validateParty(&req); err != nil {
		return err
	}

	existing, err := h.partyService.GetByID(ctx, partyID)
	if err != nil {
		return common.SendNotFoundError(c, "party")
	}

	existing.Name = strings.TrimSpace(req.Name)
	existing.Phone = req.Phone
	existing.Address = req.Address
	existing.Type = req.Type

	if err := h.partyService.Update(ctx, existing); err != nil {
		return common.SendServerError(c, "Failed to update party: "+err.Error())
	}

	return c.JSON(http.StatusOK, existing)
}

// DeleteParty handles DELETE /parties/:id
func (h *PartyHandlers) DeleteParty(c echo.Context) error {
	ctx := c.Request().Context()

	partyID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.partyService.Delete(ctx, partyID); err != nil {
		return common.SendServerError(c, "Failed to delete party: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Party deleted successfully",
	})
}
