package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"billease/internal/common"
	"billease/internal/ledger"
	"billease/internal/models"
	"billease/internal/repositories"
	"billease/internal/services"

	"github.com/jung-kurt/gofpdf"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const invoiceBucket = "invoices"

// InvoiceHandlers handles HTTP requests for invoices
type InvoiceHandlers struct {
	invoiceService services.InvoiceServiceInterface
	partyService   services.PartyService
	storageSvc     services.StorageService
}

// NewInvoiceHandlers creates a new invoice handlers instance
func NewInvoiceHandlers(invoiceService services.InvoiceServiceInterface, partyService services.PartyService, storageSvc services.StorageService) *InvoiceHandlers {
	return &InvoiceHandlers{
		invoiceService: invoiceService,
		partyService:   partyService,
		storageSvc:     storageSvc,
	}
}

// CreateInvoice handles POST /invoices
func (h *InvoiceHandlers) CreateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		PartyID   string `json:"party_id"`
		IssueDate string `json:"issue_date"`
		DueDate   string `json:"due_date"`
		Lines     []struct {
			ItemID   string `json:"item_id"`
			Quantity int    `json:"quantity"`
		} `json:"lines"`
	}

	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	partyID, err := common.ValidateUUID(req.PartyID, "party_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if len(req.Lines) == 0 {
		return common.SendValidationError(c, "lines", "Invoice must contain at least one line")
	}

	input := &services.CreateInvoiceInput{PartyID: partyID}

	for i, line := range req.Lines {
		itemID, err := common.ValidateUUID(line.ItemID, fmt.Sprintf("lines[%d].item_id", i))
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		if line.Quantity < 1 {
			return common.SendValidationError(c, "quantity", "Line quantity must be at least 1")
		}
		input.Lines = append(input.Lines, services.InvoiceLineInput{
			ItemID:   itemID,
			Quantity: line.Quantity,
		})
	}

	if req.IssueDate != "" {
		issueDate, err := time.Parse("2006-01-02", req.IssueDate)
		if err != nil {
			return common.SendValidationError(c, "issue_date", "Date must be in YYYY-MM-DD format")
		}
		input.IssueDate = issueDate
	}

	if req.DueDate != "" {
		dueDate, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return common.SendValidationError(c, "due_date", "Date must be in YYYY-MM-DD format")
		}
		input.DueDate = &dueDate
	}

	invoice, err := h.invoiceService.CreateInvoice(ctx, input)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidInvoice) {
			return common.SendClientError(c, err.Error())
		}
		return common.SendServerError(c, "Failed to create invoice: "+err.Error())
	}

	return c.JSON(http.StatusCreated, invoice)
}

// ListInvoices handles GET /invoices; ?unpaid=true restricts to open
// balances, ?from=&to= (YYYY-MM-DD) selects an issue-date range.
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	if from, to := c.QueryParam("from"), c.QueryParam("to"); from != "" || to != "" {
		return h.listInvoicesByDateRange(c, from, to)
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

	var (
		invoices []*models.Invoice
		err      error
	)
	if c.QueryParam("unpaid") == "true" {
		invoices, err = h.invoiceService.GetUnpaidInvoices(ctx, limit, offset)
	} else {
		invoices, err = h.invoiceService.ListInvoices(ctx, limit, offset)
	}
	if err != nil {
		return common.SendServerError(c, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *InvoiceHandlers) listInvoicesByDateRange(c echo.Context, from, to string) error {
	ctx := c.Request().Context()

	startDate, err := time.Parse("2006-01-02", from)
	if err != nil {
		return common.SendValidationError(c, "from", "Date must be in YYYY-MM-DD format")
	}
	endDate, err := time.Parse("2006-01-02", to)
	if err != nil {
		return common.SendValidationError(c, "to", "Date must be in YYYY-MM-DD format")
	}

	invoices, err := h.invoiceService.GetInvoicesByDateRange(ctx, startDate, endDate)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"from":     from,
		"to":       to,
	})
}

// GetInvoiceByID handles GET /invoices/:id
func (h *InvoiceHandlers) GetInvoiceByID(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	invoice, err := h.invoiceService.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, services.ErrInvoiceNotFound) {
			return common.SendNotFoundError(c, "invoice")
		}
		return common.SendServerError(c, err.Error())
	}

	return c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice handles DELETE /invoices/:id
func (h *InvoiceHandlers) DeleteInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.invoiceService.DeleteInvoice(ctx, invoiceID); err != nil {
		return common.SendServerError(c, "Failed to delete invoice: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Invoice deleted successfully",
	})
}

// RecordPayment handles POST /invoices/:id/payments
func (h *InvoiceHandlers) RecordPayment(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Amount string `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return common.SendValidationError(c, "amount", "Amount must be a valid decimal number")
	}

	invoice, err := h.invoiceService.RecordPayment(ctx, invoiceID, amount)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidPayment):
			return common.SendClientError(c, err.Error())
		case errors.Is(err, services.ErrInvoiceNotFound):
			return common.SendNotFoundError(c, "invoice")
		case errors.Is(err, repositories.ErrVersionConflict):
			return common.SendConflictError(c, "Invoice was modified concurrently, please retry")
		default:
			return common.SendServerError(c, "Failed to record payment: "+err.Error())
		}
	}

	return c.JSON(http.StatusOK, invoice)
}

// GenerateInvoicePDF handles POST /invoices/:id/generate-pdf. The rendered
// document is uploaded to object storage and a presigned URL is returned.
func (h *InvoiceHandlers) GenerateInvoicePDF(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	invoice, err := h.invoiceService.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, services.ErrInvoiceNotFound) {
			return common.SendNotFoundError(c, "invoice")
		}
		return common.SendServerError(c, err.Error())
	}

	party, err := h.partyService.GetByID(ctx, invoice.PartyID)
	if err != nil {
		return common.SendServerError(c, "Failed to load invoice party: "+err.Error())
	}

	pdfBytes, err := renderInvoicePDF(invoice, party)
	if err != nil {
		return common.SendServerError(c, "Failed to render PDF: "+err.Error())
	}

	if err := h.storageSvc.EnsureBucketExists(ctx, invoiceBucket); err != nil {
		return common.SendServerError(c, "Storage unavailable: "+err.Error())
	}

	objectName := fmt.Sprintf("%s.pdf", invoice.InvoiceNumber)
	if err := h.storageSvc.UploadObject(ctx, invoiceBucket, objectName, "application/pdf", bytes.NewReader(pdfBytes), int64(len(pdfBytes))); err != nil {
		return common.SendServerError(c, "Failed to store PDF: "+err.Error())
	}

	url, err := h.storageSvc.GetPresignedURL(ctx, invoiceBucket, objectName, 24*time.Hour)
	if err != nil {
		return common.SendServerError(c, "Failed to generate download URL: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"invoice_number": invoice.InvoiceNumber,
		"url":            url,
	})
}

// renderInvoicePDF builds a simple A4 invoice with a line-item table and a
// tax summary computed from the snapshotted lines.
func renderInvoicePDF(invoice *models.Invoice, party *models.Party) ([]byte, error) {
	totals, err := ledger.ComputeTotals(invoice.Lines)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 12, "TAX INVOICE")
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice No: %s", invoice.InvoiceNumber))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Issue Date: %s", invoice.IssueDate.Format("02 Jan 2006")))
	pdf.Ln(6)
	if invoice.DueDate != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Due Date: %s", invoice.DueDate.Format("02 Jan 2006")))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Billed To:")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, party.Name)
	pdf.Ln(6)
	if party.Phone != nil && *party.Phone != "" {
		pdf.Cell(0, 6, *party.Phone)
		pdf.Ln(6)
	}
	if party.Address != nil && *party.Address != "" {
		pdf.MultiCell(0, 6, *party.Address, "", "L", false)
	}
	pdf.Ln(4)

	// Line-item table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(60, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "HSN", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(28, 8, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(20, 8, "GST %", "1", 0, "R", true, 0, "")
	pdf.CellFormat(32, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, line := range invoice.Lines {
		lineAmount := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		pdf.CellFormat(60, 8, line.ItemName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, line.HSNCode, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, strconv.Itoa(line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 8, line.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 8, line.GSTPercentage.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(32, 8, lineAmount.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(153, 7, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(32, 7, totals.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(153, 7, "Tax", "", 0, "R", false, 0, "")
	pdf.CellFormat(32, 7, totals.Tax.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(153, 8, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(32, 8, totals.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "I", 10)
	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s | Balance outstanding: %s", invoice.Status, invoice.TotalAmount.StringFixed(2)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
