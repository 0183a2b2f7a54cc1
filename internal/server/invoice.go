package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/shawnuphold/wishpark/internal/invoice/domain"
	"github.com/shawnuphold/wishpark/internal/invoice/render"
	requestdomain "github.com/shawnuphold/wishpark/internal/request/domain"
	"github.com/shawnuphold/wishpark/pkg/db/pagination"
)

// @Summary      Create Invoice
// @Description  Create a draft invoice from manual line items
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body invoicedomain.CreateInvoiceRequest true "Create Invoice Request"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices [post]
func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice.create", "invoice", resp.ID.String(), map[string]any{
		"number": resp.Number,
		"total":  resp.Total.StringFixed(2),
	})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// CreateInvoiceFromRequest generates a draft invoice from a shopped request.
func (s *Server) CreateInvoiceFromRequest(c *gin.Context) {
	resp, err := s.invoiceSvc.CreateFromRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice.create_from_request", "invoice", resp.ID.String(), map[string]any{
		"request_id": c.Param("id"),
		"total":      resp.Total.StringFixed(2),
	})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Invoices
// @Description  List invoices
// @Tags         invoices
// @Produce      json
// @Security     ApiKeyAuth
// @Param        status      query  string  false  "Status"
// @Param        page_token  query  string  false  "Page Token"
// @Param        page_size   query  int     false  "Page Size"
// @Success      200  {object}  invoicedomain.ListInvoiceResponse
// @Router       /invoices [get]
func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		Pagination: query.Pagination,
		Status:     invoicedomain.InvoiceStatus(strings.TrimSpace(query.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddInvoiceLineItem(c *gin.Context) {
	var input invoicedomain.LineItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.AddLineItem(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice.item_add", "invoice", resp.ID.String(), map[string]any{"total": resp.Total.StringFixed(2)})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoiceLineItem(c *gin.Context) {
	var input invoicedomain.LineItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.UpdateLineItem(c.Request.Context(), c.Param("id"), c.Param("itemID"), input)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice.item_update", "invoice", resp.ID.String(), map[string]any{
		"item_id": c.Param("itemID"),
		"total":   resp.Total.StringFixed(2),
	})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInvoiceLineItem(c *gin.Context) {
	resp, err := s.invoiceSvc.DeleteLineItem(c.Request.Context(), c.Param("id"), c.Param("itemID"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice.item_delete", "invoice", resp.ID.String(), map[string]any{
		"item_id": c.Param("itemID"),
		"total":   resp.Total.StringFixed(2),
	})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoiceFeeSettings(c *gin.Context) {
	var req invoicedomain.FeeSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.UpdateFeeSettings(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice.fee_settings", "invoice", resp.ID.String(), map[string]any{
		"cc_fee_enabled": resp.CCFeeEnabled,
		"cc_fee_amount":  resp.CCFeeAmount.StringFixed(2),
	})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SendInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Send(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice.send", "invoice", resp.ID.String(), map[string]any{"total": resp.Total.StringFixed(2)})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// RecordInvoicePayment records a manually collected payment.
func (s *Server) RecordInvoicePayment(c *gin.Context) {
	var req invoicedomain.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice.payment", "invoice", resp.ID.String(), map[string]any{
		"method": string(req.Method),
		"total":  resp.Total.StringFixed(2),
	})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type cancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CancelInvoice(c *gin.Context) {
	var req cancelInvoiceRequest
	_ = c.ShouldBindJSON(&req)

	resp, err := s.invoiceSvc.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice.cancel", "invoice", resp.ID.String(), map[string]any{"reason": req.Reason})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RefundInvoice(c *gin.Context) {
	var req cancelInvoiceRequest
	_ = c.ShouldBindJSON(&req)

	resp, err := s.invoiceSvc.Refund(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice.refund", "invoice", resp.ID.String(), map[string]any{"reason": req.Reason})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetInvoiceHTML renders the printable invoice. Non-draft renders are cached
// briefly; drafts change too often to cache.
func (s *Server) GetInvoiceHTML(c *gin.Context) {
	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	cacheKey := ""
	if !invoice.Status.Editable() {
		cacheKey = invoice.ID.String() + ":" + invoice.UpdatedAt.UTC().Format("20060102150405")
		if html, ok := s.renderCache.Get(cacheKey); ok {
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
			return
		}
	}

	html, err := s.htmlRenderer.RenderHTML(s.renderInput(c, invoice))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if cacheKey != "" {
		s.renderCache.Set(cacheKey, html)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// GetInvoicePDF renders the downloadable invoice document.
func (s *Server) GetInvoicePDF(c *gin.Context) {
	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pdf, err := s.pdfRenderer.RenderPDF(s.renderInput(c, invoice))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+invoice.Number+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (s *Server) renderInput(c *gin.Context, invoice *invoicedomain.Invoice) render.RenderInput {
	customerName, customerEmail := "", ""
	if invoice.RequestID != nil {
		var request requestdomain.Request
		if err := s.db.WithContext(c.Request.Context()).
			First(&request, "id = ?", *invoice.RequestID).Error; err == nil {
			customerName = request.CustomerName
			customerEmail = request.CustomerEmail
		}
	}
	return render.BuildInput(invoice, customerName, customerEmail)
}
