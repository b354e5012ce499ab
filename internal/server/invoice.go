package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/insightboard/insightboard/internal/invoice/domain"
)

type generateInvoiceRequest struct {
	CustomCharges []invoicedomain.CustomCharge `json:"custom_charges"`
}

func (s *Server) GetInvoice(c *gin.Context) {
	tenantID, ok := tenantFromRequest(c)
	if !ok {
		AbortWithError(c, ErrTenantRequired)
		return
	}

	invoice, err := s.invoiceSvc.GenerateInvoiceData(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("period")), nil)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// GenerateInvoice is the POST variant carrying invoice-local custom
// charges. The stored usage snapshot is never touched.
func (s *Server) GenerateInvoice(c *gin.Context) {
	tenantID, ok := tenantFromRequest(c)
	if !ok {
		AbortWithError(c, ErrTenantRequired)
		return
	}

	var req generateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.GenerateInvoiceData(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("period")), req.CustomCharges)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	tenantID, ok := tenantFromRequest(c)
	if !ok {
		AbortWithError(c, ErrTenantRequired)
		return
	}

	invoice, err := s.invoiceSvc.GenerateInvoiceData(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("period")), nil)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	reader, err := s.pdfProvider.GenerateInvoice(c.Request.Context(), invoice)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+invoice.InvoiceNumber+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}
