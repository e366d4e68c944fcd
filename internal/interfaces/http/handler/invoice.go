package handler

import (
	"github.com/gin-gonic/gin"

	appbilling "github.com/vetpms/backend/internal/application/billing"
)

// InvoiceHandler handles billing API endpoints. Transitions to the paid
// status trigger the stock reconciliation behind the service layer.
type InvoiceHandler struct {
	BaseHandler
	invoices *appbilling.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *appbilling.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// RegisterRoutes registers billing routes on the given group
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/billing")
	group.POST("/invoices", h.Create)
	group.GET("/invoices", h.List)
	group.GET("/invoices/:id", h.Get)
	group.PUT("/invoices/:id", h.Update)
}

// Create creates an invoice. When the requested status is paid, stock
// sufficiency is checked first and the depletion runs on success.
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	staffID, err := getStaffID(c)
	if err != nil {
		h.Unauthorized(c, "Staff context required")
		return
	}

	var req appbilling.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.Create(c.Request.Context(), tenantID, staffID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// Update updates an invoice's items or status
func (h *InvoiceHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	staffID, err := getStaffID(c)
	if err != nil {
		h.Unauthorized(c, "Staff context required")
		return
	}

	invoiceID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req appbilling.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.Update(c.Request.Context(), tenantID, staffID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Get returns a single invoice with its items
func (h *InvoiceHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	invoiceID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoices.Get(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// List returns invoices for the tenant
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var filter appbilling.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoices, total, err := h.invoices.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page == 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, invoices, total, page, pageSize)
}
