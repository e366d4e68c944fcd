package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appinventory "github.com/vetpms/backend/internal/application/inventory"
	"github.com/vetpms/backend/internal/domain/shared"
)

// InventoryHandler handles batch intake and stock ledger API endpoints
type InventoryHandler struct {
	BaseHandler
	inventory *appinventory.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventory *appinventory.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// RegisterRoutes registers inventory routes on the given group
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/inventory")
	group.POST("/products/:id/batches", h.ReceiveBatch)
	group.GET("/products/:id/batches", h.ListBatches)
	group.GET("/products/:id/movements", h.ListMovements)
	group.GET("/movements", h.ListMovementsByReference)
}

// listQuery carries pagination parameters for ledger listings
type listQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (q listQuery) filter() shared.Filter {
	filter := shared.DefaultFilter()
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	return filter
}

// ReceiveBatch records a batch of stock received for a product
func (h *InventoryHandler) ReceiveBatch(c *gin.Context) {
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

	productID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req appinventory.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batch, err := h.inventory.ReceiveBatch(c.Request.Context(), tenantID, productID, staffID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, appinventory.NewBatchResponse(batch))
}

// ListBatches returns all batches of a product
func (h *InventoryHandler) ListBatches(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	productID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var query listQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batches, total, err := h.inventory.ListBatches(c.Request.Context(), tenantID, productID, query.filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filter := query.filter()
	h.SuccessWithMeta(c, batches, total, filter.Page, filter.PageSize)
}

// ListMovements returns the movement ledger of a product, newest first
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	productID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var query listQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	movements, total, err := h.inventory.ListMovementsByProduct(c.Request.Context(), tenantID, productID, query.filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filter := query.filter()
	h.SuccessWithMeta(c, movements, total, filter.Page, filter.PageSize)
}

// ListMovementsByReference returns movements linked to a source document
// such as an invoice
func (h *InventoryHandler) ListMovementsByReference(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	referenceID, err := uuid.Parse(c.Query("reference_id"))
	if err != nil {
		h.BadRequest(c, "reference_id query parameter must be a valid UUID")
		return
	}

	movements, err := h.inventory.ListMovementsByReference(c.Request.Context(), tenantID, referenceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, movements)
}
