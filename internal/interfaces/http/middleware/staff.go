package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vetpms/backend/internal/infrastructure/logger"
	"github.com/vetpms/backend/internal/interfaces/http/dto"
)

const (
	// StaffIDContextKey is the gin context key for the acting staff member
	StaffIDContextKey = "staff_id"
	// StaffHeaderKey is the request header carrying the staff member ID
	StaffHeaderKey = "X-Staff-ID"
)

// Staff extracts the acting staff member from the X-Staff-ID header.
// Mutating requests without a valid staff ID are rejected; reads pass
// through so listings stay anonymous.
func Staff() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(StaffHeaderKey)
		mutating := c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead

		if header == "" {
			if mutating {
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeUnauthorized, "Staff member ID is required", GetRequestID(c)))
				return
			}
			c.Next()
			return
		}

		staffID, err := uuid.Parse(header)
		if err != nil || staffID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Staff member ID is not a valid UUID", GetRequestID(c)))
			return
		}

		c.Set(StaffIDContextKey, staffID)

		ctx, _ := logger.WithStaffID(c.Request.Context(), logger.FromContext(c.Request.Context()), staffID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetStaffID returns the staff ID resolved by the Staff middleware
func GetStaffID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(StaffIDContextKey)
	if !ok {
		return uuid.Nil, false
	}
	staffID, ok := value.(uuid.UUID)
	return staffID, ok
}
