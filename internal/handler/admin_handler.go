package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/application"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/response"
)

// AdminHandler handles admin HTTP requests for booking oversight and
// provider snapshot maintenance.
type AdminHandler struct {
	service     *application.BookingService
	invalidator application.ProviderInvalidator
}

// NewAdminHandler creates a new AdminHandler. invalidator may be nil when
// provider snapshots are not cached.
func NewAdminHandler(service *application.BookingService, invalidator application.ProviderInvalidator) *AdminHandler {
	return &AdminHandler{service: service, invalidator: invalidator}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.POST("/providers/:id/invalidate", h.InvalidateProvider)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.service.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// InvalidateProvider handles POST /api/v1/admin/providers/:id/invalidate.
func (h *AdminHandler) InvalidateProvider(c *gin.Context) {
	providerID, ok := pathID(c, "id", "provider")
	if !ok {
		return
	}
	if h.invalidator != nil {
		if err := h.invalidator.Invalidate(c.Request.Context(), providerID); err != nil {
			response.Error(c, err)
			return
		}
	}
	response.Success(c, gin.H{"provider_id": providerID, "invalidated": h.invalidator != nil})
}
