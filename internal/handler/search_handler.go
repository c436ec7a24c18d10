package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/application"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/response"
)

// SearchHandler serves provider search and availability calendars.
type SearchHandler struct {
	service *application.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(service *application.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// RegisterRoutes registers search routes. Search needs a caller because pets
// are resolved against their owner; calendars are public.
func (h *SearchHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	r.POST("/api/v1/search", middleware.AuthMiddleware(jwtManager), h.Search)
	r.GET("/api/v1/providers/:id/availability", h.Availability)
}

// Search handles POST /api/v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req application.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Search(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Availability handles GET /api/v1/providers/:id/availability?month_offset=N.
func (h *SearchHandler) Availability(c *gin.Context) {
	providerID, ok := pathID(c, "id", "provider")
	if !ok {
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("month_offset", "0"))
	if err != nil {
		response.BadRequest(c, "month_offset must be an integer")
		return
	}

	month, err := h.service.Availability(c.Request.Context(), providerID, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"year":   month.Year,
		"month":  int(month.Month),
		"days":   month.Days,
		"counts": month.Counts(),
	})
}
