package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/application"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/response"
)

// ReviewHandler handles HTTP requests for provider reviews.
type ReviewHandler struct {
	service *application.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *application.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes registers review routes.
func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	r.POST("/api/v1/bookings/:id/review",
		middleware.AuthMiddleware(jwtManager),
		middleware.RequireRole(auth.RoleOwner),
		h.CreateReview,
	)
	r.GET("/api/v1/providers/:id/reviews", h.ListProviderReviews)
}

// CreateReview handles POST /api/v1/bookings/:id/review.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req application.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateReview(c.Request.Context(), bookingID, userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListProviderReviews handles GET /api/v1/providers/:id/reviews.
func (h *ReviewHandler) ListProviderReviews(c *gin.Context) {
	providerID, ok := pathID(c, "id", "provider")
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	result, err := h.service.GetProviderReviews(c.Request.Context(), providerID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}
