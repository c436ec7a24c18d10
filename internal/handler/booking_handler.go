package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/application"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
// Which participant may move a booking is decided per booking, so the
// decision routes are open to any authenticated caller.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", middleware.RequireRole(auth.RoleOwner), h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/accept", h.AcceptBooking)
		bookings.POST("/:id/reject", h.RejectBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.POST("/:id/transition", h.TransitionBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. Providers see bookings addressed
// to them; everyone else sees the bookings they made. ?as=requester or
// ?as=provider overrides the default.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	role, _ := middleware.GetUserRole(c)

	view := c.Query("as")
	if view == "" {
		view = "requester"
		if role == auth.RoleProvider {
			view = "provider"
		}
	}

	page, limit := parsePagination(c)
	switch view {
	case "provider":
		result, err := h.service.GetProviderBookings(c.Request.Context(), userID, page, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
	case "requester":
		result, err := h.service.GetRequesterBookings(c.Request.Context(), userID, page, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
	default:
		response.BadRequest(c, "as must be requester or provider")
	}
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AcceptBooking handles POST /api/v1/bookings/:id/accept.
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	h.transition(c, bookingDomain.StatusAccepted, "")
}

// RejectBooking handles POST /api/v1/bookings/:id/reject.
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	h.transition(c, bookingDomain.StatusRejected, "")
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel. The body is optional.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	h.transition(c, bookingDomain.StatusCancelled, req.Reason)
}

// TransitionBooking handles POST /api/v1/bookings/:id/transition with an
// explicit target status.
func (h *BookingHandler) TransitionBooking(c *gin.Context) {
	var req application.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	target, err := bookingDomain.ParseBookingStatus(req.Status)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.transition(c, target, req.Reason)
}

func (h *BookingHandler) transition(c *gin.Context, target bookingDomain.BookingStatus, reason string) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.service.TransitionBooking(c.Request.Context(), bookingID, userID, target, reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// callerID returns the authenticated user id, writing a 401 when it is missing.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
	}
	return userID, ok
}

// pathID parses a uuid path parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, param, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.BadRequest(c, "invalid "+entity+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
