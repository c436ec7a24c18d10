package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/application"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/response"
)

// PetHandler handles HTTP requests for pet profile operations.
type PetHandler struct {
	service *application.PetService
}

// NewPetHandler creates a new PetHandler.
func NewPetHandler(service *application.PetService) *PetHandler {
	return &PetHandler{service: service}
}

// RegisterRoutes registers all pet profile routes.
func (h *PetHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	ownerRole := middleware.RequireRole(auth.RoleOwner)

	pets := r.Group("/api/v1/pets")
	pets.Use(authMW, ownerRole)
	{
		pets.POST("", h.CreatePet)
		pets.GET("", h.GetMyPets)
		pets.GET("/:id", h.GetPet)
		pets.PUT("/:id", h.UpdatePet)
		pets.DELETE("/:id", h.DeletePet)
	}
}

// CreatePet creates a new pet profile.
func (h *PetHandler) CreatePet(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	var req application.CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreatePet(c.Request.Context(), ownerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetMyPets returns all pet profiles for the current owner.
func (h *PetHandler) GetMyPets(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.service.GetMyPets(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func (h *PetHandler) GetPet(c *gin.Context) {
	petID, ok := pathID(c, "id", "pet")
	if !ok {
		return
	}
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.service.GetPet(c.Request.Context(), ownerID, petID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdatePet applies a partial update; omitted fields are kept.
func (h *PetHandler) UpdatePet(c *gin.Context) {
	petID, ok := pathID(c, "id", "pet")
	if !ok {
		return
	}
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	var req application.UpdatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdatePet(c.Request.Context(), ownerID, petID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeletePet archives a pet profile.
func (h *PetHandler) DeletePet(c *gin.Context) {
	petID, ok := pathID(c, "id", "pet")
	if !ok {
		return
	}
	ownerID, ok := callerID(c)
	if !ok {
		return
	}

	if err := h.service.DeletePet(c.Request.Context(), ownerID, petID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "pet profile archived"})
}
