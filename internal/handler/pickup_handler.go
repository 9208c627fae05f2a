package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meetpoint/service-pickup/internal/application"
	"github.com/meetpoint/service-pickup/internal/domain/pickup"
	"github.com/meetpoint/service-pickup/internal/response"
)

// PickupHandler handles HTTP requests for pickup resolution.
type PickupHandler struct {
	service *application.ResolutionService
}

// NewPickupHandler creates a new PickupHandler.
func NewPickupHandler(service *application.ResolutionService) *PickupHandler {
	return &PickupHandler{service: service}
}

// RegisterRoutes registers all pickup routes on the given router group.
func (h *PickupHandler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/api/v1/pickup")
	{
		sessions.POST("/resolve", h.Resolve)
		sessions.GET("/sessions/:id", h.GetSession)
		sessions.POST("/sessions/:id/refine", h.Refine)
	}
}

// coordinateDTO is a lat/lng pair with required-field validation, so a missing
// coordinate is told apart from a zero one.
type coordinateDTO struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

func (d coordinateDTO) toPoint() pickup.GeoPoint {
	return pickup.GeoPoint{Lat: *d.Lat, Lng: *d.Lng}
}

type resolveRequest struct {
	Driver    coordinateDTO `json:"driver" binding:"required"`
	Passenger coordinateDTO `json:"passenger" binding:"required"`
	Strategy  string        `json:"strategy"`
}

type refineRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

// Resolve handles POST /api/v1/pickup/resolve.
func (h *PickupHandler) Resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = string(pickup.SourcePoi)
	}

	result, err := h.service.Resolve(c.Request.Context(), application.ResolveRequest{
		Driver:    req.Driver.toPoint(),
		Passenger: req.Passenger.toPoint(),
		Strategy:  strategy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetSession handles GET /api/v1/pickup/sessions/:id.
func (h *PickupHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session ID")
		return
	}

	result, err := h.service.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Refine handles POST /api/v1/pickup/sessions/:id/refine.
func (h *PickupHandler) Refine(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session ID")
		return
	}

	var req refineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Refine(c.Request.Context(), sessionID, req.Feedback)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
