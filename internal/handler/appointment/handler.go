package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vaxtrack/registry-api/internal/handler"
	"github.com/vaxtrack/registry-api/internal/middleware"
	"github.com/vaxtrack/registry-api/internal/model"
	appointmentService "github.com/vaxtrack/registry-api/internal/service/appointment"
)

// Handler serves resident-scoped appointment operations. Every route
// resolves records through the caller's id, so residents can never see
// or mutate another resident's bookings.
type Handler struct {
	service *appointmentService.Service
}

func NewHandler(service *appointmentService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	appointment, err := h.service.CreateAppointment(c.Request.Context(), current.ID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appointment))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	appointments, err := h.service.ListAppointments(c.Request.Context(), current.ID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	current, id, ok := h.residentAndID(c)
	if !ok {
		return
	}

	appointment, err := h.service.GetAppointment(c.Request.Context(), current, id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	current, id, ok := h.residentAndID(c)
	if !ok {
		return
	}

	var req model.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	appointment, err := h.service.RescheduleAppointment(c.Request.Context(), current, id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	current, id, ok := h.residentAndID(c)
	if !ok {
		return
	}

	appointment, err := h.service.CancelAppointment(c.Request.Context(), current, id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

func (h *Handler) UpdateAppointmentStatus(c *gin.Context) {
	current, id, ok := h.residentAndID(c)
	if !ok {
		return
	}

	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	appointment, err := h.service.UpdateAppointmentStatus(c.Request.Context(), current, id, req.Status)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

func (h *Handler) residentAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment id"))
		return uuid.Nil, uuid.Nil, false
	}
	return current.ID, id, true
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	group := r.Group("/appointments", auth.Authenticate())
	{
		group.POST("", h.CreateAppointment)
		group.GET("", h.ListAppointments)
		group.GET("/:id", h.GetAppointment)
		group.PUT("/:id", h.RescheduleAppointment)
		group.POST("/:id/cancel", h.CancelAppointment)
		group.PUT("/:id/status", h.UpdateAppointmentStatus)
		group.DELETE("/:id", h.CancelAppointment)
	}
}
