package request

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vaxtrack/registry-api/internal/handler"
	"github.com/vaxtrack/registry-api/internal/middleware"
	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/service/approval"
)

// Handler exposes the request workflow: residents submit disease and
// vaccine requests, admins list the pending ones and approve them.
type Handler struct {
	service *approval.Service
}

func NewHandler(service *approval.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) SubmitDiseaseRequest(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	var req model.CreateDiseaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	request, err := h.service.SubmitDiseaseRequest(c.Request.Context(), current.ID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(request))
}

func (h *Handler) SubmitVaccineRequest(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	var req model.CreateVaccineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	request, err := h.service.SubmitVaccineRequest(c.Request.Context(), current.ID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(request))
}

func (h *Handler) ListPendingDiseaseRequests(c *gin.Context) {
	requests, err := h.service.ListPendingDiseaseRequests(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(requests))
}

func (h *Handler) ListPendingVaccineRequests(c *gin.Context) {
	requests, err := h.service.ListPendingVaccineRequests(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(requests))
}

func (h *Handler) ApproveDiseaseRequest(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid request id"))
		return
	}

	disease, err := h.service.ApproveDiseaseRequest(c.Request.Context(), id, current.ID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(disease))
}

func (h *Handler) ApproveVaccineRequest(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid request id"))
		return
	}

	vaccine, err := h.service.ApproveVaccineRequest(c.Request.Context(), id, current.ID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(vaccine))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	group := r.Group("/requests", auth.Authenticate())
	{
		resident := group.Group("", auth.RequireRole(model.RoleResident, model.RoleAdmin))
		{
			resident.POST("/diseases", h.SubmitDiseaseRequest)
			resident.POST("/vaccines", h.SubmitVaccineRequest)
		}

		admin := group.Group("", auth.RequireRole(model.RoleAdmin))
		{
			admin.GET("/diseases", h.ListPendingDiseaseRequests)
			admin.GET("/vaccines", h.ListPendingVaccineRequests)
			admin.POST("/diseases/:id/approve", h.ApproveDiseaseRequest)
			admin.POST("/vaccines/:id/approve", h.ApproveVaccineRequest)
		}
	}
}
