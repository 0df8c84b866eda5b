package vaccine

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vaxtrack/registry-api/internal/handler"
	"github.com/vaxtrack/registry-api/internal/middleware"
	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/service/catalog"
)

type Handler struct {
	service *catalog.Service
}

func NewHandler(service *catalog.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListVaccines(c *gin.Context) {
	vaccines, err := h.service.ListVaccines(c.Request.Context(), true)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(vaccines))
}

// SearchByLocation lists approved vaccines covering any disease recorded
// for the given location.
func (h *Handler) SearchByLocation(c *gin.Context) {
	location := c.Query("location")
	if location == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("location query parameter is required"))
		return
	}

	vaccines, err := h.service.VaccinesByLocation(c.Request.Context(), location)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(vaccines))
}

func (h *Handler) AddVaccine(c *gin.Context) {
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

	vaccine, err := h.service.AddVaccine(c.Request.Context(), current.ID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(vaccine))
}

func (h *Handler) UpdateVaccine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid vaccine id"))
		return
	}

	var req model.UpdateVaccineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	vaccine, err := h.service.UpdateVaccine(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(vaccine))
}

func (h *Handler) DeleteVaccine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid vaccine id"))
		return
	}

	if err := h.service.DeleteVaccine(c.Request.Context(), id); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	group := r.Group("/vaccines", auth.Authenticate())
	{
		group.GET("", h.ListVaccines)
		group.GET("/search", h.SearchByLocation)

		admin := group.Group("", auth.RequireRole(model.RoleAdmin))
		{
			admin.POST("", h.AddVaccine)
			admin.PUT("/:id", h.UpdateVaccine)
			admin.DELETE("/:id", h.DeleteVaccine)
		}
	}
}
