package disease

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

func (h *Handler) ListDiseases(c *gin.Context) {
	diseases, err := h.service.ListDiseases(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(diseases))
}

// AddDisease creates a disease directly into the approved catalog,
// bypassing the request workflow. Admin only.
func (h *Handler) AddDisease(c *gin.Context) {
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

	disease, err := h.service.AddDisease(c.Request.Context(), current.ID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(disease))
}

func (h *Handler) UpdateDisease(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid disease id"))
		return
	}

	var req model.UpdateDiseaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	disease, err := h.service.UpdateDisease(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(disease))
}

// AssignLocations replaces the disease's affected-area set.
func (h *Handler) AssignLocations(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid disease id"))
		return
	}

	var req model.AssignLocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	disease, err := h.service.AssignLocations(c.Request.Context(), id, req.Locations)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(disease))
}

func (h *Handler) DeleteDisease(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid disease id"))
		return
	}

	if err := h.service.DeleteDisease(c.Request.Context(), id); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	group := r.Group("/diseases", auth.Authenticate())
	{
		group.GET("", h.ListDiseases)

		admin := group.Group("", auth.RequireRole(model.RoleAdmin))
		{
			admin.POST("", h.AddDisease)
			admin.PUT("/:id", h.UpdateDisease)
			admin.PUT("/:id/locations", h.AssignLocations)
			admin.DELETE("/:id", h.DeleteDisease)
		}
	}
}
