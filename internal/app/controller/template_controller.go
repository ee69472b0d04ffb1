package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stitchline/stitchline-backend/internal/app/service"
	apperrors "github.com/stitchline/stitchline-backend/internal/errors"
	"github.com/stitchline/stitchline-backend/internal/middleware"
)

type TemplateController struct {
	templateService service.TemplateService
}

func NewTemplateController(templateService service.TemplateService) *TemplateController {
	return &TemplateController{
		templateService: templateService,
	}
}

// ListTemplates returns the measurement template catalog.
// GET /api/v1/templates
func (ctrl *TemplateController) ListTemplates(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	templates, err := ctrl.templateService.ListTemplates()
	if err != nil {
		log.Error("Failed to list measurement templates", err, nil)
		apperrors.InternalError(c, "Failed to list templates")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"templates": templates,
		"count":     len(templates),
	})
}

// GetTemplate returns one measurement template with its required fields.
// GET /api/v1/templates/:id
func (ctrl *TemplateController) GetTemplate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid template ID")
		return
	}

	template, err := ctrl.templateService.GetTemplateByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			apperrors.NotFound(c, apperrors.TemplateNotFound, "Measurement template not found")
			return
		}
		apperrors.InternalError(c, "Failed to fetch template")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"template": template,
	})
}
