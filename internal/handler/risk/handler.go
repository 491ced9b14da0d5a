package risk

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ayurmed/hms-api/internal/middleware"
	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/service/risk"
	apperrors "github.com/ayurmed/hms-api/pkg/errors"
	"github.com/ayurmed/hms-api/pkg/httputil"
)

type Handler struct {
	riskService *risk.Service
}

func NewHandler(riskService *risk.Service) *Handler {
	return &Handler{riskService: riskService}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	authed := r.Group("", authMW.Authenticate())
	authed.POST("/risk/analyze", h.analyze)
}

// analyze is stateless: the prediction is returned to the caller and
// never stored.
func (h *Handler) analyze(c *gin.Context) {
	var req model.RiskAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid risk analysis payload", err))
		return
	}

	prediction, err := h.riskService.Analyze(c.Request.Context(), req.Age, req.Gender, req.FamilyHistory)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, prediction)
}
