package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ayurmed/hms-api/internal/middleware"
	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/service/auth"
	apperrors "github.com/ayurmed/hms-api/pkg/errors"
	"github.com/ayurmed/hms-api/pkg/httputil"
)

type Handler struct {
	authService *auth.Service
}

func NewHandler(authService *auth.Service) *Handler {
	return &Handler{authService: authService}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	r.POST("/auth/login", h.login)

	authed := r.Group("", authMW.Authenticate())
	authed.POST("/auth/logout", h.logout)
	authed.GET("/me", h.me)
}

func (h *Handler) login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid login request", err))
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req.Email)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, resp)
}

func (h *Handler) logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 {
		h.authService.Logout(c.Request.Context(), parts[1])
	}
	httputil.RespondWithSuccess(c, http.StatusOK, nil)
}

func (h *Handler) me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(fmt.Errorf("no authenticated user")))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, user)
}
