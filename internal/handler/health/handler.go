package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.check)
}

func (h *Handler) check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
