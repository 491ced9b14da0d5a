package user

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ayurmed/hms-api/internal/middleware"
	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/service/user"
	apperrors "github.com/ayurmed/hms-api/pkg/errors"
	"github.com/ayurmed/hms-api/pkg/httputil"
)

type Handler struct {
	userService *user.Service
}

func NewHandler(userService *user.Service) *Handler {
	return &Handler{userService: userService}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	authed := r.Group("", authMW.Authenticate())

	admin := authed.Group("", authMW.RequireRole(model.RoleAdmin))
	admin.POST("/doctors", h.createDoctor)
	admin.GET("/doctors", h.listDoctors)
	admin.GET("/patients", h.listPatients)
	admin.GET("/stats", h.stats)

	doctor := authed.Group("", authMW.RequireRole(model.RoleDoctor))
	doctor.POST("/patients", h.createPatient)
	doctor.GET("/patients/search", h.searchPatient)

	authed.GET("/patients/:id/lab-reports", h.listLabReports)
}

func (h *Handler) createDoctor(c *gin.Context) {
	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid doctor payload", err))
		return
	}

	doctor, err := h.userService.CreateDoctor(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, doctor)
}

func (h *Handler) listDoctors(c *gin.Context) {
	doctors, err := h.userService.ListDoctors(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, doctors)
}

func (h *Handler) createPatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient payload", err))
		return
	}

	patient, err := h.userService.CreatePatient(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, patient)
}

func (h *Handler) listPatients(c *gin.Context) {
	patients, err := h.userService.ListPatients(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, patients)
}

func (h *Handler) searchPatient(c *gin.Context) {
	healthID := c.Query("health_id")
	if healthID == "" {
		httputil.RespondWithError(c, apperrors.Validation("health_id query parameter is required", nil))
		return
	}

	patient, err := h.userService.FindPatientByHealthID(c.Request.Context(), healthID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, patient)
}

func (h *Handler) stats(c *gin.Context) {
	counts, err := h.userService.Counts(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, counts)
}

func (h *Handler) listLabReports(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient id", err))
		return
	}

	current, ok := middleware.CurrentUser(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(fmt.Errorf("no authenticated user")))
		return
	}
	// Patients can only read their own reports.
	if current.IsPatient() && current.ID != patientID {
		httputil.RespondWithError(c, apperrors.Forbidden("cannot access another patient's records"))
		return
	}

	reports, err := h.userService.ListLabReports(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, reports)
}
