package prescription

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ayurmed/hms-api/internal/middleware"
	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/service/prescription"
	apperrors "github.com/ayurmed/hms-api/pkg/errors"
	"github.com/ayurmed/hms-api/pkg/httputil"
)

type Handler struct {
	rxService *prescription.Service
}

func NewHandler(rxService *prescription.Service) *Handler {
	return &Handler{rxService: rxService}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	authed := r.Group("", authMW.Authenticate())
	authed.POST("/prescriptions", h.upload)
	authed.GET("/prescriptions/:id", h.get)
	authed.GET("/patients/:id/prescriptions", h.listForPatient)

	doctor := authed.Group("", authMW.RequireRole(model.RoleDoctor))
	doctor.POST("/prescriptions/digital", h.createDigital)
	doctor.GET("/prescriptions/pending", h.listPending)
	doctor.POST("/prescriptions/:id/extract", h.extract)
	doctor.PUT("/prescriptions/:id/validate", h.validate)
}

func (h *Handler) upload(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(fmt.Errorf("no authenticated user")))
		return
	}

	var req model.UploadPrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid upload payload", err))
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient id", err))
		return
	}

	// Patients upload only for themselves; staff uploads carry the
	// uploading doctor as author.
	var doctorID *uuid.UUID
	switch {
	case current.IsPatient():
		if current.ID != patientID {
			httputil.RespondWithError(c, apperrors.Forbidden("cannot upload for another patient"))
			return
		}
	case current.Role == model.RoleDoctor:
		id := current.ID
		doctorID = &id
	}

	rx, err := h.rxService.Upload(c.Request.Context(), patientID, req.ImageData, doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, rx)
}

func (h *Handler) createDigital(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(fmt.Errorf("no authenticated user")))
		return
	}

	var req model.CreateDigitalPrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid prescription payload", err))
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient id", err))
		return
	}

	rx, err := h.rxService.CreateDigital(c.Request.Context(), current.ID, patientID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, rx)
}

func (h *Handler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid prescription id", err))
		return
	}

	rx, err := h.rxService.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	current, ok := middleware.CurrentUser(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(fmt.Errorf("no authenticated user")))
		return
	}
	if current.IsPatient() && rx.PatientID != current.ID {
		httputil.RespondWithError(c, apperrors.Forbidden("cannot access another patient's prescription"))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, rx)
}

func (h *Handler) listForPatient(c *gin.Context) {
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
	if current.IsPatient() && current.ID != patientID {
		httputil.RespondWithError(c, apperrors.Forbidden("cannot access another patient's records"))
		return
	}

	list, err := h.rxService.ListForPatient(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, list)
}

func (h *Handler) listPending(c *gin.Context) {
	list, err := h.rxService.ListPending(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, list)
}

// extract runs structured extraction and returns the draft for review.
// Nothing is persisted until the validation save.
func (h *Handler) extract(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid prescription id", err))
		return
	}

	draft, err := h.rxService.RunExtraction(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, draft)
}

func (h *Handler) validate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid prescription id", err))
		return
	}

	current, ok := middleware.CurrentUser(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(fmt.Errorf("no authenticated user")))
		return
	}

	var req model.ValidatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid validation payload", err))
		return
	}

	rx, err := h.rxService.ValidateAndSave(c.Request.Context(), id, current.ID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, rx)
}
