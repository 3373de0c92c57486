package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	projectmodels "bto/internal/project/models"
	"bto/internal/registration/models"
	dErrors "bto/pkg/domain-errors"
	"bto/pkg/platform/httputil"
	"bto/pkg/requestcontext"
)

// Service defines the officer registration operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, officer projectmodels.User, projectID string) (*models.Registration, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	Reject(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	OfficerRegistrations(ctx context.Context, candidate projectmodels.User) ([]*models.Registration, error)
	ProjectRegistrations(ctx context.Context, projectID string) ([]*models.Registration, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts registration endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations", h.HandleRegister)
	r.Get("/registrations/{id}", h.HandleGet)
	r.Post("/registrations/{id}/approve", h.HandleApprove)
	r.Post("/registrations/{id}/reject", h.HandleReject)
	r.Get("/registrations", h.HandleProjectRegistrations)
	r.Get("/officers/{nric}/registrations", h.HandleOfficerRegistrations)
}

// HandleRegister handles POST /registrations.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reg, err := h.service.Register(ctx, req.ParsedOfficer(), req.ProjectID)
	if err != nil {
		h.logger.WarnContext(ctx, "officer registration rejected",
			"request_id", requestID,
			"project_id", req.ProjectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "officer registration submitted",
		"request_id", requestID,
		"registration_id", reg.ID,
		"project_id", reg.ProjectID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRegistration(reg))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, "get", h.service.Get)
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, "approve", h.service.Approve)
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, "reject", h.service.Reject)
}

func (h *Handler) handleByID(w http.ResponseWriter, r *http.Request, action string, op func(context.Context, uuid.UUID) (*models.Registration, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration id"))
		return
	}

	reg, err := op(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to "+action+" registration",
			"request_id", requestID,
			"registration_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg))
}

// HandleOfficerRegistrations handles GET /officers/{nric}/registrations.
func (h *Handler) HandleOfficerRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidate := projectmodels.User{NRIC: chi.URLParam(r, "nric"), Role: projectmodels.RoleOfficer}

	regs, err := h.service.OfficerRegistrations(ctx, candidate)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to list officer registrations",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistrations(regs))
}

// HandleProjectRegistrations handles GET /registrations?project_id=.
func (h *Handler) HandleProjectRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "project_id query parameter is required"))
		return
	}

	regs, err := h.service.ProjectRegistrations(ctx, projectID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to list project registrations",
			"request_id", requestcontext.RequestID(ctx),
			"project_id", projectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistrations(regs))
}
