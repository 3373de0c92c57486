package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"bto/internal/project/models"
	"bto/internal/project/service"
	"bto/internal/project/store/availability"
	dErrors "bto/pkg/domain-errors"
	"bto/pkg/platform/httputil"
	"bto/pkg/requestcontext"
)

// Service defines the project operations exposed over HTTP.
type Service interface {
	CreateProject(ctx context.Context, in service.CreateProjectInput) (*models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context, visibleOnly bool) ([]*models.Project, error)
	UpdateDetails(ctx context.Context, id string, in service.UpdateDetailsInput) (*models.Project, error)
	SetOfficerSlots(ctx context.Context, id string, slots int) (*models.Project, error)
	SetUnits(ctx context.Context, id string, flatType models.FlatType, total, available *int) (*models.Project, error)
	BookUnit(ctx context.Context, id string, flatType models.FlatType) (*models.Project, error)
	ReleaseUnit(ctx context.Context, id string, flatType models.FlatType) (*models.Project, error)
	AssignOfficer(ctx context.Context, id string, officer models.User) (*models.Project, error)
	RemoveOfficer(ctx context.Context, id string, nric string) (*models.Project, error)
	AdjustOfficerSlots(ctx context.Context, id string, delta int) (*models.Project, error)
	CheckEligibility(ctx context.Context, user models.User, projectID string) (bool, error)
	ListEligibleProjects(ctx context.Context, user models.User) ([]*models.Project, error)
	Availability(ctx context.Context, id string) (map[models.FlatType]availability.Units, error)
}

// Handler wires project endpoints to the project service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts project endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Patch("/", h.HandleUpdate)
			r.Get("/availability", h.HandleAvailability)
			r.Put("/units/{flatType}", h.HandleSetUnits)
			r.Post("/units/{flatType}/book", h.HandleBook)
			r.Post("/units/{flatType}/release", h.HandleRelease)
			r.Post("/officers", h.HandleAssignOfficer)
			r.Delete("/officers/{nric}", h.HandleRemoveOfficer)
			r.Post("/officer-slots/{direction}", h.HandleAdjustOfficerSlots)
			r.Post("/eligibility", h.HandleCheckEligibility)
		})
	})
	r.Post("/eligibility/projects", h.HandleListEligible)
}

// HandleCreate handles POST /projects.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateProjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.CreateProject(ctx, service.CreateProjectInput{
		ID:           req.ID,
		Name:         req.Name,
		Neighborhood: strings.TrimSpace(req.Neighborhood),
		Units:        req.ParsedUnits(),
		OpenDate:     req.OpenDate,
		CloseDate:    req.CloseDate,
		Manager:      req.Manager.User(),
		OfficerSlots: req.OfficerSlots,
		Hidden:       req.Hidden,
	})
	if err != nil {
		h.fail(ctx, w, "failed to create project", err, "name", req.Name)
		return
	}

	h.logger.InfoContext(ctx, "project created",
		"request_id", requestID,
		"project_id", p.ID(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromProject(p))
}

// HandleList handles GET /projects. ?visible=true restricts to visible projects.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	visibleOnly := false
	if raw := r.URL.Query().Get("visible"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "visible must be a boolean"))
			return
		}
		visibleOnly = v
	}

	projects, err := h.service.ListProjects(ctx, visibleOnly)
	if err != nil {
		h.fail(ctx, w, "failed to list projects", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProjects(projects))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	p, err := h.service.GetProject(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get project", err, "project_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProject(p))
}

// HandleUpdate handles PATCH /projects/{id}. Detail changes and the officer
// slot count are applied as two separate operations, details first.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id := chi.URLParam(r, "id")

	req, ok := httputil.DecodeAndPrepare[UpdateProjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	var (
		p   *models.Project
		err error
	)
	if req.hasDetails() {
		p, err = h.service.UpdateDetails(ctx, id, service.UpdateDetailsInput{
			Name:         req.Name,
			Neighborhood: req.Neighborhood,
			OpenDate:     req.OpenDate,
			CloseDate:    req.CloseDate,
			Visible:      req.Visible,
		})
		if err != nil {
			h.fail(ctx, w, "failed to update project", err, "project_id", id)
			return
		}
	}
	if req.OfficerSlots != nil {
		p, err = h.service.SetOfficerSlots(ctx, id, *req.OfficerSlots)
		if err != nil {
			h.fail(ctx, w, "failed to set officer slots", err, "project_id", id)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, FromProject(p))
}

func (h *Handler) HandleSetUnits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id := chi.URLParam(r, "id")

	flatType, err := models.ParseFlatType(chi.URLParam(r, "flatType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetUnitsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.SetUnits(ctx, id, flatType, req.Total, req.Available)
	if err != nil {
		h.fail(ctx, w, "failed to set units", err, "project_id", id, "flat_type", flatType)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProject(p))
}

func (h *Handler) HandleBook(w http.ResponseWriter, r *http.Request) {
	h.handleLedger(w, r, "book", h.service.BookUnit)
}

func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	h.handleLedger(w, r, "release", h.service.ReleaseUnit)
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request, action string, op func(context.Context, string, models.FlatType) (*models.Project, error)) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	flatType, err := models.ParseFlatType(chi.URLParam(r, "flatType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := op(ctx, id, flatType)
	if err != nil {
		h.fail(ctx, w, "failed to "+action+" unit", err, "project_id", id, "flat_type", flatType)
		return
	}

	h.logger.InfoContext(ctx, "unit "+action+" applied",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", id,
		"flat_type", flatType,
		"available", p.AvailableUnitsByType(flatType),
	)
	httputil.WriteJSON(w, http.StatusOK, FromProject(p))
}

func (h *Handler) HandleAssignOfficer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id := chi.URLParam(r, "id")

	req, ok := httputil.DecodeAndPrepare[OfficerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.AssignOfficer(ctx, id, req.Officer.User())
	if err != nil {
		h.fail(ctx, w, "failed to assign officer", err, "project_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProject(p))
}

func (h *Handler) HandleRemoveOfficer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	p, err := h.service.RemoveOfficer(ctx, id, chi.URLParam(r, "nric"))
	if err != nil {
		h.fail(ctx, w, "failed to remove officer", err, "project_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProject(p))
}

// HandleAdjustOfficerSlots handles POST /projects/{id}/officer-slots/{increment|decrement}.
func (h *Handler) HandleAdjustOfficerSlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var delta int
	switch chi.URLParam(r, "direction") {
	case "increment":
		delta = 1
	case "decrement":
		delta = -1
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown officer slot operation"))
		return
	}

	p, err := h.service.AdjustOfficerSlots(ctx, id, delta)
	if err != nil {
		h.fail(ctx, w, "failed to adjust officer slots", err, "project_id", id, "delta", delta)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProject(p))
}

// HandleCheckEligibility handles POST /projects/{id}/eligibility. An ineligible
// user is a normal 200 response with eligible=false.
func (h *Handler) HandleCheckEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id := chi.URLParam(r, "id")

	req, ok := httputil.DecodeAndPrepare[EligibilityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	eligible, err := h.service.CheckEligibility(ctx, req.User.User(), id)
	if err != nil {
		h.fail(ctx, w, "eligibility check failed", err, "project_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EligibilityResponse{ProjectID: id, Eligible: eligible})
}

// HandleListEligible handles POST /eligibility/projects.
func (h *Handler) HandleListEligible(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[EligibilityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	projects, err := h.service.ListEligibleProjects(ctx, req.User.User())
	if err != nil {
		h.fail(ctx, w, "failed to list eligible projects", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProjects(projects))
}

func (h *Handler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	units, err := h.service.Availability(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to read availability", err, "project_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AvailabilityResponse{ProjectID: id, Units: units})
}

// fail logs err at a level matching its code and writes the error response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	level := slog.LevelWarn
	if code, _ := dErrors.CodeOf(err); httputil.StatusFor(code) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	attrs = append(attrs, "request_id", requestcontext.RequestID(ctx), "error", err)
	h.logger.Log(ctx, level, msg, attrs...)
	httputil.WriteError(w, err)
}
