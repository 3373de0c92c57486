package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	projectmodels "bto/internal/project/models"
	dErrors "bto/pkg/domain-errors"
)

// ErrNotPending is returned when a decision is made on a registration that
// has already been decided.
var ErrNotPending = errors.New("registration is not pending")

// Registration is an officer's request to handle a project. A PENDING
// registration becomes APPROVED or REJECTED exactly once.
type Registration struct {
	ID        uuid.UUID                        `json:"id"`
	Officer   projectmodels.User               `json:"officer"`
	ProjectID string                           `json:"project_id"`
	Status    projectmodels.RegistrationStatus `json:"status"`
	CreatedAt time.Time                        `json:"created_at"`
	UpdatedAt time.Time                        `json:"updated_at"`
}

// NewRegistration creates a pending registration for officer on projectID.
func NewRegistration(id uuid.UUID, officer projectmodels.User, projectID string, now time.Time) (*Registration, error) {
	if id == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registration id is required")
	}
	if !officer.IsOfficer() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "only officers can register to handle a project")
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "project id is required")
	}
	return &Registration{
		ID:        id,
		Officer:   officer,
		ProjectID: projectID,
		Status:    projectmodels.RegistrationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (r *Registration) IsOpen() bool { return r.Status.IsOpen() }

func (r *Registration) CanDecide() error {
	if r.Status != projectmodels.RegistrationStatusPending {
		return ErrNotPending
	}
	return nil
}

func (r *Registration) ApplyApproval(now time.Time) {
	r.Status = projectmodels.RegistrationStatusApproved
	r.UpdatedAt = now
}

func (r *Registration) ApplyRejection(now time.Time) {
	r.Status = projectmodels.RegistrationStatusRejected
	r.UpdatedAt = now
}

// Clone returns a copy safe to hand out of a store.
func (r *Registration) Clone() *Registration {
	c := *r
	return &c
}
