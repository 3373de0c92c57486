package handler

import (
	"time"

	"bto/internal/registration/models"
)

type RegistrationResponse struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	OfficerNRIC string    `json:"officer_nric"`
	OfficerName string    `json:"officer_name"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromRegistration(r *models.Registration) RegistrationResponse {
	return RegistrationResponse{
		ID:          r.ID.String(),
		ProjectID:   r.ProjectID,
		OfficerNRIC: r.Officer.NRIC,
		OfficerName: r.Officer.Name,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type RegistrationListResponse struct {
	Registrations []RegistrationResponse `json:"registrations"`
	Count         int                    `json:"count"`
}

func FromRegistrations(rs []*models.Registration) RegistrationListResponse {
	out := make([]RegistrationResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromRegistration(r))
	}
	return RegistrationListResponse{Registrations: out, Count: len(out)}
}
