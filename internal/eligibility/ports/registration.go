package ports

import (
	"context"

	"bto/internal/project/models"
)

// RegistrationQueryPort lets the eligibility engine look up officer registrations
// without depending on how or where they are stored.
type RegistrationQueryPort interface {
	// OfficerRegistrations returns every registration filed by candidate's NRIC.
	// An unknown officer yields an empty slice, not an error.
	OfficerRegistrations(ctx context.Context, candidate models.User) ([]RegistrationRecord, error)
}

// RegistrationRecord is the port view of an officer registration.
type RegistrationRecord struct {
	ProjectID string
	Status    models.RegistrationStatus
}
