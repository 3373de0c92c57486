package adapters

import (
	"context"

	"bto/internal/eligibility/ports"
	projectmodels "bto/internal/project/models"
	registrationmodels "bto/internal/registration/models"
)

// RegistrationLister is satisfied by the registration stores and the
// registration service.
type RegistrationLister interface {
	OfficerRegistrations(ctx context.Context, candidate projectmodels.User) ([]*registrationmodels.Registration, error)
}

// RegistrationAdapter implements ports.RegistrationQueryPort over an
// in-process registration lister.
type RegistrationAdapter struct {
	registrations RegistrationLister
}

func NewRegistrationAdapter(registrations RegistrationLister) ports.RegistrationQueryPort {
	return &RegistrationAdapter{registrations: registrations}
}

func (a *RegistrationAdapter) OfficerRegistrations(ctx context.Context, candidate projectmodels.User) ([]ports.RegistrationRecord, error) {
	registrations, err := a.registrations.OfficerRegistrations(ctx, candidate)
	if err != nil {
		return nil, err
	}
	records := make([]ports.RegistrationRecord, 0, len(registrations))
	for _, r := range registrations {
		records = append(records, ports.RegistrationRecord{
			ProjectID: r.ProjectID,
			Status:    r.Status,
		})
	}
	return records, nil
}
