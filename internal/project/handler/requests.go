package handler

import (
	"strings"
	"time"

	"bto/internal/project/models"
	dErrors "bto/pkg/domain-errors"
)

const maxNameLength = 200

// UserRequest is the identity block carried by requests. Authentication is out
// of scope, so callers state who they are.
type UserRequest struct {
	NRIC          string `json:"nric"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	MaritalStatus string `json:"marital_status"`
	Role          string `json:"role"`

	parsed models.User
}

// validate parses the identity. defaultRole applies when role is omitted.
func (r *UserRequest) validate(field string, defaultRole models.Role) error {
	role := defaultRole
	if strings.TrimSpace(r.Role) != "" {
		parsed, err := models.ParseRole(r.Role)
		if err != nil {
			return err
		}
		role = parsed
	}

	// Unknown marital statuses are carried through; eligibility rejects them.
	status := models.MaritalStatus(strings.ToUpper(strings.TrimSpace(r.MaritalStatus)))

	user, err := models.NewUser(r.NRIC, r.Name, r.Age, status, role)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, field+" is invalid")
	}
	r.parsed = user
	return nil
}

func (r *UserRequest) User() models.User {
	return r.parsed
}

// CreateProjectRequest is the body for POST /projects.
type CreateProjectRequest struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Neighborhood string         `json:"neighborhood"`
	Units        map[string]int `json:"units"`
	OpenDate     time.Time      `json:"application_open_date"`
	CloseDate    time.Time      `json:"application_close_date"`
	Manager      UserRequest    `json:"manager"`
	OfficerSlots int            `json:"officer_slots"`
	Hidden       bool           `json:"hidden"`

	parsedUnits map[models.FlatType]int
}

func (r *CreateProjectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Name) > maxNameLength || len(r.Neighborhood) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name and neighborhood must be at most 200 characters")
	}
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	units, err := parseUnits(r.Units)
	if err != nil {
		return err
	}
	r.parsedUnits = units
	return r.Manager.validate("manager", models.RoleManager)
}

func (r *CreateProjectRequest) ParsedUnits() map[models.FlatType]int {
	return r.parsedUnits
}

func parseUnits(raw map[string]int) (map[models.FlatType]int, error) {
	units := make(map[models.FlatType]int, len(raw))
	for name, n := range raw {
		t, err := models.ParseFlatType(name)
		if err != nil {
			return nil, err
		}
		units[t] = n
	}
	return units, nil
}

// UpdateProjectRequest is the body for PATCH /projects/{id}. Omitted fields
// are left unchanged.
type UpdateProjectRequest struct {
	Name         *string    `json:"name"`
	Neighborhood *string    `json:"neighborhood"`
	OpenDate     *time.Time `json:"application_open_date"`
	CloseDate    *time.Time `json:"application_close_date"`
	Visible      *bool      `json:"visible"`
	OfficerSlots *int       `json:"officer_slots"`
}

func (r *UpdateProjectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" || len(name) > maxNameLength {
			return dErrors.New(dErrors.CodeValidation, "name must be 1 to 200 characters")
		}
		r.Name = &name
	}
	if r.OfficerSlots != nil && *r.OfficerSlots < 0 {
		return dErrors.New(dErrors.CodeValidation, "officer_slots must not be negative")
	}
	if !r.hasDetails() && r.OfficerSlots == nil {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	return nil
}

func (r *UpdateProjectRequest) hasDetails() bool {
	return r.Name != nil || r.Neighborhood != nil || r.OpenDate != nil || r.CloseDate != nil || r.Visible != nil
}

// SetUnitsRequest is the body for PUT /projects/{id}/units/{flatType}.
type SetUnitsRequest struct {
	Total     *int `json:"total"`
	Available *int `json:"available"`
}

func (r *SetUnitsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Total == nil && r.Available == nil {
		return dErrors.New(dErrors.CodeValidation, "total or available is required")
	}
	return nil
}

// OfficerRequest is the body for POST /projects/{id}/officers.
type OfficerRequest struct {
	Officer UserRequest `json:"officer"`
}

func (r *OfficerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return r.Officer.validate("officer", models.RoleOfficer)
}

// EligibilityRequest is the body for the eligibility endpoints.
type EligibilityRequest struct {
	User UserRequest `json:"user"`
}

func (r *EligibilityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return r.User.validate("user", models.RoleApplicant)
}
