package handler

import (
	"strings"

	"bto/internal/project/models"
	dErrors "bto/pkg/domain-errors"
)

// RegisterRequest is the body for POST /registrations.
type RegisterRequest struct {
	ProjectID string         `json:"project_id"`
	Officer   OfficerRequest `json:"officer"`

	parsedOfficer models.User
}

type OfficerRequest struct {
	NRIC          string `json:"nric"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	MaritalStatus string `json:"marital_status"`
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.ProjectID = strings.TrimSpace(r.ProjectID)
	if r.ProjectID == "" {
		return dErrors.New(dErrors.CodeValidation, "project_id is required")
	}

	officer, err := models.NewUser(r.Officer.NRIC, r.Officer.Name, r.Officer.Age,
		models.MaritalStatus(strings.ToUpper(strings.TrimSpace(r.Officer.MaritalStatus))), models.RoleOfficer)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "officer is invalid")
	}
	r.parsedOfficer = officer
	return nil
}

func (r *RegisterRequest) ParsedOfficer() models.User {
	return r.parsedOfficer
}
