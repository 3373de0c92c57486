package models

import (
	"strings"

	dErrors "bto/pkg/domain-errors"
)

// User is a person known to the system, tagged with the role they are acting in.
//
// One identity may act as applicant, officer or manager; As re-casts it without
// copying fields by hand. Identity comparisons use NRIC only.
type User struct {
	NRIC          string        `json:"nric"`
	Name          string        `json:"name"`
	Age           int           `json:"age"`
	MaritalStatus MaritalStatus `json:"marital_status"`
	Role          Role          `json:"role"`
}

// NewUser validates and normalises an identity. NRICs are stored upper-case.
func NewUser(nric, name string, age int, status MaritalStatus, role Role) (User, error) {
	nric = strings.ToUpper(strings.TrimSpace(nric))
	if nric == "" {
		return User{}, dErrors.New(dErrors.CodeInvariantViolation, "nric is required")
	}
	if age < 0 {
		return User{}, dErrors.New(dErrors.CodeInvariantViolation, "age must be non-negative")
	}
	if !role.IsValid() {
		return User{}, dErrors.New(dErrors.CodeInvariantViolation, "invalid role")
	}
	return User{
		NRIC:          nric,
		Name:          strings.TrimSpace(name),
		Age:           age,
		MaritalStatus: status,
		Role:          role,
	}, nil
}

// As returns the same identity acting in another role.
func (u User) As(role Role) User {
	u.Role = role
	return u
}

func (u User) IsApplicant() bool { return u.Role == RoleApplicant }
func (u User) IsOfficer() bool   { return u.Role == RoleOfficer }
func (u User) IsManager() bool   { return u.Role == RoleManager }

// SameIdentity reports whether both values refer to the same person.
func (u User) SameIdentity(other User) bool {
	return u.NRIC == other.NRIC
}
