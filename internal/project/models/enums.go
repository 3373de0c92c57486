package models

import (
	"strings"

	dErrors "bto/pkg/domain-errors"
)

// FlatType is a category of housing unit offered by a project.
type FlatType string

const (
	FlatTypeTwoRoom   FlatType = "TWO_ROOM"
	FlatTypeThreeRoom FlatType = "THREE_ROOM"
)

// AllFlatTypes lists every flat type in declaration order.
var AllFlatTypes = []FlatType{FlatTypeTwoRoom, FlatTypeThreeRoom}

func (f FlatType) IsValid() bool {
	return f == FlatTypeTwoRoom || f == FlatTypeThreeRoom
}

// DisplayValue returns the label shown to applicants.
func (f FlatType) DisplayValue() string {
	switch f {
	case FlatTypeTwoRoom:
		return "2-Room"
	case FlatTypeThreeRoom:
		return "3-Room"
	default:
		return string(f)
	}
}

func (f FlatType) String() string {
	return string(f)
}

// ParseFlatType accepts the enum name ("TWO_ROOM") or the display label ("2-Room"),
// case-insensitively.
func ParseFlatType(s string) (FlatType, error) {
	s = strings.TrimSpace(s)
	for _, f := range AllFlatTypes {
		if strings.EqualFold(s, string(f)) || strings.EqualFold(s, f.DisplayValue()) {
			return f, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown flat type: "+s)
}

// MaritalStatus of an applicant. Only SINGLE and MARRIED are recognised by
// eligibility; any other value is carried through and rejected there.
type MaritalStatus string

const (
	MaritalStatusSingle  MaritalStatus = "SINGLE"
	MaritalStatusMarried MaritalStatus = "MARRIED"
)

func (m MaritalStatus) IsValid() bool {
	return m == MaritalStatusSingle || m == MaritalStatusMarried
}

func (m MaritalStatus) DisplayValue() string {
	switch m {
	case MaritalStatusSingle:
		return "Single"
	case MaritalStatusMarried:
		return "Married"
	default:
		return string(m)
	}
}

// ParseMaritalStatus normalises "single"/"Single"/"SINGLE" and the like.
func ParseMaritalStatus(s string) (MaritalStatus, error) {
	m := MaritalStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown marital status: "+s)
	}
	return m, nil
}

// Role tags which capacity a User identity is acting in.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleOfficer   Role = "officer"
	RoleManager   Role = "manager"
)

func (r Role) IsValid() bool {
	return r == RoleApplicant || r == RoleOfficer || r == RoleManager
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown role: "+s)
	}
	return r, nil
}

// RegistrationStatus is the lifecycle state of an officer's request to handle a project.
type RegistrationStatus string

const (
	RegistrationStatusPending  RegistrationStatus = "PENDING"
	RegistrationStatusApproved RegistrationStatus = "APPROVED"
	RegistrationStatusRejected RegistrationStatus = "REJECTED"
)

func (s RegistrationStatus) IsValid() bool {
	switch s {
	case RegistrationStatusPending, RegistrationStatusApproved, RegistrationStatusRejected:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the registration still occupies the officer+project pair.
func (s RegistrationStatus) IsOpen() bool {
	return s == RegistrationStatusPending || s == RegistrationStatusApproved
}
