package eligibility

import (
	"bto/internal/eligibility/ports"
	"bto/internal/project/models"
)

// Reason explains a verdict. Callers of the engine only see a boolean; the
// reason feeds logs, metrics and audit.
type Reason string

const (
	// ReasonNone means a rule group passed and evaluation continues.
	ReasonNone Reason = ""

	ReasonEligible                 Reason = "eligible"
	ReasonWindowClosed             Reason = "window_closed"
	ReasonNotApplicant             Reason = "not_applicant"
	ReasonLookupFailed             Reason = "registration_lookup_failed"
	ReasonApprovedOfficer          Reason = "approved_officer"
	ReasonUnderage                 Reason = "underage"
	ReasonTwoRoomNotRegistered     Reason = "two_room_not_registered"
	ReasonUnsupportedMaritalStatus Reason = "unsupported_marital_status"
)

const (
	MinSingleAge  = 35
	MinMarriedAge = 21
)

// Verdict is the outcome of one evaluation.
type Verdict struct {
	Eligible bool
	Reason   Reason
}

func deny(r Reason) Verdict { return Verdict{Reason: r} }

// EvaluatePreconditions applies the checks that need no external data.
// Rule priority (fail-fast):
//  1. Application window open (visibility included)
//  2. Acting as an applicant
func EvaluatePreconditions(open bool, user models.User) Reason {
	if !open {
		return ReasonWindowClosed
	}
	if !user.IsApplicant() {
		return ReasonNotApplicant
	}
	return ReasonNone
}

// EvaluateRegistrations rejects an applicant who is an approved officer of the
// same project. Pending or rejected registrations, and approvals elsewhere, do not count.
func EvaluateRegistrations(projectID string, records []ports.RegistrationRecord) Reason {
	for _, r := range records {
		if r.Status == models.RegistrationStatusApproved && r.ProjectID == projectID {
			return ReasonApprovedOfficer
		}
	}
	return ReasonNone
}

// EvaluateDemographics applies the marital-status rules.
//   - SINGLE: at least MinSingleAge and 2-Room is registered on the project,
//     even with a zero total
//   - MARRIED: at least MinMarriedAge
//   - anything else: not eligible
func EvaluateDemographics(user models.User, twoRoomRegistered bool) Verdict {
	switch user.MaritalStatus {
	case models.MaritalStatusSingle:
		if user.Age < MinSingleAge {
			return deny(ReasonUnderage)
		}
		if !twoRoomRegistered {
			return deny(ReasonTwoRoomNotRegistered)
		}
		return Verdict{Eligible: true, Reason: ReasonEligible}
	case models.MaritalStatusMarried:
		if user.Age < MinMarriedAge {
			return deny(ReasonUnderage)
		}
		return Verdict{Eligible: true, Reason: ReasonEligible}
	default:
		return deny(ReasonUnsupportedMaritalStatus)
	}
}
