package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing downstream.
type EventCategory string

const (
	// CategoryAllocation covers changes to what applicants can actually obtain:
	// unit bookings and releases, eligibility verdicts.
	CategoryAllocation EventCategory = "allocation"

	// CategoryStaffing covers officer roster and registration changes.
	CategoryStaffing EventCategory = "staffing"

	// CategoryOperations covers routine administration useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Subject is the aggregate the event is about (project ID or registration ID).
	Subject string
	Action  string
	// ActorID is the NRIC of whoever triggered the action, when known.
	ActorID  string
	FlatType string
	Decision string
	Reason   string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}

type AuditEvent string

const (
	// Project events
	EventProjectCreated      AuditEvent = "project_created"
	EventProjectUpdated      AuditEvent = "project_updated"
	EventUnitsAdjusted       AuditEvent = "units_adjusted"
	EventUnitBooked          AuditEvent = "unit_booked"
	EventUnitReleased        AuditEvent = "unit_released"
	EventOfficerSlotsChanged AuditEvent = "officer_slots_changed"

	// Roster events
	EventOfficerAssigned AuditEvent = "officer_assigned"
	EventOfficerRemoved  AuditEvent = "officer_removed"

	// Registration events
	EventRegistrationSubmitted AuditEvent = "registration_submitted"
	EventRegistrationApproved  AuditEvent = "registration_approved"
	EventRegistrationRejected  AuditEvent = "registration_rejected"

	// Eligibility events
	EventEligibilityChecked AuditEvent = "eligibility_checked"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUnitBooked:         CategoryAllocation,
	EventUnitReleased:       CategoryAllocation,
	EventEligibilityChecked: CategoryAllocation,

	EventOfficerAssigned:       CategoryStaffing,
	EventOfficerRemoved:        CategoryStaffing,
	EventOfficerSlotsChanged:   CategoryStaffing,
	EventRegistrationSubmitted: CategoryStaffing,
	EventRegistrationApproved:  CategoryStaffing,
	EventRegistrationRejected:  CategoryStaffing,

	EventProjectCreated: CategoryOperations,
	EventProjectUpdated: CategoryOperations,
	EventUnitsAdjusted:  CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher accepts audit events from services.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
