package models

import "errors"

// Expected ledger failures. Ledger operations report these as a false return;
// the Can* checks return them so callers can say why.
var (
	ErrNoUnitsAvailable = errors.New("no units available")
	ErrAtCapacity       = errors.New("available units already at total")
	ErrNoSlotsAvailable = errors.New("no officer slots available")
	ErrOfficerSlotsFull = errors.New("officer slots already at maximum")
	ErrAlreadyAssigned  = errors.New("officer already assigned")
	ErrNotAssigned      = errors.New("officer not assigned")
	ErrIneligible       = errors.New("applicant not eligible")
)
