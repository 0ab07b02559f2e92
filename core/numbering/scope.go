package numbering

import (
	"fmt"
	"time"

	"sentinel-ehs/core/classify"
)

// ScopeKey is the (category, period) pair under which sequence counters run
// independently. Counters for different scopes never contend with each other.
type ScopeKey struct {
	Category classify.Category
	Period   string
}

func (k ScopeKey) String() string {
	return k.Category.Code() + "|" + k.Period
}

// MonthScope keys the counter to the calendar month of the occurrence time.
// This is the standard incident-number scope.
func MonthScope(category classify.Category, occurredAt time.Time) ScopeKey {
	return ScopeKey{Category: category, Period: occurredAt.UTC().Format("2006-01")}
}

// DayScope keys the counter to the calendar day. Used by the register number
// variant whose rendered form embeds the full date.
func DayScope(category classify.Category, occurredAt time.Time) ScopeKey {
	return ScopeKey{Category: category, Period: occurredAt.UTC().Format("06/01/02")}
}

// AllocationError reports that the authoritative counter could not produce a
// number. Callers must leave the field unset and retry; fabricating a number
// locally would break scope uniqueness.
type AllocationError struct {
	Scope ScopeKey
	Err   error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocate sequence for scope %s: %v", e.Scope, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }
