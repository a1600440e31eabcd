package period

import (
	"errors"
	"fmt"
)

var (
	// ErrPeriodNotFound is returned when a period id does not resolve.
	ErrPeriodNotFound = errors.New("accounting period not found")

	// ErrPeriodAlreadyClosed is returned when attempting to reopen, or
	// close further, a HARD_CLOSED period - closure is one-way.
	ErrPeriodAlreadyClosed = errors.New("accounting period already hard-closed")

	// ErrInvalidTransition is returned for any closure transition other
	// than OPEN->SOFT_CLOSED->HARD_CLOSED.
	ErrInvalidTransition = errors.New("invalid accounting period transition")

	// ErrPeriodGapTooLarge is returned when a new period's start date
	// leaves a gap since the prior period's end date larger than
	// config.Config.PeriodGapToleranceDays.
	ErrPeriodGapTooLarge = errors.New("accounting period start date leaves too large a gap")

	// ErrLockNotFound is returned when a lock id does not resolve.
	ErrLockNotFound = errors.New("ledger lock not found")

	// ErrLockAlreadyReleased is returned when releasing a lock that is
	// not currently active.
	ErrLockAlreadyReleased = errors.New("ledger lock already released")

	// ErrPostingBlocked is returned by CheckPeriodForPosting's callers
	// when no approved override covers an active lock.
	ErrPostingBlocked = errors.New("posting blocked by an active ledger lock")

	// ErrJustificationTooShort is returned when an override request's
	// written justification is under 10 characters.
	ErrJustificationTooShort = errors.New("override justification must be at least 10 characters")

	// ErrOverrideNotFound is returned when an override request id does
	// not resolve.
	ErrOverrideNotFound = errors.New("override request not found")

	// ErrOverrideNotPending is returned when approving or rejecting a
	// request that has already been decided.
	ErrOverrideNotPending = errors.New("override request already decided")

	// ErrSelfApproval is returned when the approver is the same actor
	// as the requestor - dual confirmation requires two distinct people.
	ErrSelfApproval = errors.New("override approver must differ from requestor")

	// ErrSameRole is returned when the approver holds the same role as
	// the requestor - dual confirmation requires a distinct role too.
	ErrSameRole = errors.New("override approver must hold a different role than the requestor")

	// ErrOverrideNotApproved is returned when consuming an override that
	// is not in APPROVED status.
	ErrOverrideNotApproved = errors.New("override request is not approved")

	// ErrOverrideAlreadyConsumed is returned when an approved override
	// is consumed a second time - it is single-use.
	ErrOverrideAlreadyConsumed = errors.New("override request already consumed")

	// ErrOverrideNotAllowedForPeriodLock is returned when requesting or
	// consuming an override against a PERIOD_LOCK - a hard-closed
	// period accepts no override, by design, regardless of who requests
	// or approves one.
	ErrOverrideNotAllowedForPeriodLock = errors.New("a period lock accepts no override")
)

// TransitionError names the attempted and current period status.
type TransitionError struct {
	From PeriodStatus
	To   PeriodStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition accounting period from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// IsClientError reports whether err is a caller mistake, never retryable.
func IsClientError(err error) bool {
	return errors.Is(err, ErrPeriodAlreadyClosed) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrPeriodGapTooLarge) ||
		errors.Is(err, ErrLockAlreadyReleased) ||
		errors.Is(err, ErrJustificationTooShort) ||
		errors.Is(err, ErrSelfApproval) ||
		errors.Is(err, ErrSameRole) ||
		errors.Is(err, ErrOverrideNotPending) ||
		errors.Is(err, ErrOverrideNotApproved) ||
		errors.Is(err, ErrOverrideAlreadyConsumed) ||
		errors.Is(err, ErrOverrideNotAllowedForPeriodLock)
}

// IsNotFound reports whether err indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPeriodNotFound) ||
		errors.Is(err, ErrLockNotFound) ||
		errors.Is(err, ErrOverrideNotFound)
}
