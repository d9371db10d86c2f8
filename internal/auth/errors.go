package auth

import "fmt"

// AuthErrorKind enumerates authentication failure categories.
type AuthErrorKind int

const (
	// InvalidCredentials covers unknown accounts and wrong secrets alike.
	InvalidCredentials AuthErrorKind = iota
	// AccountLocked marks an account past the failed-attempt threshold.
	AccountLocked
	// AccountDisabled marks an explicitly disabled account.
	AccountDisabled
	// AccountDeleted marks a soft-deleted account.
	AccountDeleted
	// NotYetActive marks an account before its validity window.
	NotYetActive
	// Expired marks an account past its validity window.
	Expired
)

// AuthError is the tagged failure returned by Authenticate. It is terminal
// for the request and never retried automatically.
type AuthError struct {
	Kind AuthErrorKind
	// AttemptsRemaining is the number of attempts left before lockout.
	// Negative when not applicable (unknown account, non-counter failures).
	AttemptsRemaining int
}

// Error returns a user-facing reason. Unknown accounts and wrong secrets
// share one message so responses do not leak which one occurred.
func (e *AuthError) Error() string {
	switch e.Kind {
	case AccountLocked:
		return "account locked after repeated failures"
	case AccountDisabled:
		return "account disabled"
	case AccountDeleted:
		return "account deleted"
	case NotYetActive:
		return "account not yet active"
	case Expired:
		return "account validity expired"
	default:
		return "invalid account or password"
	}
}

// PolicyErrorKind enumerates password policy violations.
type PolicyErrorKind int

const (
	// TooShort marks a candidate shorter than the minimum length.
	TooShort PolicyErrorKind = iota
	// TooLong marks a candidate longer than the maximum length.
	TooLong
	// MissingClassOfChar marks a candidate missing a letter or a digit.
	MissingClassOfChar
	// MatchesAccountID marks a candidate equal to the account id.
	MatchesAccountID
	// MatchesHistory marks a candidate equal to a recent password.
	MatchesHistory
)

// PolicyError is the tagged failure returned by password validation.
type PolicyError struct {
	Kind PolicyErrorKind
	Min  int // Configured minimum length, set for length violations.
	Max  int // Configured maximum length, set for length violations.
}

// Error returns a user-facing reason for the policy violation.
func (e *PolicyError) Error() string {
	switch e.Kind {
	case TooShort:
		return fmt.Sprintf("password must be at least %d characters", e.Min)
	case TooLong:
		return fmt.Sprintf("password must be %d to %d characters", e.Min, e.Max)
	case MissingClassOfChar:
		return "password must contain at least one letter and one digit"
	case MatchesAccountID:
		return "password must not equal the account id"
	case MatchesHistory:
		return "password must differ from the last three passwords"
	default:
		return "password rejected by policy"
	}
}
