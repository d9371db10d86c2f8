package enforce

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated indicates a missing, malformed, or expired bearer token.
var ErrUnauthenticated = errors.New("enforce: unauthenticated")

// ErrIllegalRequest indicates a menu-binding token minted for a different
// screen than the controller being invoked.
var ErrIllegalRequest = errors.New("enforce: illegal request")

// ForbiddenError indicates the capability matching the requested action is
// missing or outside its availability window.
type ForbiddenError struct {
	Action Action
}

// Error returns the denied action.
func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("enforce: %s forbidden", e.Action)
}
