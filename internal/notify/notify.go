package notify

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LockoutReason is the reason code attached to lockout notifications.
const LockoutReason = "account-locked"

// AdminNotifier records administrator notifications. Actual delivery
// (mail, messenger) is handled by an external collaborator; this
// implementation emits a structured log entry so operators can wire a
// shipper onto it.
type AdminNotifier struct{}

// NewAdminNotifier constructs an AdminNotifier.
func NewAdminNotifier() *AdminNotifier {
	return &AdminNotifier{}
}

// NotifyLockout records that an account was locked out.
func (n *AdminNotifier) NotifyLockout(_ context.Context, accountPNO string) error {
	log.WithFields(log.Fields{
		"pno":    accountPNO,
		"reason": LockoutReason,
	}).Warn("notify: account locked, administrator attention required")
	return nil
}
