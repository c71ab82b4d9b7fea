package goIdentity

import (
	"context"
	"strconv"
	"time"

	"github.com/MrEthical07/goIdentity/internal/audit"
)

// Audit event types emitted by the engine.
const (
	auditEventRegisterSuccess      = "register_success"
	auditEventRegisterFailed       = "register_failed"
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailed          = "login_failed"
	auditEventLogout               = "logout"
	auditEventLogoutAll            = "logout_all"
	auditEventPasswordChanged      = "password_changed"
	auditEventPasswordChangeFailed = "password_change_failed"
	auditEventSessionSweep         = "session_sweep"
)

// emitAudit forwards one event to the dispatcher. With auditing disabled the
// dispatcher is nil and this is free.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID, email, sessionID string,
	err error,
	metadata map[string]string,
) {
	if e.dispatcher == nil {
		return
	}

	event := audit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		SessionID: sessionID,
		IP:        clientIP(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		// Expose the error kind, not the raw message; messages can carry
		// backend details that do not belong in an audit trail.
		event.Error = KindOf(err).String()
	}

	e.dispatcher.Emit(ctx, event)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
