package phoneauth

import (
	"context"
	"io"
	"strconv"

	"github.com/aungsithu-dev/phoneauth/internal/audit"
	"github.com/google/uuid"
)

// Audit action names, one per engine operation plus the reuse alarm.
const (
	ActionOtpRequest      = "otp.request"
	ActionOtpVerify       = "otp.verify"
	ActionPasswordConfirm = "password.confirm"
	ActionLogin           = "login"
	ActionLogout          = "logout"
	ActionPasswordForgot  = "password.forgot"
	ActionOtpVerifyReset  = "otp.verify_reset"
	ActionPasswordReset   = "password.reset"
	ActionSessionRefresh  = "session.refresh"
	ActionSessionReuse    = "session.reuse"
)

// AuditEvent is a single audit record emitted by the engine.
type AuditEvent = audit.Event

// AuditSink receives emitted audit events.
type AuditSink = audit.Sink

// NewChannelAuditSink returns a sink that buffers events in a channel,
// readable through its Events method. Useful for tests and in-process
// consumers.
func NewChannelAuditSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONAuditSink returns a sink that writes one JSON object per line
// to w.
func NewJSONAuditSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

func (e *Engine) emitAudit(ctx context.Context, action string, userID int64, phone string, opErr error) {
	if e.audit == nil {
		return
	}

	event := audit.Event{
		ID:        uuid.NewString(),
		Timestamp: e.now(),
		Action:    action,
		Phone:     phone,
		IP:        clientIPFromContext(ctx),
		Success:   opErr == nil,
	}
	if userID != 0 {
		event.UserID = strconv.FormatInt(userID, 10)
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}

	e.audit.Emit(ctx, event)
}
