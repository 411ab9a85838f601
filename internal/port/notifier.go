package port

import "context"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier delivers user-facing announcements. Calls are fire-and-forget;
// the engine never inspects the outcome.
type Notifier interface {
	Notify(ctx context.Context, message string, severity Severity)
}
