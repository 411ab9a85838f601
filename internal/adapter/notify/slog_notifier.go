package notify

import (
	"context"
	"log/slog"

	"github.com/fentiaanyun/auction-game/internal/port"
)

var _ port.Notifier = (*SlogNotifier)(nil)

// SlogNotifier writes announcements to the process log. Nothing inspects
// delivery; severity just picks the level.
type SlogNotifier struct{}

func NewSlogNotifier() *SlogNotifier {
	return &SlogNotifier{}
}

func (n *SlogNotifier) Notify(ctx context.Context, message string, severity port.Severity) {
	switch severity {
	case port.SeverityWarning:
		slog.Warn(message)
	case port.SeverityError:
		slog.Error(message)
	default:
		slog.Info(message)
	}
}
