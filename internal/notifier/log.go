package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobalert/internal/model"
)

var _ model.Gateway = (*LogGateway)(nil)

// LogGateway writes alerts to the given logger. It is the default gateway and
// the one used in dry-run mode.
type LogGateway struct {
	logger *slog.Logger
}

func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

// Send logs the message. Stdout logging does not fail.
func (n *LogGateway) Send(_ context.Context, msg model.Message) error {
	args := []any{"title", msg.Title, "priority", msg.Priority}
	if msg.Device != "" {
		args = append(args, "device", msg.Device)
	}
	args = append(args, "body", msg.Body)
	n.logger.Info("job alert", args...)
	return nil
}
