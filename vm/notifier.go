package vm

import (
	"context"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/thesecretlab-dev/multitoken/actions"
)

// Notifier delivers receive notifications to their recipient. It is called
// once the call that produced the notification has been committed.
type Notifier interface {
	Notify(ctx context.Context, n *actions.ReceiveNotification) error
}

var _ Notifier = LogNotifier{}

// LogNotifier only records notifications in the log.
type LogNotifier struct {
	Log logging.Logger
}

func (l LogNotifier) Notify(_ context.Context, n *actions.ReceiveNotification) error {
	l.Log.Info("receive notification",
		zap.Stringer("recipient", n.Recipient),
		zap.Stringer("operator", n.Operator),
		zap.Stringer("from", n.From),
		zap.Uint64("id", n.ID),
		zap.Uint64("amount", n.Amount),
		zap.Binary("msg", n.Msg),
	)
	return nil
}
