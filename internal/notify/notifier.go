package notify

import (
	"context"

	"go.uber.org/zap"

	"ai-spm/internal/domain"
)

// Notifier es el canal de avisos visibles para el usuario. Fire-and-forget: no devuelve error.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type disabledNotifier struct{}

// NewDisabledNotifier descarta todos los avisos.
func NewDisabledNotifier() Notifier {
	return disabledNotifier{}
}

func (disabledNotifier) Notify(context.Context, domain.Notification) {}

// LogNotifier escribe cada aviso en el log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg domain.Notification) {
	fields := []zap.Field{
		zap.String("title", msg.Title),
		zap.String("description", msg.Description),
		zap.String("variant", string(msg.Variant)),
	}
	if msg.Variant == domain.VariantDestructive {
		n.logger.Warn("notification", fields...)
		return
	}
	n.logger.Info("notification", fields...)
}

type multiNotifier []Notifier

// Multi reenvia cada aviso a todos los notifiers no nulos.
func Multi(notifiers ...Notifier) Notifier {
	out := make(multiNotifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (m multiNotifier) Notify(ctx context.Context, n domain.Notification) {
	for _, target := range m {
		target.Notify(ctx, n)
	}
}
