package consumer

import (
	"context"
	"encoding/json"
	"go-timetrack/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Notifier receives resolved correction events. The concrete delivery
// channel (email, chat) lives outside this service; the default
// implementation only logs.
type Notifier interface {
	NotifyCorrectionResolved(ctx context.Context, event events.CorrectionResolvedEvent) error
}

type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) NotifyCorrectionResolved(_ context.Context, event events.CorrectionResolvedEvent) error {
	n.Logger.Named("notify").Info("correction resolved",
		zap.String("request_id", event.RequestID),
		zap.String("employee_id", event.EmployeeID),
		zap.String("status", event.Status),
		zap.String("request_date", event.RequestDate),
	)
	return nil
}

func ConsumeCorrectionResolved(
	ctx context.Context,
	reader *kafkago.Reader,
	notifier Notifier,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.correction_resolved")
	log.Info("correction resolved consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("correction resolved consumer stopped")
				return
			}
			log.Error("fetch correction resolved message failed", zap.Error(err))
			continue
		}

		var event events.CorrectionResolvedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode correction resolved event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := notifier.NotifyCorrectionResolved(ctx, event); err != nil {
			log.Error("notify correction resolved failed",
				zap.String("request_id", event.RequestID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit correction resolved message failed", zap.Error(err))
		}
	}
}
