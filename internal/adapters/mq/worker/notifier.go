package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/techmatch/internal/domain/model"
	"github.com/okian/techmatch/pkg/logger"
)

// Notifier delivers one match event.
type Notifier interface {
	Notify(ctx context.Context, ev model.MatchEvent) error
}

// NotificationSaver persists delivered notifications.
type NotificationSaver interface {
	SaveNotification(ctx context.Context, n model.Notification) error
}

// StoreNotifier records a notification addressed to the matched counterpart.
type StoreNotifier struct {
	store NotificationSaver
}

// NewStoreNotifier creates a StoreNotifier over store.
func NewStoreNotifier(store NotificationSaver) *StoreNotifier {
	return &StoreNotifier{store: store}
}

// Notify implements Notifier.
func (s *StoreNotifier) Notify(ctx context.Context, ev model.MatchEvent) error {
	n := model.Notification{
		ID:            uuid.NewString(),
		RecipientID:   ev.CounterpartID,
		EventID:       ev.ID,
		SubjectID:     ev.SubjectID,
		CounterpartID: ev.CounterpartID,
		Score:         ev.Score,
		CreatedAt:     ev.Timestamp,
	}
	if err := s.store.SaveNotification(ctx, n); err != nil {
		return fmt.Errorf("save notification for event %s: %w", ev.ID, err)
	}
	return nil
}

// LogNotifier writes each event to the log.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.Nop()
	}
	return &LogNotifier{log: l}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, ev model.MatchEvent) error {
	n.log.Info(ctx, "match found",
		logger.String("event_id", ev.ID),
		logger.String("subject_id", ev.SubjectID),
		logger.String("counterpart_id", ev.CounterpartID),
		logger.Float64("score", ev.Score),
	)
	return nil
}

// Fanout delivers to every notifier and joins their errors.
type Fanout []Notifier

// Notify implements Notifier.
func (f Fanout) Notify(ctx context.Context, ev model.MatchEvent) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
