package storage

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

var _ ports.ActivityLogger = (*ActivityLog)(nil)

// ActivityLog writes activity entries to the activity_logs table and mirrors
// them to the structured logger. Write failures are logged and dropped.
type ActivityLog struct {
	store  *Store
	logger *zap.Logger
}

// NewActivityLog builds an activity log backed by store.
func NewActivityLog(store *Store, logger *zap.Logger) *ActivityLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityLog{store: store, logger: logger.With(zap.String("component", "activity"))}
}

// Log records one entry.
func (l *ActivityLog) Log(ctx context.Context, entry domain.ActivityEntry) {
	at := entry.At
	if at.IsZero() {
		at = l.store.now()
	}
	fields := []zap.Field{zap.String("kind", string(entry.Kind)), zap.Any("payload", entry.Payload)}
	if entry.Kind == domain.ActivityError {
		l.logger.Warn(entry.Message, fields...)
	} else {
		l.logger.Info(entry.Message, fields...)
	}

	payload := entry.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		l.logger.Warn("marshal activity payload", zap.Error(err))
		raw = []byte("{}")
	}

	insert := l.store.sb.Insert("activity_logs").
		Columns("id", "kind", "message", "payload", "created_at").
		Values(uuid.NewString(), string(entry.Kind), entry.Message, string(raw), at.UTC())
	if _, err := l.store.exec(ctx, l.store.db, insert); err != nil {
		l.logger.Warn("write activity log", zap.Error(err))
	}
}

// Recent returns the newest entries, newest first.
func (l *ActivityLog) Recent(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	rows, err := l.store.query(ctx, l.store.db, l.store.sb.Select("kind", "message", "payload", "created_at").
		From("activity_logs").
		OrderBy("created_at DESC").
		Limit(uint64(limit)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActivityEntry
	for rows.Next() {
		var (
			e          domain.ActivityEntry
			kind, body string
		)
		if err := rows.Scan(&kind, &e.Message, &body, &e.At); err != nil {
			return nil, err
		}
		e.Kind = domain.ActivityKind(kind)
		if err := json.Unmarshal([]byte(body), &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
