package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Log writes notifications to the log instead of delivering them. It stands
// in when no Telegram token is configured, e.g. in local development.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) NotifyOwner(_ context.Context, ownerID int64, message string) error {
	l.log.Info().Int64("owner_id", ownerID).Str("message", message).Msg("owner notification")
	return nil
}

func (l *Log) NotifyOperators(_ context.Context, message string) error {
	l.log.Info().Str("message", message).Msg("operator notification")
	return nil
}
