package otp

import (
	"context"

	"github.com/dmaguire/rampart/internal/common"
)

// LogSender writes codes to the application log instead of sending mail.
// Used in development and tests; production wires a real mail transport.
type LogSender struct {
	logger *common.Logger
}

// NewLogSender creates a log-backed code sender.
func NewLogSender(logger *common.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendCode(ctx context.Context, email, code, purpose string) error {
	s.logger.Info().
		Str("email", email).
		Str("purpose", purpose).
		Str("code", code).
		Msg("one-time code (log delivery)")
	return nil
}
