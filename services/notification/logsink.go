package notification

import (
	"fmt"

	"museum-ticketing/logger"
)

// LogSink writes events to the application log. Used when no broker is
// configured and as the default in development.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Publish(event Event) error {
	logger.Info(fmt.Sprintf("notification: %s order=%s tickets=%v reason=%q",
		event.Type, event.OrderCode, event.TicketCodes, event.Reason))
	return nil
}
