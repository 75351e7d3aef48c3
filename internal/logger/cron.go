package logger

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CronLogger routes robfig/cron scheduler messages into zerolog.
// Info messages from the scheduler are noisy and logged at trace level.
type CronLogger struct {
	component string
}

// Cron returns a cron.Logger tagged with the given component name.
func Cron(component string) CronLogger {
	return CronLogger{component: component}
}

// Info implements cron.Logger.
func (c CronLogger) Info(msg string, keysAndValues ...any) {
	withPairs(log.Trace(), keysAndValues).Str("component", c.component).Msg(msg)
}

// Error implements cron.Logger.
func (c CronLogger) Error(err error, msg string, keysAndValues ...any) {
	withPairs(log.Error().Err(err), keysAndValues).Str("component", c.component).Msg(msg)
}

func withPairs(e *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}

	return e
}
