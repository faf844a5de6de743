package pricing

import (
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
)

var apiKeyParam = regexp.MustCompile(`(api_key=)[^&\s"]+`)

// restyLogger routes resty's own messages through zerolog with API keys
// stripped from any request URL they contain.
type restyLogger struct {
	logger zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Msg(redactAPIKey(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Msg(redactAPIKey(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Msg(redactAPIKey(fmt.Sprintf(format, v...)))
}

func redactAPIKey(s string) string {
	return apiKeyParam.ReplaceAllString(s, "${1}REDACTED")
}
