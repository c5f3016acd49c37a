package mqtt

import (
	"fmt"
	"strings"

	"github.com/autopeer-io/canpub/pkg/log"
)

// pahoLogger implements paho's log.Logger on top of the project logger.
type pahoLogger struct {
	l log.Logger
}

func newPahoLogger(name string) pahoLogger {
	return pahoLogger{l: log.WithName(name)}
}

func (p pahoLogger) Println(v ...any) {
	p.l.Debug(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func (p pahoLogger) Printf(format string, v ...any) {
	p.l.Debug(strings.TrimSuffix(fmt.Sprintf(format, v...), "\n"))
}
