package patch

import (
	"github.com/tliron/commonlog"
	"go.uber.org/zap"
)

// Sink receives diagnostics when a cursor is built. Each call carries one
// line of text. Sinks shared by RunBatch must be safe for concurrent use.
type Sink interface {
	Warning(line string)
	Notice(line string)
}

// CommonlogSink forwards diagnostics to a commonlog logger. Output only
// appears once the program has installed a commonlog backend.
type CommonlogSink struct {
	Log commonlog.Logger
}

// NewCommonlogSink returns a sink writing to the named commonlog logger.
func NewCommonlogSink(name string) *CommonlogSink {
	return &CommonlogSink{Log: commonlog.GetLogger(name)}
}

func (s *CommonlogSink) Warning(line string) { s.Log.Warning(line) }
func (s *CommonlogSink) Notice(line string)  { s.Log.Notice(line) }

// ZapSink forwards diagnostics to a zap logger.
type ZapSink struct {
	Log *zap.Logger
}

// NewZapSink returns a sink writing to log.
func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{Log: log}
}

func (s *ZapSink) Warning(line string) { s.Log.Warn(line) }
func (s *ZapSink) Notice(line string)  { s.Log.Info(line) }

// Discard drops every diagnostic.
var Discard Sink = discard{}

type discard struct{}

func (discard) Warning(string) {}
func (discard) Notice(string)  {}

func defaultSink() Sink {
	return NewCommonlogSink("bytepatch")
}
