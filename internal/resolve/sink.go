package resolve

// Level classifies sink lines for display.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return "unknown"
}

// Sink receives log lines and progress text from a run. Implementations
// must be safe to call from the goroutine executing the run.
type Sink interface {
	Log(level Level, msg string)
	Progress(msg string)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Log(Level, string) {}
func (NopSink) Progress(string)   {}
