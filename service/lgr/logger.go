package lgr

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mdobak/go-xerrors"
	"github.com/natefinch/lumberjack"
)

// Logger is the process-wide logger. Dev runs get a colored console handler,
// everything else logs JSON.
var Logger = New(os.Stdout, isDev())

type stackFrame struct {
	Func   string `json:"func"`
	Source string `json:"source"`
	Line   int    `json:"line"`
}

func isDev() bool {
	env := os.Getenv("RUN_TIME_ENV")
	return env == "" || env == "dev"
}

// New builds a logger writing to w.
func New(w io.Writer, pretty bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level(),
		ReplaceAttr: replaceAttr,
	}

	if pretty {
		return slog.New(newPrettyHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ToFile tees the logger into a rotating JSON log file.
func ToFile(filename string) {
	if filename == "" {
		return
	}

	_ = os.MkdirAll(filepath.Dir(filename), 0755)
	rotator := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     7,    // days
		Compress:   true, // compress old logs
	}

	opts := &slog.HandlerOptions{
		Level:       level(),
		ReplaceAttr: replaceAttr,
	}

	Logger = slog.New(&teeHandler{
		handlers: []slog.Handler{
			Logger.Handler(),
			slog.NewJSONHandler(rotator, opts),
		},
	})
}

func level() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindAny {
		return a
	}

	if err, ok := a.Value.Any().(error); ok {
		a.Value = fmtErr(err)
	}
	return a
}

func fmtErr(err error) slog.Value {
	var groupValues []slog.Attr

	groupValues = append(groupValues, slog.String("msg", err.Error()))

	frames := marshalStack(err)
	if frames != nil {
		groupValues = append(groupValues, slog.Any("trace", frames))
	}

	return slog.GroupValue(groupValues...)
}

func marshalStack(err error) []stackFrame {
	trace := xerrors.StackTrace(err)
	if len(trace) == 0 {
		return nil
	}

	frames := trace.Frames()
	s := make([]stackFrame, len(frames))
	for i, v := range frames {
		s[i] = stackFrame{
			Source: filepath.Join(filepath.Base(filepath.Dir(v.File)), filepath.Base(v.File)),
			Func:   filepath.Base(v.Function),
			Line:   v.Line,
		}
	}

	return s
}
