package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/janschaeferjohann/seriem-agent/config"
	"github.com/janschaeferjohann/seriem-agent/pkg/paths"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger returns the logger for a component, building it on first use.
// Level, caller reporting, format, and sinks come from the "logging" section
// of seriem.yml, overridable through SERIEM_LOG_LEVEL, SERIEM_LOG_CALLER,
// and SERIEM_DEBUG.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if entry, ok := loggers[component]; ok {
		return entry
	}

	cfg := loadLoggingConfig()

	logger := logrus.New()
	logger.SetLevel(resolveLevel(cfg))
	if cfg.ReportCaller || os.Getenv("SERIEM_LOG_CALLER") == "true" {
		logger.SetReportCaller(true)
	}
	logger.SetFormatter(formatterFor(cfg.Format))
	logger.SetOutput(buildSink(component, cfg, logger.GetLevel()))

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// loadLoggingConfig reads the optional "logging" extension of seriem.yml.
// A missing or malformed section falls back to zero-value defaults.
func loadLoggingConfig() Config {
	var lc Config
	cfg, err := config.LoadDefault()
	if err != nil {
		return lc
	}
	if err := cfg.UnmarshalExtension("logging", &lc); err != nil {
		logrus.Warnf("Failed to parse 'logging' config: %v", err)
	}
	return lc
}

func resolveLevel(cfg Config) logrus.Level {
	levelStr := cfg.Level
	if env := os.Getenv("SERIEM_LOG_LEVEL"); env != "" {
		levelStr = env
	}
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func formatterFor(fc FormatConfig) logrus.Formatter {
	switch fc.Preset {
	case "json":
		return &logrus.JSONFormatter{}
	case "simple":
		return &TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}}
	default:
		return &TextFormatter{Config: fc}
	}
}

// buildSink combines the file sink and stderr into one writer. With neither
// active the logger is silenced rather than defaulted to stderr, which keeps
// interactive CLI output clean.
func buildSink(component string, cfg Config, level logrus.Level) io.Writer {
	var writers []io.Writer
	if w := openLogFile(component, cfg); w != nil {
		writers = append(writers, w)
	}
	if stderrActive(cfg.Format.StructuredToStderr, level) {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		return io.Discard
	case 1:
		return writers[0]
	default:
		return io.MultiWriter(writers...)
	}
}

// openLogFile opens the component's file sink. The default location is the
// XDG state logs dir so the daemon's file is findable from any working
// directory; an explicit logging.file.path in config wins. Failures on the
// default path are silent; a path the operator configured warns.
func openLogFile(component string, cfg Config) io.Writer {
	path := LogFilePath(component)
	explicit := cfg.File.Enabled && cfg.File.Path != ""
	if explicit {
		path = expandHome(cfg.File.Path)
	}
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		if explicit {
			logrus.Warnf("Failed to create log directory %s: %v", filepath.Dir(path), err)
		}
		return nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		if explicit {
			logrus.Warnf("Failed to open log file %s: %v", path, err)
		}
		return nil
	}
	return file
}

// stderrActive decides whether structured logs also go to stderr. In "auto"
// mode they do when debugging or when stderr is not an interactive terminal
// (piped output, CI); interactive sessions stay quiet.
func stderrActive(mode string, level logrus.Level) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("SERIEM_DEBUG") == "1" || level == logrus.DebugLevel {
		return true
	}
	return !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())
}

// LogFilePath returns the default log file for a component on the current
// date. `seriem logs` locates the daemon's file through the same computation.
func LogFilePath(component string) string {
	dir := paths.LogsDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.log", component, time.Now().Format("2006-01-02")))
}

func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
