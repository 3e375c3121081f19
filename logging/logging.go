package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	console     = newConsoleLogger(os.Stdout, os.Stderr)
	debugLogger *logrus.Logger
	logFile     *os.File
	debugMode   bool
	mu          sync.Mutex
	isSetup     bool
)

// consoleFormatter prints the human-readable progress lines. Info lines are
// printed bare; warnings and errors carry their level.
type consoleFormatter struct{}

func (consoleFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	switch e.Level {
	case logrus.InfoLevel:
	case logrus.WarnLevel:
		b.WriteString("Warning: ")
	case logrus.FatalLevel, logrus.PanicLevel:
		b.WriteString("Fatal error: ")
	default:
		b.WriteString("Error: ")
	}
	b.WriteString(e.Message)
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// levelSplitter sends error entries to errOut and everything else to out.
type levelSplitter struct {
	out    io.Writer
	errOut io.Writer
}

func (s *levelSplitter) Levels() []logrus.Level { return logrus.AllLevels }

func (s *levelSplitter) Fire(e *logrus.Entry) error {
	line, err := e.Logger.Formatter.Format(e)
	if err != nil {
		return err
	}
	w := s.out
	if e.Level <= logrus.ErrorLevel {
		w = s.errOut
	}
	_, err = w.Write(line)
	return err
}

func newConsoleLogger(out, errOut io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(consoleFormatter{})
	l.SetLevel(logrus.InfoLevel)
	l.AddHook(&levelSplitter{out: out, errOut: errOut})
	return l
}

// SetOutput redirects console output. Both streams may be the same writer.
func SetOutput(out, errOut io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	console = newConsoleLogger(out, errOut)
}

// SetupLogger opens the debug log file and turns on debug output
func SetupLogger(logFilePath string) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	debugLogger = logrus.New()
	debugLogger.SetOutput(logFile)
	debugLogger.SetLevel(logrus.DebugLevel)
	debugLogger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	debugLogger.Infof("--- imagevariants debug log started at %s ---", time.Now().Format(time.RFC3339))

	debugMode = true
	isSetup = true
	return nil
}

// CloseLogger closes the log file
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		debugLogger.Infof("--- imagevariants debug log closed at %s ---", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
		debugLogger = nil
		isSetup = false
	}
	debugMode = false
}

// LogInfo logs a progress line to the console and the debug log
func LogInfo(format string, args ...interface{}) {
	logAt(logrus.InfoLevel, nil, format, args...)
}

// LogWarning logs a warning
func LogWarning(format string, args ...interface{}) {
	logAt(logrus.WarnLevel, nil, format, args...)
}

// LogError logs an error to stderr and the debug log
func LogError(format string, args ...interface{}) {
	logAt(logrus.ErrorLevel, nil, format, args...)
}

// LogFatal logs the error that ends the run. It does not exit; the caller
// decides the exit code after closing the log file.
func LogFatal(format string, args ...interface{}) {
	logAt(logrus.FatalLevel, nil, format, args...)
}

// DebugLog writes to the debug log file only
func DebugLog(format string, args ...interface{}) {
	logAt(logrus.DebugLevel, nil, format, args...)
}

// WithFields logs an info line with structured fields. The console shows the
// message only; the debug log records the fields too.
func WithFields(fields map[string]interface{}, format string, args ...interface{}) {
	logAt(logrus.InfoLevel, fields, format, args...)
}

// LogImageProcessed records the outcome for one source image
func LogImageProcessed(path string, success bool, errMsg string) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger == nil {
		return
	}
	if success {
		debugLogger.WithField("path", path).Info("PROCESSED")
	} else {
		debugLogger.WithFields(logrus.Fields{"path": path, "error": errMsg}).Error("FAILED")
	}
}

// IsDebug reports whether debug logging is enabled
func IsDebug() bool {
	mu.Lock()
	defer mu.Unlock()
	return debugMode
}

func logAt(level logrus.Level, fields map[string]interface{}, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	console.Log(level, msg)

	if debugLogger != nil {
		entry := logrus.NewEntry(debugLogger)
		if len(fields) > 0 {
			entry = entry.WithFields(logrus.Fields(fields))
		}
		entry.Log(level, msg)
	}
}
