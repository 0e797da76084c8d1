package log

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sashakt-platform/sashakt-ops/src/configs"
)

// New configures the global logrus logger from the config and returns it.
// Logs always go to stderr so command output stays clean on stdout; a
// per-run log file is added when the config asks for one.
func New(cfg *configs.Config) *logrus.Logger {
	logLevel := logrus.InfoLevel
	if cfg != nil && cfg.Debug {
		logLevel = logrus.DebugLevel
	}

	writers := []io.Writer{os.Stderr}
	if cfg != nil && cfg.Log.OutPutFolder != "" && cfg.Log.SaveEveryLog {
		runID := time.Now().Format("run-2006-01-02-15-04-05")
		logLocation := filepath.Join(cfg.Log.OutPutFolder, runID+".log")
		logFile, err := os.OpenFile(logLocation, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			logrus.Warnf("failed to open log file %s for output: %s", logLocation, err)
		} else {
			writers = append(writers, logFile)
		}
	}

	logrus.SetOutput(io.MultiWriter(writers...))
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if cfg != nil && cfg.Debug {
		logrus.SetReportCaller(true)
	}
	logrus.SetLevel(logLevel)

	return logrus.StandardLogger()
}
