package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.RWMutex
	global *logrus.Logger
)

// InitLogger builds the process logger. An empty level falls back to
// LOG_LEVEL, then to debug in development and info elsewhere. Production
// output is JSON; development output is text unless LOG_FORMAT=json.
func InitLogger(logLevel string, isDevelopment bool) *logrus.Logger {
	log := New(os.Stdout, logLevel, isDevelopment)

	mu.Lock()
	global = log
	mu.Unlock()

	return log
}

// New builds a configured logger writing to out without touching the global
func New(out io.Writer, logLevel string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
	}
	if logLevel == "" {
		logLevel = "info"
		if isDevelopment {
			logLevel = "debug"
		}
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", logLevel).Warn("Invalid LOG_LEVEL, using INFO")
	}

	if !isDevelopment || strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return log
}

// GetLogger returns the process logger, initializing it on first use
func GetLogger() *logrus.Logger {
	mu.RLock()
	log := global
	mu.RUnlock()

	if log == nil {
		return InitLogger("info", false)
	}
	return log
}

// WithService tags entries with the emitting service
func WithService(serviceName string) *logrus.Entry {
	return GetLogger().WithField("service", serviceName)
}

// WithGameContext tags entries with the game being simulated
func WithGameContext(gameID, homeTeam, awayTeam string) *logrus.Entry {
	fields := logrus.Fields{"game_id": gameID}
	if homeTeam != "" {
		fields["home_team"] = homeTeam
	}
	if awayTeam != "" {
		fields["away_team"] = awayTeam
	}
	return GetLogger().WithFields(fields)
}

// WithSlateContext tags entries with a slate run
func WithSlateContext(slateID string, games int) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"slate_id": slateID,
		"games":    games,
	})
}

// WithHTTPContext tags entries with HTTP request details
func WithHTTPContext(method, path, userAgent string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"http_method":     method,
		"http_path":       path,
		"http_user_agent": userAgent,
	})
}
