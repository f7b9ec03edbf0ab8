package handlers

import (
	"strings"

	plog "github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/levels"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/conspectus/conspectus/internal/common"
)

// logStreamBufferSize bounds the batch queue between arbor and the
// broadcast loop.
const logStreamBufferSize = 100

// defaultExcludePatterns keeps connection chatter out of the stream that
// the connection itself generates.
var defaultExcludePatterns = []string{
	"WebSocket client connected",
	"WebSocket client disconnected",
	"HTTP request",
	"HTTP response",
}

// LogStreamer consumes arbor log batches from a channel and broadcasts
// lines to WebSocket clients, filtered by level and message pattern.
// The channel is attached to the root logger with SetChannel.
type LogStreamer struct {
	handler         *WebSocketHandler
	logger          arbor.ILogger
	minLevel        levels.LogLevel
	excludePatterns []string
	ch              chan []arbormodels.LogEvent
	done            chan struct{}
}

// NewLogStreamer creates a log streamer for the given WebSocket handler.
func NewLogStreamer(handler *WebSocketHandler, wsConfig *common.WebSocketConfig, logger arbor.ILogger) *LogStreamer {
	minLevel := levels.InfoLevel
	excludePatterns := defaultExcludePatterns

	if wsConfig != nil {
		minLevel = parseLogLevel(wsConfig.MinLevel)
		if len(wsConfig.ExcludePatterns) > 0 {
			excludePatterns = wsConfig.ExcludePatterns
		}
	}

	return &LogStreamer{
		handler:         handler,
		logger:          logger,
		minLevel:        minLevel,
		excludePatterns: excludePatterns,
		ch:              make(chan []arbormodels.LogEvent, logStreamBufferSize),
		done:            make(chan struct{}),
	}
}

// Channel returns the batch channel to attach with logger.SetChannel.
func (s *LogStreamer) Channel() chan []arbormodels.LogEvent {
	return s.ch
}

// Start launches the broadcast loop.
func (s *LogStreamer) Start() {
	common.SafeGo(s.logger, "websocket-log-streamer", func() {
		for {
			select {
			case batch := <-s.ch:
				for _, entry := range batch {
					s.forward(entry)
				}
			case <-s.done:
				return
			}
		}
	})
}

// Close stops the broadcast loop. Batches still in flight are dropped.
func (s *LogStreamer) Close() error {
	close(s.done)
	return nil
}

func (s *LogStreamer) forward(entry arbormodels.LogEvent) {
	arborLevel := plogToArborLevel(entry.Level)
	if arborLevel < s.minLevel {
		return
	}

	for _, pattern := range s.excludePatterns {
		if strings.Contains(entry.Message, pattern) {
			return
		}
	}

	s.handler.BroadcastLog(LogEntry{
		Timestamp: entry.Timestamp.Format("15:04:05"),
		Level:     mapLevel(arborLevel),
		Message:   entry.Message,
	})
}

// plogToArborLevel converts phuslu/log.Level to arbor levels.LogLevel
func plogToArborLevel(level plog.Level) levels.LogLevel {
	switch level {
	case plog.ErrorLevel:
		return levels.ErrorLevel
	case plog.WarnLevel:
		return levels.WarnLevel
	case plog.InfoLevel:
		return levels.InfoLevel
	case plog.DebugLevel:
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// parseLogLevel converts string log level to arbor levels.LogLevel
func parseLogLevel(level string) levels.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return levels.ErrorLevel
	case "warn", "warning":
		return levels.WarnLevel
	case "info":
		return levels.InfoLevel
	case "debug":
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// mapLevel maps arbor log levels to UI strings
func mapLevel(level levels.LogLevel) string {
	switch level {
	case levels.ErrorLevel:
		return "error"
	case levels.WarnLevel:
		return "warn"
	case levels.InfoLevel:
		return "info"
	case levels.DebugLevel:
		return "debug"
	default:
		return "info"
	}
}
