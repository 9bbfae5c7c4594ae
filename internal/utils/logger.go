package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const standardErrorSink = "stderr"

// NewApplicationLogger constructs a zap logger configured for human-readable console output.
// Every sink points at stderr because stdout carries the MCP stdio stream.
func NewApplicationLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.OutputPaths = []string{standardErrorSink}
	config.ErrorOutputPaths = []string{standardErrorSink}
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.NameKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""
	return config.Build()
}
