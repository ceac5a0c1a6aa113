package logger

import (
	"go.uber.org/zap"
)

// New returns a console logger in development and a JSON production logger otherwise.
func New(development bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
