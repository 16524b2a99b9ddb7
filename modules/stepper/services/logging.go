package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/onboarding/pkg/constants"
)

func loggerFromContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return nil
	}
	v := ctx.Value(constants.LoggerKey)
	switch typed := v.(type) {
	case *logrus.Entry:
		return typed
	case *logrus.Logger:
		return logrus.NewEntry(typed)
	default:
		return nil
	}
}

// logWithFields logs through the request logger when there is one and the
// fallback otherwise.
func logWithFields(ctx context.Context, fallback *logrus.Entry, level logrus.Level, msg string, fields logrus.Fields) {
	logger := loggerFromContext(ctx)
	if logger == nil {
		logger = fallback
	}
	if logger == nil {
		return
	}
	logger.WithFields(fields).Log(level, msg)
}
