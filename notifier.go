package goCare

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Notifier presents a request failure to the user before the gateway returns it.
// Implementations must not block for long; the caller is waiting on the request.
type Notifier interface {
	Notify(ctx context.Context, failure *RequestFailure)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, failure *RequestFailure)

func (f NotifierFunc) Notify(ctx context.Context, failure *RequestFailure) {
	f(ctx, failure)
}

type logNotifier struct {
	logger logrus.FieldLogger
}

func (n logNotifier) Notify(_ context.Context, failure *RequestFailure) {
	n.logger.WithField("status", failure.StatusCode).Error(failure.Message)
}
