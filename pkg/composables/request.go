package composables

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-playground/form"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/onboarding/pkg/constants"
	"github.com/iota-uz/onboarding/pkg/logging"
)

// OwnerHeader names the caller whose drafts a request works on. It is set by
// the gateway in front of the service.
const OwnerHeader = "X-User-ID"

var queryDecoder = form.NewDecoder()

// UseLogger returns the request scoped logger, or a discarding one outside
// a request.
func UseLogger(ctx context.Context) *logrus.Entry {
	switch l := ctx.Value(constants.LoggerKey).(type) {
	case *logrus.Entry:
		return l
	case *logrus.Logger:
		return logrus.NewEntry(l)
	default:
		return logging.Nop()
	}
}

func UseRequestID(ctx context.Context) string {
	id, _ := ctx.Value(constants.RequestIDKey).(string)
	return id
}

// UseOwner returns the draft owner of the request, "" when anonymous.
func UseOwner(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(OwnerHeader))
}

// UseQuery decodes the query string into v using `form` tags.
func UseQuery[T any](v *T, r *http.Request) error {
	return queryDecoder.Decode(v, r.URL.Query())
}
