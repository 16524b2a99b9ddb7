package eventbus

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type stepSaved struct {
	step int
}

type submitted struct {
	requestID string
}

func newBufferedLogger(level logrus.Level) (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(level)
	return log, buf
}

func TestPublisher_PublishRoutesByType(t *testing.T) {
	t.Parallel()

	publisher := NewEventPublisher(nil)
	var saved []int
	publisher.Subscribe(func(e *stepSaved) { saved = append(saved, e.step) })
	publisher.Subscribe(func(e *submitted) { t.Error("should not be called") })

	publisher.Publish(&stepSaved{step: 2})
	require.Equal(t, []int{2}, saved)
}

func TestPublisher_NoSubscribersIsLogged(t *testing.T) {
	t.Parallel()

	log, buf := newBufferedLogger(logrus.DebugLevel)
	publisher := NewEventPublisher(log)
	publisher.Publish(&stepSaved{step: 1})
	require.Contains(t, buf.String(), "no matching subscribers")
}

func TestPublisher_Unsubscribe(t *testing.T) {
	t.Parallel()

	publisher := NewEventPublisher(nil)
	calls := 0
	unsubscribe := publisher.Subscribe(func(e *stepSaved) { calls++ })
	publisher.Subscribe(func(e *stepSaved) {})
	require.Equal(t, 2, publisher.SubscribersCount())

	unsubscribe()
	unsubscribe()
	require.Equal(t, 1, publisher.SubscribersCount())

	publisher.Publish(&stepSaved{})
	require.Zero(t, calls)

	publisher.Clear()
	require.Zero(t, publisher.SubscribersCount())
}

func TestMatchSignature(t *testing.T) {
	t.Parallel()

	require.True(t, MatchSignature(func(e *stepSaved) {}, []any{&stepSaved{}}))
	require.False(t, MatchSignature(func(e *stepSaved) {}, []any{&submitted{}}))
	require.False(t, MatchSignature(func(e *stepSaved) {}, []any{}))
	require.False(t, MatchSignature(func(e *stepSaved) {}, []any{&stepSaved{}, &stepSaved{}}))
	require.True(t, MatchSignature(func(ctx context.Context) {}, []any{context.Background()}))
	require.True(t, MatchSignature(func(e *stepSaved) {}, []any{nil}))
	require.False(t, MatchSignature(func(n int) {}, []any{nil}))
	require.False(t, MatchSignature("not a func", nil))
}

func TestPublisher_PanicRecovery(t *testing.T) {
	t.Parallel()

	log, buf := newBufferedLogger(logrus.ErrorLevel)
	publisher := NewEventPublisher(log)

	first, third := false, false
	publisher.Subscribe(func(e *stepSaved) { first = true })
	publisher.Subscribe(func(e *stepSaved) { panic("handler 2 panic") })
	publisher.Subscribe(func(e *stepSaved) { third = true })

	publisher.Publish(&stepSaved{step: 4})

	require.True(t, first)
	require.True(t, third)
	output := buf.String()
	require.True(t, strings.Contains(output, "panicked"), output)
	require.True(t, strings.Contains(output, "handler 2 panic"), output)
}

func TestPublisher_PublishE(t *testing.T) {
	t.Parallel()

	t.Run("no subscribers", func(t *testing.T) {
		err := NewEventPublisher(nil).PublishE(&stepSaved{})
		require.ErrorIs(t, err, ErrNoSubscribers)
	})

	t.Run("joined errors", func(t *testing.T) {
		publisher := NewEventPublisher(nil)
		err1 := errors.New("err1")
		err2 := errors.New("err2")
		publisher.Subscribe(func(e *stepSaved) error { return err1 })
		publisher.Subscribe(func(e *stepSaved) error { return err2 })

		err := publisher.PublishE(&stepSaved{})
		require.ErrorIs(t, err, err1)
		require.ErrorIs(t, err, err2)
	})

	t.Run("panic surfaces as error", func(t *testing.T) {
		publisher := NewEventPublisher(nil)
		called := false
		publisher.Subscribe(func(e *stepSaved) error { panic("boom") })
		publisher.Subscribe(func(e *stepSaved) error { called = true; return nil })

		require.Error(t, publisher.PublishE(&stepSaved{}))
		require.True(t, called)
	})

	t.Run("invalid return", func(t *testing.T) {
		publisher := NewEventPublisher(nil)
		publisher.Subscribe(func(e *stepSaved) int { return 1 })
		require.ErrorIs(t, publisher.PublishE(&stepSaved{}), ErrInvalidHandlerReturn)
	})
}
