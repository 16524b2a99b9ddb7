package services

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSessionStore_SweepsIdleInstances(t *testing.T) {
	t.Parallel()

	clk := &clock{now: fixedNow()}
	store := NewSessionStore(time.Minute, clk.Now)

	idle := NewController(ControllerOptions{Definition: testDefinition(), Client: newFakeAPI()})
	active := NewController(ControllerOptions{Definition: testDefinition(), Client: newFakeAPI()})
	store.Put(idle)
	store.Put(active)

	clk.Advance(45 * time.Second)
	_, err := store.Get(active.InstanceID())
	require.NoError(t, err)
	clk.Advance(30 * time.Second)

	require.Equal(t, 1, store.Sweep())
	require.Equal(t, 1, store.Len())
	require.True(t, idle.Snapshot().Cancelled)

	_, err = store.Get(idle.InstanceID())
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(uuid.New())
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAsStepError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{err: ErrSessionNotFound, status: http.StatusNotFound, code: "STEPPER_SESSION_NOT_FOUND"},
		{err: ErrSubmitted, status: http.StatusConflict, code: "STEPPER_SUBMITTED"},
		{err: ErrForwardJump, status: http.StatusConflict, code: "STEPPER_FORWARD_JUMP"},
		{err: ErrUnknownStep, status: http.StatusBadRequest, code: "STEPPER_UNKNOWN_STEP"},
		{err: context.DeadlineExceeded, status: http.StatusGatewayTimeout, code: "STEPPER_TIMEOUT"},
		{err: http.ErrHandlerTimeout, status: http.StatusInternalServerError, code: "STEPPER_INTERNAL"},
	}
	for _, tc := range cases {
		se := AsStepError(tc.err)
		require.Equal(t, tc.status, se.Status, tc.err.Error())
		require.Equal(t, tc.code, se.Code)
	}

	own := newStepError(KindSave, http.StatusBadGateway, "X", 2, "boom", nil)
	require.Same(t, own, AsStepError(own))
	require.Nil(t, AsStepError(nil))
}
