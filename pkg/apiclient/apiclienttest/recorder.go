// Package apiclienttest provides an in-memory apiclient.Client for wizard
// tests.
package apiclienttest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/iota-uz/onboarding/pkg/apiclient"
)

// Call is one recorded request. Body is the JSON the client would have sent.
type Call struct {
	Method string
	Path   string
	Body   json.RawMessage
}

// Recorder answers GETs from canned responses, assigns increasing ids to
// POSTs and records every call. A call with a cancelled context fails
// unrecorded, as it would never leave a real client.
type Recorder struct {
	mu        sync.Mutex
	calls     []Call
	responses map[string]json.RawMessage
	failures  map[string]*apiclient.Error
	nextID    int64
}

var _ apiclient.Client = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{
		responses: map[string]json.RawMessage{},
		failures:  map[string]*apiclient.Error{},
		nextID:    100,
	}
}

// Respond sets the body returned for GET path. path includes the query.
func (r *Recorder) Respond(path string, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[path] = raw
}

// Fail makes every call whose "METHOD path" starts with prefix fail.
func (r *Recorder) Fail(prefix string, status int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[prefix] = &apiclient.Error{Status: status, Message: message}
}

func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Find returns the recorded calls whose "METHOD path" starts with prefix.
func (r *Recorder) Find(prefix string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if strings.HasPrefix(c.Method+" "+c.Path, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Recorder) record(ctx context.Context, method, path string, body any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var raw json.RawMessage
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		raw = b
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: method, Path: path, Body: raw})
	key := method + " " + path
	for prefix, e := range r.failures {
		if strings.HasPrefix(key, prefix) {
			failure := *e
			failure.Method, failure.Path = method, path
			return &failure
		}
	}
	return nil
}

func decode(raw json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (r *Recorder) Get(ctx context.Context, path string, out any) error {
	if err := r.record(ctx, http.MethodGet, path, nil); err != nil {
		return err
	}
	r.mu.Lock()
	raw, ok := r.responses[path]
	r.mu.Unlock()
	if !ok {
		if strings.Contains(path, "?") {
			return decode(json.RawMessage("[]"), out)
		}
		return &apiclient.Error{Status: http.StatusNotFound, Method: http.MethodGet, Path: path}
	}
	return decode(raw, out)
}

func (r *Recorder) Post(ctx context.Context, path string, body, out any) error {
	if err := r.record(ctx, http.MethodPost, path, body); err != nil {
		return err
	}
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.mu.Unlock()
	raw, _ := json.Marshal(map[string]int64{"id": id})
	return decode(raw, out)
}

func (r *Recorder) Put(ctx context.Context, path string, body, out any) error {
	if err := r.record(ctx, http.MethodPut, path, body); err != nil {
		return err
	}
	return decode(json.RawMessage("{}"), out)
}

func (r *Recorder) Delete(ctx context.Context, path string) error {
	return r.record(ctx, http.MethodDelete, path, nil)
}
