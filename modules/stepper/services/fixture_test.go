package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
	"github.com/iota-uz/onboarding/modules/stepper/domain/step"
	"github.com/iota-uz/onboarding/pkg/apiclient"
)

// fakeAPI is an in-memory REST backend: POST creates, PUT replaces, GET
// reads by id or lists by "<field>.equals", DELETE /soft/{id} removes.
type fakeAPI struct {
	mu     sync.Mutex
	nextID int64
	store  map[string]map[int64]map[string]any
	calls  []string
	fail   map[string]error
	// block, when set, holds every GET until closed.
	block chan struct{}
	// holdPost, when set, holds every POST until closed; each held POST
	// is announced on postHeld first.
	holdPost chan struct{}
	postHeld chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextID: 100, store: map[string]map[int64]map[string]any{}, fail: map[string]error{}}
}

func (f *fakeAPI) failOn(method, resource string, status int, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method+" "+resource] = &apiclient.Error{Status: status, Method: method, Path: resource, Message: msg}
}

func (f *fakeAPI) seed(resource string, id int64, body map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.store[resource] == nil {
		f.store[resource] = map[int64]map[string]any{}
	}
	body["id"] = float64(id)
	f.store[resource][id] = body
}

func (f *fakeAPI) item(resource string, id int64) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[resource][id]
}

func (f *fakeAPI) count(resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.store[resource])
}

func (f *fakeAPI) callCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// split turns "/plan/soft/3?x=1" into ("/plan", "soft", 3, query).
func split(path string) (resource string, soft bool, id int64, filter [2]string) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		q := path[i+1:]
		path = path[:i]
		if k, v, ok := strings.Cut(q, "="); ok {
			filter = [2]string{strings.TrimSuffix(k, ".equals"), v}
		}
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	resource = "/" + parts[0]
	if len(parts) > 1 && parts[1] == "soft" {
		soft = true
		parts = append(parts[:1], parts[2:]...)
	}
	if len(parts) > 1 {
		id, _ = strconv.ParseInt(parts[1], 10, 64)
	}
	return resource, soft, id, filter
}

func (f *fakeAPI) enter(method, path string) (string, error) {
	resource, _, _, _ := split(path)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method+" "+path)
	if err, ok := f.fail[method+" "+resource]; ok {
		return resource, err
	}
	return resource, nil
}

func decodeInto(v any, out any) error {
	if out == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func toMap(body any) map[string]any {
	m := map[string]any{}
	data, _ := json.Marshal(body)
	_ = json.Unmarshal(data, &m)
	return m
}

func (f *fakeAPI) Get(ctx context.Context, path string, out any) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if _, err := f.enter(http.MethodGet, path); err != nil {
		return err
	}
	resource, _, id, filter := split(path)
	f.mu.Lock()
	defer f.mu.Unlock()
	if filter[0] != "" {
		ids := make([]int64, 0)
		for itemID, item := range f.store[resource] {
			if fmt.Sprint(item[filter[0]]) == filter[1] {
				ids = append(ids, itemID)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		items := make([]map[string]any, 0, len(ids))
		for _, itemID := range ids {
			items = append(items, f.store[resource][itemID])
		}
		return decodeInto(items, out)
	}
	item, ok := f.store[resource][id]
	if !ok {
		return &apiclient.Error{Status: http.StatusNotFound, Method: http.MethodGet, Path: path}
	}
	return decodeInto(item, out)
}

func (f *fakeAPI) Post(ctx context.Context, path string, body, out any) error {
	if f.holdPost != nil {
		f.postHeld <- struct{}{}
		select {
		case <-f.holdPost:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	resource, err := f.enter(http.MethodPost, path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	if f.store[resource] == nil {
		f.store[resource] = map[int64]map[string]any{}
	}
	m := toMap(body)
	m["id"] = float64(id)
	f.store[resource][id] = m
	f.mu.Unlock()
	return decodeInto(map[string]any{"id": id}, out)
}

func (f *fakeAPI) Put(_ context.Context, path string, body, out any) error {
	if _, err := f.enter(http.MethodPut, path); err != nil {
		return err
	}
	resource, _, id, _ := split(path)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.store[resource][id]; !ok {
		return &apiclient.Error{Status: http.StatusNotFound, Method: http.MethodPut, Path: path}
	}
	m := toMap(body)
	m["id"] = float64(id)
	f.store[resource][id] = m
	return nil
}

func (f *fakeAPI) Delete(_ context.Context, path string) error {
	if _, err := f.enter(http.MethodDelete, path); err != nil {
		return err
	}
	resource, _, id, _ := split(path)
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.store[resource], id)
	return nil
}

const (
	kindPartner entity.Kind = "partner"
	kindUnit    entity.Kind = "unit"
	kindBooking entity.Kind = "booking"
	kindPlan    entity.Kind = "payment-plan"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }

func buildFields(parentField string, parent entity.Kind, fields ...string) step.BuildFunc {
	return func(rec record.Record, _ refdata.Catalog, ids entity.IDs) (any, bool) {
		body := map[string]any{}
		for _, f := range fields {
			if record.Truthy(rec[f]) {
				body[f] = rec[f]
			}
		}
		if len(body) == 0 {
			return nil, true
		}
		if id, ok := ids.Get(parent); ok && parentField != "" {
			body[parentField] = id
		}
		return body, false
	}
}

func decodeFields(fields ...string) step.DecodeFunc {
	return func(raw json.RawMessage, _ refdata.Catalog) (record.Record, int64, error) {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, 0, err
		}
		out := record.Record{}
		for _, f := range fields {
			if v, ok := m[f]; ok {
				out[f] = v
			}
		}
		id, _ := record.Int64Of(m["id"])
		return out, id, nil
	}
}

// testDefinition is a four step wizard: partner details, unit with an
// optional booking, payment plan rows, review.
func testDefinition() *step.Definition {
	return &step.Definition{
		Name:      "partner",
		Label:     "Partner",
		BasePath:  "/partners",
		RootKind:  kindPartner,
		Sanitizer: record.NewSanitizer([]record.Default{{Field: "partnerType", Value: "INDIVIDUAL"}, {Field: "bookingDate", Today: true}}, fixedNow),
		Workflow:  step.Workflow{ReferenceType: "PARTNER", ModuleName: "partner", Action: "CREATE"},
		Steps: []step.Step{
			{
				Descriptor: step.Descriptor{
					Index: 0, Key: "details", Label: "Details",
					RequiresValidation: true, Saves: true,
					Owns:       []entity.Kind{kindPartner},
					Fields:     []string{"name", "partnerType", "share"},
					Required:   []string{"name"},
					Percentage: []string{"share"},
					Labels:     map[string]string{"name": "Name", "share": "Share"},
				},
				Entities: []step.Entity{{
					Kind:     kindPartner,
					Resource: apiclient.Resource{Path: "/partner"},
					Build:    buildFields("", "", "name", "partnerType", "share"),
					Decode:   decodeFields("name", "partnerType", "share"),
				}},
			},
			{
				Descriptor: step.Descriptor{
					Index: 1, Key: "unit", Label: "Unit",
					RequiresValidation: true, Saves: true,
					Owns:     []entity.Kind{kindUnit, kindBooking},
					Fields:   []string{"unitNo", "bookingDate"},
					Required: []string{"unitNo"},
					Labels:   map[string]string{"unitNo": "Unit number"},
				},
				Entities: []step.Entity{
					{
						Kind:     kindUnit,
						Resource: apiclient.Resource{Path: "/unit"},
						Parent:   kindPartner,
						Filter:   "partnerId",
						Build:    buildFields("partnerId", kindPartner, "unitNo"),
						Decode:   decodeFields("unitNo"),
					},
					{
						Kind:     kindBooking,
						Resource: apiclient.Resource{Path: "/booking"},
						Parent:   kindUnit,
						Filter:   "unitId",
						Optional: true,
						Build:    buildFields("unitId", kindUnit, "bookingDate"),
						Decode:   decodeFields("bookingDate"),
					},
				},
			},
			{
				Descriptor: step.Descriptor{
					Index: 2, Key: "paymentPlan", Label: "Payment plan",
					Saves:  true,
					Owns:   []entity.Kind{kindPlan},
					Fields: []string{"paymentPlan"},
					Labels: map[string]string{"amount": "Amount"},
				},
				Rows: &step.RowSet{
					Field:       "paymentPlan",
					Kind:        kindPlan,
					Resource:    apiclient.Resource{Path: "/plan"},
					Parent:      kindPartner,
					Filter:      "partnerId",
					RowRequired: []string{"amount"},
					RowAmount:   []string{"amount"},
					Defaults:    record.NewSanitizer([]record.Default{{Field: "mode", Value: "CASH"}}, fixedNow),
					BuildRow: func(row record.Record, _ refdata.Catalog, ids entity.IDs, rowID int64) any {
						body := map[string]any{"amount": row["amount"], "mode": row["mode"]}
						if id, ok := ids.Get(kindPartner); ok {
							body["partnerId"] = id
						}
						if rowID > 0 {
							body["id"] = rowID
						}
						return body
					},
					DecodeRow: func(raw json.RawMessage, _ refdata.Catalog) (record.Record, error) {
						var m map[string]any
						if err := json.Unmarshal(raw, &m); err != nil {
							return nil, err
						}
						return record.Record{"id": m["id"], "amount": m["amount"], "mode": m["mode"]}, nil
					},
				},
			},
			{
				Descriptor: step.Descriptor{Index: 3, Key: "review", Label: "Review"},
			},
		},
	}
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []Submission
	err   error
}

func (s *fakeSubmitter) Submit(_ context.Context, sub Submission) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sub)
	if s.err != nil {
		return "", s.err
	}
	return "wf-" + strconv.Itoa(len(s.calls)), nil
}

func (s *fakeSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
