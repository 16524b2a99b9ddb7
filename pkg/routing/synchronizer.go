// Package routing translates wizard state to deep-linkable URLs and back.
package routing

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/form"
	"github.com/gorilla/mux"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
	ModeView   Mode = "view"
)

func (m Mode) Valid() bool {
	return m == ModeCreate || m == ModeEdit || m == ModeView
}

// State is the part of a wizard's controller state carried by a URL.
type State struct {
	Wizard   string
	RecordID int64
	Step     int
	Mode     Mode
}

type query struct {
	Step int    `form:"step"`
	Mode string `form:"mode"`
	View bool   `form:"view"`
}

// Synchronizer holds one "new" and one "record" route per wizard.
//
//	/capital-partners/new?step=0
//	/capital-partners/42?step=3&mode=edit
type Synchronizer struct {
	mu      sync.RWMutex
	router  *mux.Router
	decoder *form.Decoder
	steps   map[string]int
}

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{
		router:  mux.NewRouter(),
		decoder: form.NewDecoder(),
		steps:   make(map[string]int),
	}
}

// Register adds the routes of a wizard living under basePath with stepCount steps.
func (s *Synchronizer) Register(wizard, basePath string, stepCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	basePath = "/" + strings.Trim(basePath, "/")
	s.router.NewRoute().Name(wizard + ".new").Path(basePath + "/new")
	s.router.NewRoute().Name(wizard + ".record").Path(basePath + "/{id:[0-9]+}")
	s.steps[wizard] = stepCount
}

// URL builds the deep link for st.
func (s *Synchronizer) URL(st State) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count, ok := s.steps[st.Wizard]
	if !ok {
		return "", fmt.Errorf("routing: unknown wizard %q", st.Wizard)
	}
	if st.Step < 0 || st.Step >= count {
		return "", fmt.Errorf("routing: step %d out of range for %s", st.Step, st.Wizard)
	}

	var (
		u   *url.URL
		err error
	)
	q := url.Values{}
	q.Set("step", strconv.Itoa(st.Step))
	if st.RecordID > 0 {
		u, err = s.router.Get(st.Wizard+".record").URL("id", strconv.FormatInt(st.RecordID, 10))
		mode := st.Mode
		if mode == "" || mode == ModeCreate {
			mode = ModeEdit
		}
		q.Set("mode", string(mode))
	} else {
		u, err = s.router.Get(st.Wizard + ".new").URL()
	}
	if err != nil {
		return "", err
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Parse reads the wizard, record id, step and mode from an incoming URL.
// Out of range steps are clamped and an unknown mode falls back to edit for
// records and create otherwise.
func (s *Synchronizer) Parse(raw string) (State, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return State{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var match mux.RouteMatch
	req := &http.Request{Method: http.MethodGet, URL: u}
	if !s.router.Match(req, &match) || match.Route == nil {
		return State{}, fmt.Errorf("routing: no wizard route matches %q", u.Path)
	}

	name := match.Route.GetName()
	wizard, kind, _ := strings.Cut(name, ".")
	st := State{Wizard: wizard, Mode: ModeCreate}

	var q query
	if err := s.decoder.Decode(&q, u.Query()); err != nil {
		return State{}, fmt.Errorf("routing: bad query: %w", err)
	}

	if kind == "record" {
		id, err := strconv.ParseInt(match.Vars["id"], 10, 64)
		if err != nil {
			return State{}, fmt.Errorf("routing: bad record id: %w", err)
		}
		st.RecordID = id
		st.Mode = ModeEdit
		if m := Mode(q.Mode); m == ModeView || q.View {
			st.Mode = ModeView
		}
	}

	st.Step = q.Step
	if st.Step < 0 {
		st.Step = 0
	}
	if last := s.steps[wizard] - 1; st.Step > last {
		st.Step = last
	}
	return st, nil
}
