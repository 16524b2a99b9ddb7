// Package refdata loads reference-data settings from the business API.
package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	domain "github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
	"github.com/iota-uz/onboarding/pkg/apiclient"
	"github.com/iota-uz/onboarding/pkg/logging"
)

const (
	settingsPath = "/application-setting"
	typeFilter   = "settingType.equals"
	maxParallel  = 4
)

type setting struct {
	ID           json.Number `json:"id"`
	SettingType  string      `json:"settingType"`
	SettingValue string      `json:"settingValue"`
	DisplayName  string      `json:"displayName"`
	Deleted      bool        `json:"deleted"`
}

type cacheEntry struct {
	options  []domain.Option
	loadedAt time.Time
}

type Options struct {
	TTL    time.Duration
	Logger *logrus.Entry
	Now    func() time.Time
}

// Provider serves reference data per category. Lists are cached for TTL and
// concurrent loads of one category share a single request.
type Provider struct {
	client   apiclient.Client
	resource apiclient.Resource
	ttl      time.Duration
	logger   *logrus.Entry
	now      func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	cache map[domain.Category]cacheEntry
}

func NewProvider(client apiclient.Client, opts Options) *Provider {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Provider{
		client:   client,
		resource: apiclient.Resource{Path: settingsPath},
		ttl:      opts.TTL,
		logger:   opts.Logger,
		now:      opts.Now,
		cache:    map[domain.Category]cacheEntry{},
	}
}

// Catalog loads every category in parallel. A category that fails is left
// out of the catalog; the joined error reports which ones.
func (p *Provider) Catalog(ctx context.Context, categories []domain.Category) (domain.Catalog, error) {
	var (
		mu   sync.Mutex
		errs []error
	)
	cat := make(domain.Catalog, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for _, c := range categories {
		g.Go(func() error {
			opts, err := p.Options(gctx, c)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", c, err))
				return nil
			}
			cat[c] = opts
			return nil
		})
	}
	_ = g.Wait()
	return cat, errors.Join(errs...)
}

// Options returns the live options of one category.
func (p *Provider) Options(ctx context.Context, c domain.Category) ([]domain.Option, error) {
	p.mu.RLock()
	entry, ok := p.cache[c]
	p.mu.RUnlock()
	if ok && p.now().Sub(entry.loadedAt) < p.ttl {
		return entry.options, nil
	}

	v, err, _ := p.group.Do(string(c), func() (any, error) {
		opts, err := p.fetch(ctx, c)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.cache[c] = cacheEntry{options: opts, loadedAt: p.now()}
		p.mu.Unlock()
		return opts, nil
	})
	if err != nil {
		p.logger.WithError(err).WithField("category", c).Warn("refdata: category not loaded")
		return nil, err
	}
	return v.([]domain.Option), nil
}

func (p *Provider) fetch(ctx context.Context, c domain.Category) ([]domain.Option, error) {
	q := url.Values{}
	q.Set(typeFilter, string(c))
	items, err := p.resource.List(ctx, p.client, q)
	if err != nil {
		return nil, err
	}
	opts := make([]domain.Option, 0, len(items))
	for _, raw := range items {
		var s setting
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode %s setting: %w", c, err)
		}
		id, err := s.ID.Int64()
		if err != nil || id <= 0 || s.Deleted {
			continue
		}
		opts = append(opts, domain.Option{ID: id, SettingValue: s.SettingValue, DisplayName: s.DisplayName})
	}
	return opts, nil
}

// Invalidate drops the cached list of c, or every list when c is empty.
func (p *Provider) Invalidate(c domain.Category) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c == "" {
		p.cache = map[domain.Category]cacheEntry{}
		return
	}
	delete(p.cache, c)
}

// Search ranks options by fuzzy match of q against their display
// names. An empty query returns the first limit options in server order.
func Search(options []domain.Option, q string, limit int) []domain.Option {
	if limit <= 0 || limit > len(options) {
		limit = len(options)
	}
	if q == "" {
		return options[:limit]
	}
	words := make([]string, len(options))
	for i, o := range options {
		words[i] = o.DisplayName
		if words[i] == "" {
			words[i] = o.SettingValue
		}
	}
	ranks := fuzzy.RankFindNormalizedFold(q, words)
	sort.Stable(ranks)
	if len(ranks) < limit {
		limit = len(ranks)
	}
	out := make([]domain.Option, 0, limit)
	for _, r := range ranks[:limit] {
		out = append(out, options[r.OriginalIndex])
	}
	return out
}
