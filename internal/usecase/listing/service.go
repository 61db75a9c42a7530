package listing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/listdex/internal/domain"
	"github.com/kailas-cloud/listdex/internal/domain/record"
	"github.com/kailas-cloud/listdex/internal/domain/search/filter"
	"github.com/kailas-cloud/listdex/internal/domain/search/request"
	"github.com/kailas-cloud/listdex/internal/domain/search/result"
	"github.com/kailas-cloud/listdex/internal/domain/search/sorting"
	"github.com/kailas-cloud/listdex/internal/engine"
	"github.com/kailas-cloud/listdex/internal/index"
	"github.com/kailas-cloud/listdex/internal/logger"
)

// loadConcurrency bounds parallel snapshot loads in LoadAll.
const loadConcurrency = 4

// Meta describes the snapshot a query ran against.
type Meta struct {
	Generation uint64
	ETag       string
}

// Params are raw query parameters before validation.
type Params struct {
	Query    string
	Filters  []filter.Filter
	Sort     *sorting.Config
	Page     int
	PageSize int
}

// Service serves listing queries over in-memory dataset snapshots.
type Service struct {
	mu       sync.RWMutex
	datasets map[string]*dataset
	order    []string

	metrics Metrics
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New creates a listing service with no datasets.
func New(opts ...Option) *Service {
	s := &Service{
		datasets: make(map[string]*dataset),
		metrics:  nopMetrics{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a dataset. Its snapshot is not loaded until LoadAll or Refresh.
func (s *Service) Register(_ context.Context, def Definition) error {
	if err := def.validate(); err != nil {
		return err
	}
	def.SearchableFields = append([]string(nil), def.SearchableFields...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.datasets[def.Name]; dup {
		return fmt.Errorf("dataset %s already registered", def.Name)
	}
	s.datasets[def.Name] = &dataset{def: def}
	s.order = append(s.order, def.Name)
	return nil
}

// LoadAll loads every registered dataset in parallel. A failing dataset does
// not stop the others; the joined errors are returned.
func (s *Service) LoadAll(ctx context.Context) error {
	names := s.names()
	errs := make([]error, len(names))

	var g errgroup.Group
	g.SetLimit(loadConcurrency)
	for i, name := range names {
		g.Go(func() error {
			errs[i] = s.Refresh(ctx, name)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Refresh reloads one dataset and swaps its index. On failure the previous
// snapshot keeps serving.
func (s *Service) Refresh(ctx context.Context, name string) error {
	d, err := s.dataset(name)
	if err != nil {
		return err
	}
	log := logger.ForDataset(ctx, name)

	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	start := s.now()
	idx, err := s.build(ctx, d.def)
	if err != nil {
		d.fail(err)
		s.metrics.ObserveRefreshFailure(name)
		log.Error("dataset refresh failed", zap.Error(err))
		return fmt.Errorf("refresh %s: %w", name, err)
	}

	gen := d.swap(idx, s.now())
	took := s.now().Sub(start)
	s.metrics.ObserveBuild(name, took, idx.Len(), gen)
	log.Info("dataset loaded",
		zap.Int("records", idx.Len()),
		zap.Uint64("generation", gen),
		zap.Duration("took", took),
	)
	return nil
}

func (s *Service) build(ctx context.Context, def Definition) (*index.Index, error) {
	items, err := def.Loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	idx, err := index.New(items, def.SearchableFields)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return idx, nil
}

// Run refreshes every dataset with a positive RefreshInterval on its own
// ticker until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	var g errgroup.Group
	for _, name := range s.names() {
		d, err := s.dataset(name)
		if err != nil {
			continue
		}
		interval := d.def.RefreshInterval
		if interval <= 0 {
			continue
		}
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					// failures are logged and counted by Refresh
					_ = s.Refresh(ctx, name)
				}
			}
		})
	}
	return g.Wait()
}

// Datasets returns every registered dataset in registration order.
func (s *Service) Datasets() []Info {
	names := s.names()
	out := make([]Info, 0, len(names))
	for _, name := range names {
		if d, err := s.dataset(name); err == nil {
			out = append(out, d.info())
		}
	}
	return out
}

// Ready reports ErrSnapshotUnavailable while any dataset has no snapshot.
func (s *Service) Ready(_ context.Context) error {
	var missing []string
	for _, inf := range s.Datasets() {
		if !inf.Loaded {
			missing = append(missing, inf.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrSnapshotUnavailable, strings.Join(missing, ", "))
	}
	return nil
}

// NewRequest validates p against the dataset's page limits.
func (s *Service) NewRequest(name string, p Params) (request.Request, error) {
	d, err := s.dataset(name)
	if err != nil {
		return request.Request{}, err
	}
	pageSize := p.PageSize
	if pageSize < 1 {
		pageSize = d.def.DefaultPageSize
	}
	req, err := request.New(p.Query, p.Filters, p.Sort, p.Page, pageSize, d.def.MaxPageSize)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return req, nil
}

// Query runs req against the current snapshot of dataset name.
func (s *Service) Query(ctx context.Context, name string, req request.Request) (result.Result, Meta, error) {
	d, idx, gen, err := s.snapshot(name)
	if err != nil {
		return result.Result{}, Meta{}, err
	}

	start := s.now()
	e := s.engine(d, idx)
	for _, f := range req.Filters() {
		e.AddFilter(f)
	}
	e.SetSort(req.Sort())
	pageSize := min(req.PageSize(), d.def.MaxPageSize)
	res := e.Execute(req.Query(), req.Page(), pageSize)
	s.metrics.ObserveQuery(name, s.now().Sub(start))

	logger.ForDataset(ctx, name).Debug("dataset queried",
		zap.Int("filtered", res.FilteredCount),
		zap.Uint64("generation", gen),
	)
	return res, Meta{Generation: gen, ETag: ETag(name, gen, req)}, nil
}

// Values returns the distinct non-null values of field.
func (s *Service) Values(_ context.Context, name, field string) ([]record.Value, error) {
	d, idx, _, err := s.snapshot(name)
	if err != nil {
		return nil, err
	}
	return s.engine(d, idx).UniqueValues(field), nil
}

// Range returns the numeric extent of field. ok is false when field has no
// numeric values.
func (s *Service) Range(_ context.Context, name, field string) (result.Range, bool, error) {
	d, idx, _, err := s.snapshot(name)
	if err != nil {
		return result.Range{}, false, err
	}
	r, ok := s.engine(d, idx).Range(field)
	return r, ok, nil
}

// Lookup returns the records whose field equals raw exactly. raw is matched
// as text and, when it parses, as number, boolean and date.
func (s *Service) Lookup(_ context.Context, name, field, raw string) ([]record.Record, error) {
	if field == "" {
		return nil, fmt.Errorf("%w: lookup field is required", domain.ErrInvalidRequest)
	}
	_, idx, _, err := s.snapshot(name)
	if err != nil {
		return nil, err
	}

	candidates := lookupCandidates(raw)
	if !slices.Contains(idx.Fields(), field) {
		// not indexed exactly: scan
		out := []record.Record{}
		for _, rec := range idx.Data() {
			v := rec.Get(field)
			if slices.ContainsFunc(candidates, v.Equal) {
				out = append(out, rec)
			}
		}
		return out, nil
	}

	hits := roaring.New()
	for _, v := range candidates {
		hits.Or(idx.Lookup(field, v))
	}
	return idx.Records(hits), nil
}

func lookupCandidates(raw string) []record.Value {
	out := []record.Value{record.Text(raw)}
	trimmed := strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		out = append(out, record.Number(f))
	}
	if b, err := strconv.ParseBool(trimmed); err == nil {
		out = append(out, record.Bool(b))
	}
	if t, ok := record.ParseTime(trimmed); ok {
		out = append(out, record.Date(t))
	}
	return out
}

func (s *Service) engine(d *dataset, idx *index.Index) *engine.Engine {
	return engine.FromIndex(idx,
		engine.WithCollation(d.def.Collation),
		engine.WithDefaultPageSize(d.def.DefaultPageSize),
	)
}

func (s *Service) snapshot(name string) (*dataset, *index.Index, uint64, error) {
	d, err := s.dataset(name)
	if err != nil {
		return nil, nil, 0, err
	}
	idx, gen := d.current()
	if idx == nil {
		return nil, nil, 0, fmt.Errorf("%w: %s", domain.ErrSnapshotUnavailable, name)
	}
	return d, idx, gen, nil
}

func (s *Service) dataset(name string) (*dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.datasets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDatasetNotFound, name)
	}
	return d, nil
}

func (s *Service) names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}
