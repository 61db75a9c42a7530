package listdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/kailas-cloud/listdex/internal/db"
	dbRedis "github.com/kailas-cloud/listdex/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/listdex/internal/db/sqlite"
	"github.com/kailas-cloud/listdex/internal/domain"
	"github.com/kailas-cloud/listdex/internal/domain/record"
	"github.com/kailas-cloud/listdex/internal/domain/search/request"
	"github.com/kailas-cloud/listdex/internal/domain/search/result"
	"github.com/kailas-cloud/listdex/internal/repository/snapshot"
	healthuc "github.com/kailas-cloud/listdex/internal/usecase/health"
	listinguc "github.com/kailas-cloud/listdex/internal/usecase/listing"
)

const defaultReadinessTimeout = 10 * time.Second

// listingUseCase is the internal interface to the listing service.
type listingUseCase interface {
	Refresh(ctx context.Context, name string) error
	Run(ctx context.Context) error
	Datasets() []listinguc.Info
	NewRequest(name string, p listinguc.Params) (request.Request, error)
	Query(ctx context.Context, name string, req request.Request) (result.Result, listinguc.Meta, error)
	Values(ctx context.Context, name, field string) ([]record.Value, error)
	Range(ctx context.Context, name, field string) (result.Range, bool, error)
	Lookup(ctx context.Context, name, field, raw string) ([]record.Record, error)
}

// Client is the listdex embedding entry point.
type Client struct {
	stores     []db.Store
	listingSvc listingUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New connects the stores the datasets need, registers every dataset and
// loads all snapshots. It fails if any snapshot cannot be loaded.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if len(cfg.datasets) == 0 {
		return nil, errors.New("listdex: at least one dataset required (use WithDataset)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{obs: obs}
	redisStore, sqliteStore, err := c.openStores(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	listingSvc := listinguc.New()
	healthSvc := healthuc.New()
	if redisStore != nil {
		healthSvc.Add("redis", redisStore)
	}
	if sqliteStore != nil {
		healthSvc.Add("sqlite", sqliteStore)
	}
	healthSvc.Add("datasets", healthuc.PingFunc(listingSvc.Ready))

	for _, d := range cfg.datasets {
		def, err := definition(d, redisStore, sqliteStore)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("listdex: dataset %q: %w", d.Name, err)
		}
		if err := listingSvc.Register(ctx, def); err != nil {
			c.Close()
			return nil, fmt.Errorf("listdex: %w", err)
		}
	}

	start := time.Now()
	err = listingSvc.LoadAll(ctx)
	obs.observe("load", "", start, err)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("listdex: load snapshots: %w", err)
	}

	c.listingSvc = listingSvc
	c.healthSvc = healthSvc
	return c, nil
}

func (c *Client) openStores(ctx context.Context, cfg *clientConfig) (*dbRedis.Store, *dbSQLite.Store, error) {
	var needRedis, needSQLite bool
	for _, d := range cfg.datasets {
		needRedis = needRedis || d.Source == SourceRedis
		needSQLite = needSQLite || d.Source == SourceSQLite
	}

	var redisStore *dbRedis.Store
	if needRedis {
		if len(cfg.redisAddrs) == 0 {
			return nil, nil, errors.New("listdex: redis address required (use WithRedis)")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.redisAddrs,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("listdex: create redis store: %w", err)
		}
		c.stores = append(c.stores, s)
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			return nil, nil, fmt.Errorf("listdex: redis not ready: %w", err)
		}
		redisStore = s
	}

	var sqliteStore *dbSQLite.Store
	if needSQLite {
		if cfg.sqlitePath == "" {
			return nil, nil, errors.New("listdex: sqlite path required (use WithSQLite)")
		}
		s, err := dbSQLite.NewStore(dbSQLite.Config{Path: cfg.sqlitePath})
		if err != nil {
			return nil, nil, fmt.Errorf("listdex: open sqlite: %w", err)
		}
		c.stores = append(c.stores, s)
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			return nil, nil, fmt.Errorf("listdex: sqlite not ready: %w", err)
		}
		sqliteStore = s
	}
	return redisStore, sqliteStore, nil
}

func definition(d Dataset, redisStore *dbRedis.Store, sqliteStore *dbSQLite.Store) (listinguc.Definition, error) {
	schema, err := record.ParseSchema(d.Schema)
	if err != nil {
		return listinguc.Definition{}, fmt.Errorf("schema: %w", err)
	}
	tag := language.Und
	if d.Collation != "" {
		if tag, err = language.Parse(d.Collation); err != nil {
			return listinguc.Definition{}, fmt.Errorf("collation: %w", err)
		}
	}

	var loader listinguc.Loader
	switch d.Source {
	case SourceFile:
		loader = snapshot.NewFileLoader(d.Location, schema)
	case SourceRedis:
		loader = snapshot.NewHashLoader(redisStore, d.Location, schema)
	case SourceSQLite:
		loader = snapshot.NewSQLLoader(sqliteStore, d.Location, schema)
	case SourceFunc:
		if d.Fetch == nil {
			return listinguc.Definition{}, errors.New("fetch function required for func source")
		}
		loader = snapshot.NewFuncLoader(d.Fetch, schema)
	default:
		return listinguc.Definition{}, fmt.Errorf("unknown source %q", d.Source)
	}

	return listinguc.Definition{
		Name:             d.Name,
		Loader:           loader,
		SearchableFields: d.Searchable,
		Collation:        tag,
		DefaultPageSize:  d.DefaultPageSize,
		MaxPageSize:      d.MaxPageSize,
		RefreshInterval:  d.RefreshInterval,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	for _, s := range c.stores {
		s.Close()
	}
	c.stores = nil
}

// Run refreshes datasets with a RefreshInterval until ctx is canceled.
func (c *Client) Run(ctx context.Context) error {
	return c.listingSvc.Run(ctx)
}

// Refresh reloads one dataset now. On failure the previous snapshot keeps
// serving.
func (c *Client) Refresh(ctx context.Context, dataset string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("refresh", dataset, start, err) }()

	return c.listingSvc.Refresh(ctx, dataset)
}

// Datasets lists every dataset in registration order.
func (c *Client) Datasets() []DatasetInfo {
	infos := c.listingSvc.Datasets()
	out := make([]DatasetInfo, 0, len(infos))
	for _, i := range infos {
		out = append(out, toDatasetInfo(i))
	}
	return out
}

// Query searches, filters, sorts and paginates one dataset.
func (c *Client) Query(ctx context.Context, dataset string, q Query) (_ Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("query", dataset, start, err) }()

	p, err := q.params()
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	req, err := c.listingSvc.NewRequest(dataset, p)
	if err != nil {
		return Page{}, err
	}
	res, meta, err := c.listingSvc.Query(ctx, dataset, req)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Items:         toItems(res.Items),
		TotalCount:    res.TotalCount,
		FilteredCount: res.FilteredCount,
		Page:          res.Page,
		PageSize:      res.PageSize,
		TotalPages:    res.TotalPages,
		Generation:    meta.Generation,
		ETag:          meta.ETag,
	}, nil
}

// Values returns the distinct non-null values of field in ascending order.
func (c *Client) Values(ctx context.Context, dataset, field string) (_ []any, err error) {
	start := time.Now()
	defer func() { c.obs.observe("values", dataset, start, err) }()

	vs, err := c.listingSvc.Values(ctx, dataset, field)
	if err != nil {
		return nil, err
	}
	return toValues(vs), nil
}

// Range returns the numeric extent of field. ok is false when the field
// has no numeric values.
func (c *Client) Range(ctx context.Context, dataset, field string) (_ NumericRange, ok bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("range", dataset, start, err) }()

	r, ok, err := c.listingSvc.Range(ctx, dataset, field)
	if err != nil {
		return NumericRange{}, false, err
	}
	return NumericRange{Min: r.Min, Max: r.Max}, ok, nil
}

// Lookup returns the records whose field equals value exactly.
func (c *Client) Lookup(ctx context.Context, dataset, field, value string) (_ []map[string]any, err error) {
	start := time.Now()
	defer func() { c.obs.observe("lookup", dataset, start, err) }()

	recs, err := c.listingSvc.Lookup(ctx, dataset, field, value)
	if err != nil {
		return nil, err
	}
	return toItems(recs), nil
}
