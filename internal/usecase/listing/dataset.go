package listing

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/kailas-cloud/listdex/internal/domain/search/request"
	"github.com/kailas-cloud/listdex/internal/index"
)

// Definition describes one dataset served by the Service.
type Definition struct {
	Name             string
	Loader           Loader
	SearchableFields []string
	Collation        language.Tag
	DefaultPageSize  int
	MaxPageSize      int
	// RefreshInterval of zero loads the snapshot once.
	RefreshInterval time.Duration
}

func (d *Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("dataset name is required")
	}
	if d.Loader == nil {
		return fmt.Errorf("dataset %s: loader is required", d.Name)
	}
	if d.RefreshInterval < 0 {
		return fmt.Errorf("dataset %s: negative refresh interval", d.Name)
	}
	if d.MaxPageSize <= 0 {
		d.MaxPageSize = request.MaxPageSize
	}
	if d.DefaultPageSize <= 0 {
		d.DefaultPageSize = min(request.DefaultPageSize, d.MaxPageSize)
	}
	if d.DefaultPageSize > d.MaxPageSize {
		return fmt.Errorf("dataset %s: default page size exceeds max page size", d.Name)
	}
	return nil
}

// Info is a point-in-time view of a dataset.
type Info struct {
	Name       string
	Records    int
	PrefixKeys int
	ExactKeys  int
	Generation uint64
	Loaded     bool
	LoadedAt   time.Time
	LastError  string
}

// dataset holds the current index of one Definition. Readers take the
// pointer under mu and work on it lock-free; refreshes build a new index
// off-lock and swap it in.
type dataset struct {
	def Definition

	refreshMu sync.Mutex // serializes loads

	mu         sync.RWMutex
	idx        *index.Index
	generation uint64
	loadedAt   time.Time
	lastErr    error
}

func (d *dataset) current() (*index.Index, uint64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.idx, d.generation
}

func (d *dataset) swap(idx *index.Index, at time.Time) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.idx = idx
	d.generation++
	d.loadedAt = at
	d.lastErr = nil
	return d.generation
}

func (d *dataset) fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastErr = err
}

func (d *dataset) info() Info {
	d.mu.RLock()
	defer d.mu.RUnlock()
	inf := Info{
		Name:       d.def.Name,
		Generation: d.generation,
		Loaded:     d.idx != nil,
		LoadedAt:   d.loadedAt,
	}
	if d.idx != nil {
		st := d.idx.Stats()
		inf.Records = st.Records
		inf.PrefixKeys = st.PrefixKeys
		inf.ExactKeys = st.ExactKeys
	}
	if d.lastErr != nil {
		inf.LastError = d.lastErr.Error()
	}
	return inf
}
