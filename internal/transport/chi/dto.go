package chi

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/listdex/internal/domain/record"
	"github.com/kailas-cloud/listdex/internal/domain/search/filter"
	"github.com/kailas-cloud/listdex/internal/domain/search/result"
	"github.com/kailas-cloud/listdex/internal/domain/search/sorting"
	listinguc "github.com/kailas-cloud/listdex/internal/usecase/listing"
)

// ErrorCode is the machine-readable error kind of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeUnauthorized        ErrorCode = "unauthorized"
	ErrorCodeValidationFailed    ErrorCode = "validation_failed"
	ErrorCodeDatasetNotFound     ErrorCode = "dataset_not_found"
	ErrorCodeSnapshotUnavailable ErrorCode = "snapshot_unavailable"
	ErrorCodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// QueryRequest is the body of POST /datasets/{dataset}/query.
type QueryRequest struct {
	Query    string      `json:"query"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Filters  []FilterDTO `json:"filters"`
	Sort     *SortDTO    `json:"sort"`
}

// FilterDTO carries one filter. Which payload fields apply depends on Type:
// text uses Value (string) and Operator, range uses Min/Max, list uses Values,
// boolean uses Value (bool), date uses From/To.
type FilterDTO struct {
	Field    string   `json:"field"`
	Type     string   `json:"type"`
	Operator string   `json:"operator,omitempty"`
	Value    any      `json:"value,omitempty"`
	Values   []any    `json:"values,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	From     *string  `json:"from,omitempty"`
	To       *string  `json:"to,omitempty"`
}

// SortDTO selects the sort field and direction.
type SortDTO struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// QueryResponse is one page of a listing.
type QueryResponse struct {
	Items         []record.Record `json:"items"`
	TotalCount    int             `json:"total_count"`
	FilteredCount int             `json:"filtered_count"`
	Page          int             `json:"page"`
	PageSize      int             `json:"page_size"`
	TotalPages    int             `json:"total_pages"`
	Generation    uint64          `json:"generation"`
}

// DatasetDTO describes a dataset's current snapshot.
type DatasetDTO struct {
	Name       string     `json:"name"`
	Records    int        `json:"records"`
	PrefixKeys int        `json:"prefix_keys"`
	ExactKeys  int        `json:"exact_keys"`
	Generation uint64     `json:"generation"`
	Loaded     bool       `json:"loaded"`
	LoadedAt   *time.Time `json:"loaded_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

// DatasetListResponse is the body of GET /datasets.
type DatasetListResponse struct {
	Items []DatasetDTO `json:"items"`
}

// ValuesResponse lists distinct field values.
type ValuesResponse struct {
	Field  string         `json:"field"`
	Values []record.Value `json:"values"`
}

// RangeResponse is the numeric extent of a field. Min and Max are null when
// the field has no numeric values.
type RangeResponse struct {
	Field string   `json:"field"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
}

// LookupResponse lists the records matching an exact value.
type LookupResponse struct {
	Items []record.Record `json:"items"`
	Count int             `json:"count"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func paramsFromDTO(req QueryRequest) (listinguc.Params, error) {
	filters := make([]filter.Filter, 0, len(req.Filters))
	for i, f := range req.Filters {
		ff, err := filterFromDTO(f)
		if err != nil {
			return listinguc.Params{}, fmt.Errorf("filters[%d]: %w", i, err)
		}
		filters = append(filters, ff)
	}

	var sortCfg *sorting.Config
	if req.Sort != nil {
		cfg, err := sorting.New(req.Sort.Field, sorting.Direction(req.Sort.Direction))
		if err != nil {
			return listinguc.Params{}, fmt.Errorf("sort: %w", err)
		}
		sortCfg = &cfg
	}

	return listinguc.Params{
		Query:    req.Query,
		Filters:  filters,
		Sort:     sortCfg,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

func filterFromDTO(f FilterDTO) (filter.Filter, error) {
	switch filter.Type(f.Type) {
	case filter.TypeText:
		s, ok := f.Value.(string)
		if !ok && f.Value != nil {
			return filter.Filter{}, fmt.Errorf("text filter value must be a string")
		}
		return filter.NewText(f.Field, s, filter.Operator(f.Operator))
	case filter.TypeRange:
		return filter.NewRange(f.Field, f.Min, f.Max)
	case filter.TypeList:
		values := make([]record.Value, len(f.Values))
		for i, v := range f.Values {
			values[i] = record.FromAny(v)
		}
		return filter.NewList(f.Field, values)
	case filter.TypeBoolean:
		if f.Value == nil {
			return filter.NewBoolean(f.Field, nil)
		}
		b, ok := f.Value.(bool)
		if !ok {
			return filter.Filter{}, fmt.Errorf("boolean filter value must be true or false")
		}
		return filter.NewBoolean(f.Field, &b)
	case filter.TypeDate:
		from, err := parseBound(f.From)
		if err != nil {
			return filter.Filter{}, fmt.Errorf("from: %w", err)
		}
		to, err := parseBound(f.To)
		if err != nil {
			return filter.Filter{}, fmt.Errorf("to: %w", err)
		}
		return filter.NewDate(f.Field, from, to)
	default:
		return filter.Filter{}, fmt.Errorf("invalid filter type %q", f.Type)
	}
}

func parseBound(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, ok := record.ParseTime(*s)
	if !ok {
		return nil, fmt.Errorf("unparseable date %q", *s)
	}
	return &t, nil
}

func queryResponse(res result.Result, meta listinguc.Meta) QueryResponse {
	return QueryResponse{
		Items:         res.Items,
		TotalCount:    res.TotalCount,
		FilteredCount: res.FilteredCount,
		Page:          res.Page,
		PageSize:      res.PageSize,
		TotalPages:    res.TotalPages,
		Generation:    meta.Generation,
	}
}

func datasetToDTO(inf listinguc.Info) DatasetDTO {
	d := DatasetDTO{
		Name:       inf.Name,
		Records:    inf.Records,
		PrefixKeys: inf.PrefixKeys,
		ExactKeys:  inf.ExactKeys,
		Generation: inf.Generation,
		Loaded:     inf.Loaded,
		LastError:  inf.LastError,
	}
	if inf.Loaded {
		t := inf.LoadedAt.UTC()
		d.LoadedAt = &t
	}
	return d
}

// decodeJSON decodes with UseNumber so list values keep their numeric kind.
func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
