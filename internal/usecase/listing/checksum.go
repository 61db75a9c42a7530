package listing

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/listdex/internal/domain/search/filter"
	"github.com/kailas-cloud/listdex/internal/domain/search/request"
)

// canonicalFilter is the hashed form of a filter. Values use Value.Key so
// "1" and 1 hash differently.
type canonicalFilter struct {
	Field    string   `json:"f"`
	Type     string   `json:"t"`
	Operator string   `json:"op,omitempty"`
	Text     string   `json:"s,omitempty"`
	Min      string   `json:"min,omitempty"`
	Max      string   `json:"max,omitempty"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
	Values   []string `json:"v,omitempty"`
	Flag     *bool    `json:"b,omitempty"`
}

type canonicalRequest struct {
	Dataset    string            `json:"d"`
	Generation uint64            `json:"g"`
	Query      string            `json:"q"`
	Filters    []canonicalFilter `json:"f"`
	SortField  string            `json:"sf,omitempty"`
	SortDir    string            `json:"sd,omitempty"`
	Page       int               `json:"p"`
	PageSize   int               `json:"ps"`
}

// ETag is a strong entity tag over the dataset, its generation and every
// parameter of req. It changes whenever the snapshot or the request does.
func ETag(dataset string, generation uint64, req request.Request) string {
	c := canonicalRequest{
		Dataset:    dataset,
		Generation: generation,
		Query:      req.Query(),
		Filters:    make([]canonicalFilter, 0, len(req.Filters())),
		Page:       req.Page(),
		PageSize:   req.PageSize(),
	}
	for _, f := range req.Filters() {
		c.Filters = append(c.Filters, canonicalize(f))
	}
	if s := req.Sort(); s != nil {
		c.SortField = s.Field
		c.SortDir = string(s.Direction)
	}

	// strings, ints and bools only: Marshal cannot fail
	data, _ := json.Marshal(c)
	return `"` + strconv.FormatUint(xxhash.Sum64(data), 16) + `"`
}

func canonicalize(f filter.Filter) canonicalFilter {
	c := canonicalFilter{
		Field:    f.Field(),
		Type:     string(f.Type()),
		Operator: string(f.Operator()),
		Text:     f.Text(),
		Min:      formatBound(f.Min()),
		Max:      formatBound(f.Max()),
		From:     formatTime(f.From()),
		To:       formatTime(f.To()),
		Flag:     f.Flag(),
	}
	for _, v := range f.Values() {
		c.Values = append(c.Values, v.Key())
	}
	return c
}

func formatBound(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
