package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/listdex/internal/domain/record"
	"github.com/kailas-cloud/listdex/internal/domain/search/request"
	"github.com/kailas-cloud/listdex/internal/engine"
	"github.com/kailas-cloud/listdex/internal/repository/snapshot"
	"github.com/kailas-cloud/listdex/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "listctl",
		Short:         "Query listing snapshots from the command line",
		Long:          `listctl loads a JSON or YAML snapshot, indexes it and runs search, filter, sort and facet queries.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("file", "f", "", "Snapshot file (.json, .yaml or .yml)")
	root.PersistentFlags().StringSlice("fields", nil, "Searchable fields (comma-separated)")
	root.PersistentFlags().StringSlice("schema", nil, "Field kinds as field:kind (text, number, bool, date)")
	root.PersistentFlags().String("collation", "und", "BCP 47 tag used to order text")
	_ = root.MarkPersistentFlagRequired("file")

	root.AddCommand(newQueryCmd(), newValuesCmd(), newRangeCmd())
	return root
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search, filter, sort and paginate records",
		Example: `  listctl query -f parts.json --fields name,sku --q "فلتر" \
    --filter price:range:10..100 --filter brand:list:ZF,Bosch --sort price:desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, _ := cmd.Flags().GetString("q")
			rawFilters, _ := cmd.Flags().GetStringArray("filter")
			rawSort, _ := cmd.Flags().GetString("sort")
			page, _ := cmd.Flags().GetInt("page")
			pageSize, _ := cmd.Flags().GetInt("page-size")

			filters, err := parseFilters(rawFilters)
			if err != nil {
				return err
			}
			sortCfg, err := parseSort(rawSort)
			if err != nil {
				return err
			}
			req, err := request.New(q, filters, sortCfg, page, pageSize, request.MaxPageSize)
			if err != nil {
				return fmt.Errorf("invalid query: %w", err)
			}

			e, err := openEngine(cmd)
			if err != nil {
				return err
			}
			for _, f := range req.Filters() {
				e.AddFilter(f)
			}
			e.SetSort(req.Sort())
			res := e.Execute(req.Query(), req.Page(), req.PageSize())

			return printJSON(cmd.OutOrStdout(), queryOutput{
				Items:         res.Items,
				TotalCount:    res.TotalCount,
				FilteredCount: res.FilteredCount,
				Page:          res.Page,
				PageSize:      res.PageSize,
				TotalPages:    res.TotalPages,
			})
		},
	}
	cmd.Flags().String("q", "", "Free-text query")
	cmd.Flags().StringArray("filter", nil, "Filter as field:type:args (repeatable)")
	cmd.Flags().String("sort", "", "Sort as field[:asc|desc]")
	cmd.Flags().Int("page", 1, "Page number (1-based)")
	cmd.Flags().Int("page-size", request.DefaultPageSize, "Records per page")
	return cmd
}

func newValuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "values",
		Short: "List distinct values of a field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			field, _ := cmd.Flags().GetString("field")
			e, err := openEngine(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), valuesOutput{Field: field, Values: e.UniqueValues(field)})
		},
	}
	cmd.Flags().String("field", "", "Field name")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func newRangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Show the numeric min and max of a field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			field, _ := cmd.Flags().GetString("field")
			e, err := openEngine(cmd)
			if err != nil {
				return err
			}
			out := rangeOutput{Field: field}
			if r, ok := e.Range(field); ok {
				out.Min, out.Max = &r.Min, &r.Max
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().String("field", "", "Field name")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

type queryOutput struct {
	Items         []record.Record `json:"items"`
	TotalCount    int             `json:"total_count"`
	FilteredCount int             `json:"filtered_count"`
	Page          int             `json:"page"`
	PageSize      int             `json:"page_size"`
	TotalPages    int             `json:"total_pages"`
}

type valuesOutput struct {
	Field  string         `json:"field"`
	Values []record.Value `json:"values"`
}

type rangeOutput struct {
	Field string   `json:"field"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
}

// openEngine loads the snapshot named by the persistent flags.
func openEngine(cmd *cobra.Command) (*engine.Engine, error) {
	path, _ := cmd.Flags().GetString("file")
	fields, _ := cmd.Flags().GetStringSlice("fields")
	rawSchema, _ := cmd.Flags().GetStringSlice("schema")
	collation, _ := cmd.Flags().GetString("collation")

	schema, err := parseSchema(rawSchema)
	if err != nil {
		return nil, err
	}
	tag, err := language.Parse(collation)
	if err != nil {
		return nil, fmt.Errorf("invalid collation %q: %w", collation, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	recs, err := snapshot.NewFileLoader(path, schema).Load(ctx)
	if err != nil {
		return nil, err
	}
	e, err := engine.New(recs, fields, engine.WithCollation(tag))
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return e, nil
}

func parseSchema(raw []string) (record.Schema, error) {
	m := make(map[string]string, len(raw))
	for _, entry := range raw {
		field, kind, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("invalid schema entry %q: want field:kind", entry)
		}
		m[field] = kind
	}
	schema, err := record.ParseSchema(m)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return schema, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
