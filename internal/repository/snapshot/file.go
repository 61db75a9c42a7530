package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/listdex/internal/domain/record"
)

// FileLoader reads a JSON array or YAML sequence of objects from disk.
// The format follows the file extension; anything but .yaml/.yml is JSON.
type FileLoader struct {
	path   string
	schema record.Schema
}

// NewFileLoader creates a file loader.
func NewFileLoader(path string, schema record.Schema) *FileLoader {
	return &FileLoader{path: path, schema: schema}
}

// Load reads and decodes the whole file.
func (l *FileLoader) Load(ctx context.Context) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(l.path))
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", l.path, err)
	}

	var rows []map[string]any
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".yaml", ".yml":
		rows, err = decodeYAML(data)
	default:
		rows, err = decodeJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", l.path, err)
	}

	out := make([]record.Record, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			return nil, fmt.Errorf("decode snapshot %s: item %d is not an object", l.path, i)
		}
		out = append(out, toRecord(row, l.schema))
	}
	return out, nil
}

func decodeJSON(data []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeYAML(data []byte) ([]map[string]any, error) {
	var rows []map[string]any
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
