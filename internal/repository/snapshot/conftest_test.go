package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// fakeHashes implements hashReader over an in-memory key space.
type fakeHashes struct {
	data      map[string]map[string]string
	scanErr   error
	fetchErr  error
	batchLens []int
}

func (f *fakeHashes) Scan(_ context.Context, _ string) ([]string, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *fakeHashes) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	f.batchLens = append(f.batchLens, len(keys))
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = f.data[k]
	}
	return out, nil
}

// fakeRows implements rowReader.
type fakeRows struct {
	rows      []map[string]any
	err       error
	lastQuery string
}

func (f *fakeRows) QueryRows(_ context.Context, query string, _ ...any) ([]map[string]any, error) {
	f.lastQuery = query
	return f.rows, f.err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
