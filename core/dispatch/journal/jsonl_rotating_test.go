package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/journal.jsonl"
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	e := Entry{Time: time.Now(), RunID: "run-1", Detail: "padding so entries take up space on disk"}
	for i := 0; i < 100; i++ {
		if err := store.Append(context.Background(), e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	files, _ := filepath.Glob(path + "*")
	if len(files) == 0 {
		t.Fatalf("expected rotated files")
	}
}

func TestRotatingJSONLStore_Query(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/journal.jsonl"
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	now := time.Now()
	_ = store.Append(context.Background(), Entry{Time: now, RunID: "run-1", Status: StatusOK})
	_ = store.Append(context.Background(), Entry{Time: now, RunID: "run-2", Status: StatusFailed})
	out, err := store.Query(context.Background(), Query{RunID: "run-1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].RunID != "run-1" {
		t.Fatalf("unexpected entries: %+v", out)
	}
}
