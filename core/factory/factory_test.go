package factory

import (
	"strings"
	"testing"
)

type store struct {
	path  string
	limit int
}

type storeConf struct {
	Path  string `json:"path"`
	Limit int    `json:"limit"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*store]()
	if err := reg.Register("file", func(conf map[string]any) (*store, error) {
		var c storeConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &store{path: c.Path, limit: c.Limit}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "file", Conf: map[string]any{"path": "runs.jsonl", "limit": 5}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.path != "runs.jsonl" || inst.limit != 5 {
		t.Fatalf("unexpected decode result: %+v", inst)
	}
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("nilfactory", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	_, err := reg.Create(ModuleConfig{Type: "y"})
	if err == nil {
		t.Fatal("expected unknown type error")
	}
	if !strings.Contains(err.Error(), `"y"`) || !strings.Contains(err.Error(), "x") {
		t.Fatalf("error should name the bad type and the registered ones: %v", err)
	}
}
