package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, f := range names {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(""), 0o644); err != nil {
			t.Fatalf("write temp file: %v", err)
		}
	}
}

func TestLoadDir_FiltersGGUF(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.GGUF", "a.gguf", "not-model.txt", "model.bin")
	if err := os.Mkdir(filepath.Join(dir, "sub.gguf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	models, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0].ID != "a.gguf" || models[1].ID != "b.GGUF" {
		t.Fatalf("unexpected order: %+v", models)
	}
	if !filepath.IsAbs(models[0].Path) {
		t.Fatalf("path not absolute: %s", models[0].Path)
	}
}

func TestLoadDir_ExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir on this platform: %v", err)
	}
	hTmp, err := os.MkdirTemp(home, "beliefd-registry-*")
	if err != nil {
		t.Skipf("cannot create temp under home: %v", err)
	}
	defer os.RemoveAll(hTmp)
	writeFiles(t, hTmp, "x.gguf")
	models, err := LoadDir("~/" + filepath.Base(hTmp))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(models) != 1 || models[0].ID != "x.gguf" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestLoadDir_Missing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "mistral-small-instruct-2409.Q4_K_M.gguf", "tinyllama.gguf")

	got, err := Resolve(dir, "mistralai/Mistral-Small-Instruct-2409")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.HasSuffix(got, "mistral-small-instruct-2409.Q4_K_M.gguf") {
		t.Fatalf("resolved %s", got)
	}

	file := filepath.Join(dir, "tinyllama.gguf")
	if got, err := Resolve(file, "ignored"); err != nil || got != file {
		t.Fatalf("file path: got %s err %v", got, err)
	}

	if _, err := Resolve(dir, "phi-3"); !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected ErrNoModel for ambiguous dir, got %v", err)
	}
}

func TestResolve_SingleAndEmpty(t *testing.T) {
	single := t.TempDir()
	writeFiles(t, single, "only.gguf")
	if got, err := Resolve(single, "whatever"); err != nil || filepath.Base(got) != "only.gguf" {
		t.Fatalf("single: got %s err %v", got, err)
	}
	if _, err := Resolve(t.TempDir(), ""); !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected ErrNoModel for empty dir, got %v", err)
	}
}
