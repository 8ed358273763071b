package fs

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/skyvalley/source/pkg/release"
	"github.com/skyvalley/source/pkg/release/objectkey"
	"github.com/spf13/afero"
)

func newMemBackend(t *testing.T, naming objectkey.Generator) (*Backend, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	b, err := New(Config{BaseDir: "/blobs", URLPrefix: "https://files.example.com/", Fs: mem, Naming: naming})
	if err != nil {
		t.Fatalf("new fs backend: %v", err)
	}
	return b, mem
}

func TestFSBackend_BasicOps(t *testing.T) {
	backend, mem := newMemBackend(t, nil)
	ctx := context.Background()
	key := "differ/dmg/Differ-1.0.dmg"

	// Put
	data := []byte("hello fs")
	obj, err := backend.Put(ctx, key, bytes.NewReader(data), release.PutOptions{Public: true})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if obj.Pathname != key {
		t.Fatalf("expected exact pathname %q, got %q", key, obj.Pathname)
	}
	if obj.URL != "https://files.example.com/differ/dmg/Differ-1.0.dmg" {
		t.Fatalf("unexpected url %q", obj.URL)
	}
	if obj.Size != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), obj.Size)
	}

	got, err := afero.ReadFile(mem, "/blobs/differ/dmg/Differ-1.0.dmg")
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("content mismatch: %q", string(got))
	}

	// Head
	head, err := backend.Head(ctx, key)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Key != key {
		t.Fatalf("expected key %q, got %q", key, head.Key)
	}

	if _, err := backend.Head(ctx, "differ/dmg/missing.dmg"); !errors.Is(err, release.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := backend.Head(ctx, "differ/dmg"); !errors.Is(err, release.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a directory, got %v", err)
	}
}

func TestFSBackend_List(t *testing.T) {
	backend, _ := newMemBackend(t, nil)
	ctx := context.Background()

	keys := []string{
		"differ/Differ-1.0.zip",
		"differ/dmg/Differ-1.0.dmg",
		"differ/dmg/Differ-2.0.dmg",
		"other/Other-1.0.zip",
	}
	for _, key := range keys {
		if _, err := backend.Put(ctx, key, strings.NewReader(key), release.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	all, err := backend.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != len(keys) {
		t.Fatalf("expected %d objects, got %d", len(keys), len(all))
	}
	for i, key := range keys {
		if all[i].Pathname != key {
			t.Fatalf("object %d: expected %q, got %q", i, key, all[i].Pathname)
		}
	}

	dmgs, err := backend.List(ctx, "differ/dmg/Differ-", 1)
	if err != nil {
		t.Fatalf("list prefix: %v", err)
	}
	if len(dmgs) != 1 || dmgs[0].Pathname != "differ/dmg/Differ-1.0.dmg" {
		t.Fatalf("unexpected prefix result: %+v", dmgs)
	}

	none, err := backend.List(ctx, "missing/dir/x", 0)
	if err != nil {
		t.Fatalf("list missing: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no objects, got %d", len(none))
	}
}

func TestFSBackend_SuffixNaming(t *testing.T) {
	backend, _ := newMemBackend(t, objectkey.NewSuffixGenerator())
	ctx := context.Background()
	key := "differ/Differ-1.0.zip"

	obj, err := backend.Put(ctx, key, strings.NewReader("zip"), release.PutOptions{Public: true})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if obj.Pathname == key {
		t.Fatalf("expected suffixed pathname")
	}

	objects, err := backend.List(ctx, "differ/", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objects))
	}
	if objects[0].Key != key {
		t.Fatalf("expected logical key %q, got %q", key, objects[0].Key)
	}
}

func TestFSBackend_RejectsEscapingPaths(t *testing.T) {
	backend, mem := newMemBackend(t, nil)
	ctx := context.Background()

	obj, err := backend.Put(ctx, "../outside.zip", strings.NewReader("x"), release.PutOptions{})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if exists, _ := afero.Exists(mem, "/outside.zip"); exists {
		t.Fatalf("file written outside the base directory")
	}
	if exists, _ := afero.Exists(mem, "/blobs/outside.zip"); !exists {
		t.Fatalf("expected file inside the base directory, pathname %q", obj.Pathname)
	}
}

func TestFSBackend_ListStaysInBaseDir(t *testing.T) {
	backend, mem := newMemBackend(t, nil)
	ctx := context.Background()

	if _, err := backend.Put(ctx, "differ/Differ-1.0.zip", strings.NewReader("zip"), release.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := afero.WriteFile(mem, "/secret/key.zip", []byte("outside"), 0644); err != nil {
		t.Fatalf("write outside file: %v", err)
	}

	for _, prefix := range []string{"../secret/", "../secret/key", "differ/../../secret/"} {
		objects, err := backend.List(ctx, prefix, 0)
		if err != nil {
			t.Fatalf("list %q: %v", prefix, err)
		}
		if len(objects) != 0 {
			t.Fatalf("list %q: expected no objects, got %+v", prefix, objects)
		}
	}

	objects, err := backend.List(ctx, "other/../differ/", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(objects) != 1 || objects[0].Pathname != "differ/Differ-1.0.zip" {
		t.Fatalf("unexpected objects: %+v", objects)
	}
}
