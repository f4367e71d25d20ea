package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/pathmark-go/internal/core/codec"
	"github.com/yndnr/pathmark-go/internal/core/domain"
	"github.com/yndnr/pathmark-go/internal/store"
	"github.com/yndnr/pathmark-go/internal/trash"
)

// mapSettings is an in-memory settings namespace for tests.
type mapSettings map[string][]byte

func (m mapSettings) Get(_ context.Context, name string) ([]byte, error) {
	v, ok := m[name]
	if !ok {
		return nil, domain.ErrValueNotFound.WithDetails(name)
	}
	return v, nil
}

func (m mapSettings) Set(_ context.Context, name string, value []byte) error {
	m[name] = bytes.Clone(value)
	return nil
}

type testEnv struct {
	deps   Deps
	store  *store.Store
	broker *PosixBroker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cdc := codec.New()
	st := store.New(mapSettings{}, cdc)
	broker := NewPosixBroker(nil)
	bin, err := trash.Open(filepath.Join(t.TempDir(), "Trash"))
	if err != nil {
		t.Fatalf("trash.Open() error = %v", err)
	}

	return &testEnv{
		deps: Deps{
			Bookmarks: st,
			Codec:     cdc,
			Scope:     broker,
			Trash:     bin,
		},
		store:  st,
		broker: broker,
	}
}

func mkfile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew_CreatesBookmark(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := mkfile(t, dir, "doc.txt", "content")

	h, err := New(ctx, env.deps, path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got, err := h.Path(ctx); err != nil || got != path {
		t.Errorf("Path() = %q, %v; want %q", got, err, path)
	}
	if got, err := h.Name(ctx); err != nil || got != "doc.txt" {
		t.Errorf("Name() = %q, %v", got, err)
	}
	if h.IsDir() {
		t.Error("IsDir() = true for a regular file")
	}

	if _, ok, err := env.store.FindByPath(ctx, path); err != nil || !ok {
		t.Errorf("bookmark missing after New: %v, %v", ok, err)
	}
}

func TestNew_MissingEntry(t *testing.T) {
	env := newTestEnv(t)

	_, err := New(context.Background(), env.deps, filepath.Join(t.TempDir(), "absent"))
	if !domain.IsDomainError(err, domain.ErrInvalidReference.Code) {
		t.Errorf("New() error = %v, want ErrInvalidReference", err)
	}
}

func TestHandle_ResolveAfterRename(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()
	oldPath := mkfile(t, dir, "old.txt", "content")

	h, err := New(ctx, env.deps, oldPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	oldToken := h.Token()

	newPath := filepath.Join(dir, "renamed.txt")
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	loc, err := h.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve() after rename error = %v", err)
	}
	if loc.Path != newPath {
		t.Errorf("Resolve() path = %q, want %q", loc.Path, newPath)
	}

	// The repair minted a fresh token and stored it.
	if h.Token().Equal(oldToken) {
		t.Error("token unchanged after repair")
	}
	if _, ok, err := env.store.FindByPath(ctx, newPath); err != nil || !ok {
		t.Errorf("repaired bookmark missing: %v, %v", ok, err)
	}
}

func TestHandle_ResolveDeletedEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	path := mkfile(t, t.TempDir(), "doc.txt", "x")

	h, err := New(ctx, env.deps, path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	if _, err := h.Resolve(ctx); !domain.IsDomainError(err, domain.ErrTokenUnresolvable.Code) {
		t.Errorf("Resolve() error = %v, want ErrTokenUnresolvable", err)
	}
}

func TestHandle_Metadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	path := mkfile(t, t.TempDir(), "doc.txt", "seven..")

	h, err := New(ctx, env.deps, path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	size, err := h.Size(ctx)
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}
	if size != 7 {
		t.Errorf("Size() = %d, want 7", size)
	}

	mode, err := h.Mode(ctx)
	if err != nil {
		t.Fatalf("Mode() error = %v", err)
	}
	if mode.Perm() != 0o600 {
		t.Errorf("Mode() = %v, want 0600", mode.Perm())
	}

	modified, err := h.DateModified(ctx)
	if err != nil {
		t.Fatalf("DateModified() error = %v", err)
	}
	if time.Since(modified) > time.Minute {
		t.Errorf("DateModified() = %v, implausibly old", modified)
	}

	created, err := h.DateCreated(ctx)
	if err != nil {
		t.Fatalf("DateCreated() error = %v", err)
	}
	if created.IsZero() {
		t.Error("DateCreated() = zero time")
	}

	// Every metadata read releases its scope grant.
	if got := env.broker.Active(); got != 0 {
		t.Errorf("broker has %d unreleased grants", got)
	}
}

func TestHandle_Equal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()
	a := mkfile(t, dir, "a.txt", "x")
	b := mkfile(t, dir, "b.txt", "x")

	ha, err := New(ctx, env.deps, a)
	if err != nil {
		t.Fatal(err)
	}
	ha2, err := New(ctx, env.deps, a)
	if err != nil {
		t.Fatal(err)
	}
	hb, err := New(ctx, env.deps, b)
	if err != nil {
		t.Fatal(err)
	}

	if eq, err := ha.Equal(ctx, ha2); err != nil || !eq {
		t.Errorf("Equal() for same path = %v, %v; want true", eq, err)
	}
	if eq, err := ha.Equal(ctx, hb); err != nil || eq {
		t.Errorf("Equal() for different paths = %v, %v; want false", eq, err)
	}
	if eq, err := ha.Equal(ctx, nil); err != nil || eq {
		t.Errorf("Equal(nil) = %v, %v; want false", eq, err)
	}
}

// grantCounter wraps a broker and counts successful grants.
type grantCounter struct {
	inner  ScopeBroker
	begins int
}

func (g *grantCounter) Begin(loc domain.Location) (func(), error) {
	release, err := g.inner.Begin(loc)
	if err != nil {
		return nil, err
	}
	g.begins++
	return release, nil
}

func TestHandle_Parent(t *testing.T) {
	env := newTestEnv(t)
	counter := &grantCounter{inner: env.broker}
	env.deps.Scope = counter
	ctx := context.Background()
	dir := t.TempDir()
	path := mkfile(t, dir, "doc.txt", "x")

	h, err := New(ctx, env.deps, path)
	if err != nil {
		t.Fatal(err)
	}

	parent, err := h.Parent(ctx)
	if err != nil {
		t.Fatalf("Parent() error = %v", err)
	}
	if parent == nil {
		t.Fatal("Parent() = nil for a nested entry")
	}
	if got, err := parent.Path(ctx); err != nil || got != dir {
		t.Errorf("parent Path() = %q, %v; want %q", got, err, dir)
	}
	if !parent.IsDir() {
		t.Error("parent IsDir() = false")
	}

	// The lookup runs under a grant and releases it on return.
	if counter.begins == 0 {
		t.Error("Parent() acquired no scope grant")
	}
	if got := env.broker.Active(); got != 0 {
		t.Errorf("broker has %d unreleased grants after Parent()", got)
	}
}

func TestHandle_Parent_AtRoot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	h, err := New(ctx, env.deps, "/")
	if err != nil {
		t.Fatalf("New(/) error = %v", err)
	}

	parent, err := h.Parent(ctx)
	if err != nil {
		t.Fatalf("Parent() error = %v", err)
	}
	if parent != nil {
		t.Errorf("Parent() of root = %v, want nil", parent)
	}
}

func TestHandle_Delete_Trash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	path := mkfile(t, t.TempDir(), "doc.txt", "content")

	h, err := New(ctx, env.deps, path)
	if err != nil {
		t.Fatal(err)
	}

	if err := h.Delete(ctx, DeleteOptions{}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// The handle follows the entry into the trash.
	got, err := h.Path(ctx)
	if err != nil {
		t.Fatalf("Path() after trash delete error = %v", err)
	}
	if !strings.Contains(got, string(filepath.Separator)+"files"+string(filepath.Separator)) {
		t.Errorf("Path() = %q, not under the trash files directory", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original path still exists after trash delete")
	}

	// The collection was rebound, not widened.
	if _, ok, _ := env.store.FindByPath(ctx, path); ok {
		t.Error("old path still bookmarked after trash delete")
	}
	if _, ok, err := env.store.FindByPath(ctx, got); err != nil || !ok {
		t.Errorf("trashed path not bookmarked: %v, %v", ok, err)
	}

	if got := env.broker.Active(); got != 0 {
		t.Errorf("broker has %d unreleased grants", got)
	}
}

func TestHandle_Delete_Permanent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	path := mkfile(t, t.TempDir(), "doc.txt", "content")

	h, err := New(ctx, env.deps, path)
	if err != nil {
		t.Fatal(err)
	}

	if err := h.Delete(ctx, DeleteOptions{Permanent: true}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("entry still exists after permanent delete")
	}
	if _, err := h.Resolve(ctx); !domain.IsDomainError(err, domain.ErrInvalidReference.Code) {
		t.Errorf("Resolve() on unbound handle error = %v, want ErrInvalidReference", err)
	}
	if _, ok, _ := env.store.FindByPath(ctx, path); ok {
		t.Error("path still bookmarked after permanent delete")
	}
	if got := env.broker.Active(); got != 0 {
		t.Errorf("broker has %d unreleased grants", got)
	}
}

func TestHandle_Delete_Permanent_FailurePreservesBinding(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	path := mkfile(t, t.TempDir(), "doc.txt", "content")

	h, err := New(ctx, env.deps, path)
	if err != nil {
		t.Fatal(err)
	}
	h.removeFn = func(string) error { return errors.New("busy") }

	err = h.Delete(ctx, DeleteOptions{Permanent: true})
	if !domain.IsDomainError(err, domain.ErrDeleteFailed.Code) {
		t.Fatalf("Delete() error = %v, want ErrDeleteFailed", err)
	}

	// The entry survived, so the handle must still resolve to it.
	if got, err := h.Path(ctx); err != nil || got != path {
		t.Errorf("Path() after failed delete = %q, %v; want %q", got, err, path)
	}
	if _, ok, err := env.store.FindByPath(ctx, path); err != nil || !ok {
		t.Errorf("bookmark lost after failed delete: %v, %v", ok, err)
	}
	if got := env.broker.Active(); got != 0 {
		t.Errorf("broker has %d unreleased grants", got)
	}
}

func TestHandle_Delete_Directory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "project")
	if err := os.Mkdir(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	mkfile(t, dir, "nested.txt", "x")

	h, err := New(ctx, env.deps, dir)
	if err != nil {
		t.Fatal(err)
	}
	if !h.IsDir() {
		t.Error("IsDir() = false for a directory")
	}

	if err := h.Delete(ctx, DeleteOptions{Permanent: true}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("directory still exists after permanent delete")
	}
}

func TestFromToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := mkfile(t, dir, "doc.txt", "x")

	original, err := New(ctx, env.deps, path)
	if err != nil {
		t.Fatal(err)
	}
	token := original.Token()

	t.Run("fresh token", func(t *testing.T) {
		h, err := FromToken(ctx, env.deps, token)
		if err != nil {
			t.Fatalf("FromToken() error = %v", err)
		}
		if got, err := h.Path(ctx); err != nil || got != path {
			t.Errorf("Path() = %q, %v; want %q", got, err, path)
		}
	})

	t.Run("stale token is repaired", func(t *testing.T) {
		moved := filepath.Join(dir, "moved.txt")
		if err := os.Rename(path, moved); err != nil {
			t.Fatal(err)
		}

		h, err := FromToken(ctx, env.deps, token)
		if err != nil {
			t.Fatalf("FromToken() error = %v", err)
		}
		if got, err := h.Path(ctx); err != nil || got != moved {
			t.Errorf("Path() = %q, %v; want %q", got, err, moved)
		}
		if h.Token().Equal(token) {
			t.Error("token unchanged after stale repair")
		}
	})

	t.Run("malformed token", func(t *testing.T) {
		if _, err := FromToken(ctx, env.deps, domain.Token("garbage")); err == nil {
			t.Error("FromToken() of garbage should fail")
		}
	})
}

func TestHandle_Async(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := mkfile(t, dir, "doc.txt", "x")

	h, err := New(ctx, env.deps, path)
	if err != nil {
		t.Fatal(err)
	}

	res := <-h.ParentAsync(ctx)
	if res.Err != nil || res.Handle == nil {
		t.Fatalf("ParentAsync() = %v, %v", res.Handle, res.Err)
	}
	if got, _ := res.Handle.Path(ctx); got != dir {
		t.Errorf("async parent Path() = %q, want %q", got, dir)
	}

	if err := <-h.DeleteAsync(ctx, DeleteOptions{Permanent: true}); err != nil {
		t.Fatalf("DeleteAsync() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("entry still exists after async delete")
	}
}
