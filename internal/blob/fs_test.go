package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func newFsStore(t *testing.T) *Filesystem {
	t.Helper()
	s, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	return s
}

func TestFilesystemPutGetRoundTrip(t *testing.T) {
	s := newFsStore(t)
	ctx := context.Background()

	info, err := s.Put(ctx, "incoming/chk-1/coa", strings.NewReader("photo-bytes"), PutOptions{ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.ETag == "" {
		t.Fatal("expected content hash etag")
	}

	got, rc, err := s.Get(ctx, "incoming/chk-1/coa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "photo-bytes" {
		t.Fatalf("content mismatch: %q", b)
	}
	if got.ETag != info.ETag || got.ContentType != "image/jpeg" {
		t.Fatalf("metadata mismatch: put=%+v get=%+v", info, got)
	}
}

func TestFilesystemPutIsCreateOnly(t *testing.T) {
	s := newFsStore(t)
	ctx := context.Background()
	if _, err := s.Put(ctx, "k", strings.NewReader("a"), PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := s.Put(ctx, "k", strings.NewReader("b"), PutOptions{}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists on second put, got %v", err)
	}
}

func TestFilesystemRejectsUnsafeKeys(t *testing.T) {
	s := newFsStore(t)
	ctx := context.Background()
	for _, key := range []string{"", "  ", "../escape", "a/../../b", "/absolute"} {
		if _, err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestFilesystemListAndDelete(t *testing.T) {
	s := newFsStore(t)
	ctx := context.Background()
	for _, key := range []string{"incoming/b/coa", "incoming/a/coa", "other/x"} {
		if _, err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := s.List(ctx, "incoming/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "incoming/a/coa" || infos[1].Key != "incoming/b/coa" {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	existed, err := s.Delete(ctx, "incoming/a/coa")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	if _, err := s.Head(ctx, "incoming/a/coa"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	existed, err = s.Delete(ctx, "incoming/a/coa")
	if err != nil || existed {
		t.Fatalf("second delete must report absence: existed=%v err=%v", existed, err)
	}
}

func TestFilesystemPresignIsGetOnly(t *testing.T) {
	s := newFsStore(t)
	ctx := context.Background()
	url, err := s.PresignURL(ctx, "incoming/chk-1/coa", SignedURLOptions{Method: "GET"})
	if err != nil {
		t.Fatalf("presign get: %v", err)
	}
	if !strings.HasPrefix(url, "file://") || !strings.HasSuffix(url, "incoming/chk-1/coa") {
		t.Fatalf("unexpected url %q", url)
	}
	if _, err := s.PresignURL(ctx, "k", SignedURLOptions{Method: "PUT"}); err == nil {
		t.Fatal("expected non-GET presign to fail")
	}
}

func TestFilesystemManifestSurvivesReopen(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	s, err := NewFilesystem(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	put, err := s.Put(ctx, "incoming/chk-1/coa", strings.NewReader("photo-bytes"), PutOptions{ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	reopened, err := NewFilesystem(root)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Head(ctx, "incoming/chk-1/coa")
	if err != nil {
		t.Fatalf("head after reopen: %v", err)
	}
	if got.ETag != put.ETag || got.ContentType != "image/jpeg" || got.Size != put.Size {
		t.Fatalf("manifest lost attributes: put=%+v got=%+v", put, got)
	}
	_, rc, err := reopened.Get(ctx, "incoming/chk-1/coa")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "photo-bytes" {
		t.Fatalf("content mismatch after reopen: %q", b)
	}
}

func TestOpenFactorySelectsDriver(t *testing.T) {
	ctx := context.Background()
	mem, err := Open(ctx, Options{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if mem.Driver() != DriverMemory {
		t.Fatalf("unexpected driver %s", mem.Driver())
	}
	fsStore, err := Open(ctx, Options{Driver: DriverFilesystem, FsRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if fsStore.Driver() != DriverFilesystem {
		t.Fatalf("unexpected driver %s", fsStore.Driver())
	}
}
