package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestMemoryBucketPutGetListDelete(t *testing.T) {
	m := NewMemoryBucket()
	ctx := context.Background()

	if err := m.Put(ctx, "b/file2", []byte("2")); err != nil {
		t.Fatalf("put file2 failed: %v", err)
	}
	if err := m.Put(ctx, "a/file1", []byte("1")); err != nil {
		t.Fatalf("put file1 failed: %v", err)
	}

	got, err := m.Get(ctx, "a/file1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != "1" {
		t.Fatalf("unexpected object body: %q", string(got))
	}

	infos, err := m.List(ctx, "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		keys = append(keys, info.Key)
	}
	want := []string{"a/file1", "b/file2"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys mismatch: got %v want %v", keys, want)
	}

	info, err := m.Stat(ctx, "a/file1")
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size != 1 || info.LastModified.IsZero() {
		t.Fatalf("unexpected stat: %+v", info)
	}

	if err := m.Delete(ctx, "a/file1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := m.Get(ctx, "a/file1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got: %v", err)
	}
	if err := m.Delete(ctx, "a/file1"); err != nil {
		t.Fatalf("second delete must not fail: %v", err)
	}
}

func TestMemoryBucketCopiesBodies(t *testing.T) {
	m := NewMemoryBucket()
	ctx := context.Background()

	src := []byte("original")
	if err := m.Put(ctx, "k", src); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	src[0] = 'X'

	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("stored body aliased caller slice: %q", string(got))
	}
}
