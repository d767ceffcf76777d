package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/calvinalkan/docstore/pkg/fs"
)

func Test_Real_OpenFile_Exclusive_Create_Fails_When_File_Exists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	real := fs.NewReal()
	path := filepath.Join(dir, "doc.json")

	file, err := real.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		t.Fatalf("first exclusive create: %v", err)
	}

	if err := file.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err = real.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if !os.IsExist(err) {
		t.Fatalf("second exclusive create err = %v, want IsExist", err)
	}
}

func Test_Real_WriteFileAtomic_Replaces_Content(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	real := fs.NewReal()
	path := filepath.Join(dir, "dump.json")

	if err := real.WriteFileAtomic(path, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatalf("first atomic write: %v", err)
	}

	if err := real.WriteFileAtomic(path, []byte(`{"a":2}`), 0o644); err != nil {
		t.Fatalf("second atomic write: %v", err)
	}

	data, err := real.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if string(data) != `{"a":2}` {
		t.Fatalf("content = %q, want %q", data, `{"a":2}`)
	}
}

func Test_Real_Exists_Discriminates_Missing_From_Present(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	real := fs.NewReal()
	path := filepath.Join(dir, "doc.json")

	exists, err := real.Exists(path)
	if err != nil {
		t.Fatalf("exists on missing: %v", err)
	}

	if exists {
		t.Fatalf("exists = true for missing file")
	}

	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	exists, err = real.Exists(path)
	if err != nil {
		t.Fatalf("exists on present: %v", err)
	}

	if !exists {
		t.Fatalf("exists = false for present file")
	}
}

func Test_FileTimes_Modification_Advances_On_InPlace_Rewrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	if err := os.WriteFile(path, []byte(`{"v":1}`), 0o644); err != nil {
		t.Fatalf("create: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	created1, modified1 := fs.FileTimes(path, info)

	if created1.IsZero() || modified1.IsZero() {
		t.Fatalf("zero timestamps: created=%v modified=%v", created1, modified1)
	}

	time.Sleep(20 * time.Millisecond)

	// In-place rewrite, the same way document updates happen.
	if err := os.WriteFile(path, []byte(`{"v":2}`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	info, err = os.Stat(path)
	if err != nil {
		t.Fatalf("stat after rewrite: %v", err)
	}

	created2, modified2 := fs.FileTimes(path, info)

	if !modified2.After(modified1) {
		t.Fatalf("modified did not advance: before=%v after=%v", modified1, modified2)
	}

	if created2.After(modified2) {
		t.Fatalf("created %v is after modified %v", created2, modified2)
	}
}
