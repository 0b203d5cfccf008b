package localfs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"xdao.co/feereg/contentid"
	"xdao.co/feereg/storage"
	"xdao.co/feereg/storage/testkit"
)

func TestLocalFSConformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) storage.Store {
		st, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return st
	})
}

func TestNewRequiresRoot(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("New accepted empty root")
	}
}

func TestPutShardsByCIDSuffix(t *testing.T) {
	root := t.TempDir()
	st, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := st.Put([]byte("sharded object"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	str := id.String()
	path := filepath.Join(root, str[len(str)-2:], str)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("object not at sharded path %s: %v", path, err)
	}
}

func TestGetDetectsCorruption(t *testing.T) {
	root := t.TempDir()
	st, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := st.Put([]byte("pristine"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	str := id.String()
	path := filepath.Join(root, str[len(str)-2:], str)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := os.WriteFile(path, []byte("tampered"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := st.Get(id); !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("Get error = %v, want ErrCIDMismatch", err)
	}
}

func TestPutSurvivesRestart(t *testing.T) {
	root := t.TempDir()
	st, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := []byte("durable record")
	id, err := st.Put(want)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A fresh store over the same root sees the object.
	reopened, err := New(root)
	if err != nil {
		t.Fatalf("New(reopen): %v", err)
	}
	got, err := reopened.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("Get = %q, want %q", got, want)
	}

	wantID, _ := contentid.ForBytes(want)
	if id != wantID {
		t.Fatalf("CID = %s, want %s", id, wantID)
	}
}
