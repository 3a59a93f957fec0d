package filestore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	base := t.TempDir()
	store, err := New(filepath.Join(base, "uploads"), filepath.Join(base, "converted"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestStore_Reserve(t *testing.T) {
	t.Run("identical names get distinct paths", func(t *testing.T) {
		store := createTestStore(t)

		a := store.Reserve("report.pdf")
		b := store.Reserve("report.pdf")
		if a == b {
			t.Errorf("expected distinct paths, both were %s", a)
		}
		if !strings.HasSuffix(a, "report.pdf") {
			t.Errorf("reserved path should keep the original name, got %s", a)
		}
	})

	t.Run("concurrent reservations never collide", func(t *testing.T) {
		store := createTestStore(t)

		const n = 50
		paths := make(chan string, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				paths <- store.Reserve("same.txt")
			}()
		}
		wg.Wait()
		close(paths)

		seen := make(map[string]bool, n)
		for p := range paths {
			if seen[p] {
				t.Fatalf("duplicate reserved path: %s", p)
			}
			seen[p] = true
		}
	})
}

func TestStore_SaveUpload(t *testing.T) {
	store := createTestStore(t)

	path, err := store.SaveUpload("notes.txt", strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("SaveUpload failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved upload: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("content = %q", string(data))
	}
	if filepath.Dir(path) != store.UploadDir() {
		t.Errorf("upload saved outside upload dir: %s", path)
	}
}

func TestStore_DeleteNow(t *testing.T) {
	t.Run("deletes existing file", func(t *testing.T) {
		store := createTestStore(t)
		path, _ := store.SaveUpload("x.txt", strings.NewReader("x"))

		if err := store.DeleteNow(path); err != nil {
			t.Fatalf("DeleteNow failed: %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("file still exists after DeleteNow")
		}
	})

	t.Run("idempotent on absent path", func(t *testing.T) {
		store := createTestStore(t)
		path, _ := store.SaveUpload("x.txt", strings.NewReader("x"))

		if err := store.DeleteNow(path); err != nil {
			t.Fatalf("first delete failed: %v", err)
		}
		if err := store.DeleteNow(path); err != nil {
			t.Errorf("second delete should be a no-op, got %v", err)
		}
	})
}

func TestStore_Sweep(t *testing.T) {
	store := createTestStore(t)

	oldPath, _ := store.SaveUpload("old.txt", strings.NewReader("old"))
	freshPath, _ := store.SaveUpload("fresh.txt", strings.NewReader("fresh"))

	// Age one file past the horizon.
	past := time.Now().Add(-25 * time.Hour)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	removed := store.Sweep(RetentionHorizon)
	if removed != 1 {
		t.Errorf("Sweep removed %d files, want 1", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("aged file survived the sweep")
	}
	if _, err := os.Stat(freshPath); err != nil {
		t.Errorf("fresh file should survive the sweep: %v", err)
	}
}

func TestStore_OutputPath(t *testing.T) {
	store := createTestStore(t)

	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{name: "plain name", filename: "result.docx", wantErr: false},
		{name: "traversal", filename: "../secret.txt", wantErr: true},
		{name: "nested path", filename: "a/b.txt", wantErr: true},
		{name: "empty", filename: "", wantErr: true},
		{name: "dotdot only", filename: "..", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := store.OutputPath(tt.filename)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %s", tt.filename, path)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if filepath.Dir(path) != store.OutputDir() {
				t.Errorf("resolved path escaped output dir: %s", path)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../etc/passwd", "passwd"},
		{"..\\windows\\sys.ini", "sys.ini"},
		{"we ird name!.txt", "we_ird_name_.txt"},
		{"..", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
