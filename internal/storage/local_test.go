package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestObjectName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"card.jpg", "card.jpg", false},
		{"photos/card.jpg", "card.jpg", false},
		{"../../etc/passwd", "passwd", false},
		{`C:\Users\me\card.png`, "card.png", false},
		{"สำเนาบัตร.jpg", "สำเนาบัตร.jpg", false},
		{"", "", true},
		{"..", "", true},
		{"/", "", true},
		{"dir/", "dir", false},
		{"   ", "", true},
	}
	for _, tt := range tests {
		got, err := ObjectName(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidName) {
				t.Errorf("ObjectName(%q) error = %v, want ErrInvalidName", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ObjectName(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

func readAll(t *testing.T, s StorageClient, name string) string {
	t.Helper()
	rc, err := s.ReadFile(context.Background(), name)
	if err != nil {
		t.Fatalf("ReadFile(%q): %v", name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorageClient(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	res, err := s.UploadFile(ctx, strings.NewReader("first"), "card.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if res.ObjectName != "card.jpg" || res.Size != 5 {
		t.Errorf("result = %+v", res)
	}
	if got := readAll(t, s, "card.jpg"); got != "first" {
		t.Errorf("content = %q", got)
	}

	if _, err := s.UploadFile(ctx, strings.NewReader("second"), "card.jpg", "image/jpeg"); err != nil {
		t.Fatal(err)
	}
	if got := readAll(t, s, "card.jpg"); got != "second" {
		t.Errorf("overwrite content = %q", got)
	}

	entries, _ := os.ReadDir(s.GetBasePath())
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}

	if err := s.DeleteFile(ctx, "card.jpg"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := s.ReadFile(ctx, "card.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadFile after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteFile(ctx, "card.jpg"); err != nil {
		t.Errorf("deleting a missing file should succeed, got %v", err)
	}
}

func TestLocalStorageStaysInBase(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "uploads")
	s, err := NewLocalStorageClient(base)
	if err != nil {
		t.Fatal(err)
	}

	res, err := s.UploadFile(context.Background(), strings.NewReader("x"), "../escape.jpg", "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if res.ObjectName != "escape.jpg" {
		t.Errorf("ObjectName = %q", res.ObjectName)
	}
	if _, err := os.Stat(filepath.Join(base, "escape.jpg")); err != nil {
		t.Errorf("file should be stored inside base: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.jpg")); !os.IsNotExist(err) {
		t.Error("file escaped the upload directory")
	}

	if _, err := s.UploadFile(context.Background(), strings.NewReader("x"), "..", ""); !errors.Is(err, ErrInvalidName) {
		t.Errorf("UploadFile(..) = %v, want ErrInvalidName", err)
	}
}
