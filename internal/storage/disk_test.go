package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskWriterWrite(t *testing.T) {
	dir := t.TempDir()

	w, err := NewDiskWriter(dir)
	if err != nil {
		t.Fatalf("NewDiskWriter: %v", err)
	}

	result, err := w.Write(context.Background(), &WriteRequest{
		ObjectName:  "captures/2026/08/26/abc/capture.png",
		Content:     strings.NewReader("png-bytes"),
		ContentType: "image/png",
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "captures", "2026", "08", "26", "abc", "capture.png"))
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(raw) != "png-bytes" {
		t.Errorf("content = %q", raw)
	}

	if !strings.HasPrefix(result.URL, "file://") {
		t.Errorf("URL = %q, want file:// scheme", result.URL)
	}
	if !result.ExpiresAt.IsZero() {
		t.Errorf("local files must not expire, got %v", result.ExpiresAt)
	}
}

func TestObjectName(t *testing.T) {
	name := ObjectName("abc-123", "capture.jpg")

	if !strings.HasPrefix(name, "captures/") {
		t.Errorf("name = %q, want captures/ prefix", name)
	}
	if !strings.HasSuffix(name, "/abc-123/capture.jpg") {
		t.Errorf("name = %q, want id and filename suffix", name)
	}
}
