package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"study-ai/internal/db"
)

func TestLocalDocumentStore(t *testing.T) {
	dir := t.TempDir()
	conn, err := db.Open(filepath.Join(dir, "documents.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	uploads := filepath.Join(dir, "uploads")
	store := NewLocalDocumentStore(conn, uploads, "http://127.0.0.1:8000/", NewPDFService(nil))
	ctx := context.Background()

	doc, err := store.Upload(ctx, "Lecture 1.PDF", buildPDF("one", "two"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.ID == 0 || doc.PageCount != 2 || doc.OriginalName != "Lecture 1.PDF" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if !strings.HasSuffix(doc.StoredKey, ".pdf") {
		t.Fatalf("stored key %q should keep the extension", doc.StoredKey)
	}
	if doc.URL != "http://127.0.0.1:8000/uploads/"+doc.StoredKey {
		t.Fatalf("url = %q", doc.URL)
	}
	if _, err := os.Stat(filepath.Join(uploads, doc.StoredKey)); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}

	got, err := store.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.StoredKey != doc.StoredKey || got.URL != doc.URL || got.PageCount != 2 {
		t.Fatalf("Get returned %+v", got)
	}

	if _, err := store.Get(ctx, doc.ID+100); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("error = %v, want ErrDocumentNotFound", err)
	}
}

func TestLocalDocumentStoreRejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	conn, err := db.Open(filepath.Join(dir, "documents.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	uploads := filepath.Join(dir, "uploads")
	store := NewLocalDocumentStore(conn, uploads, "http://localhost", NewPDFService(nil))
	if _, err := store.Upload(context.Background(), "notes.txt", []byte("hello")); !errors.Is(err, ErrInput) {
		t.Fatalf("error = %v, want ErrInput", err)
	}
	if entries, _ := os.ReadDir(uploads); len(entries) != 0 {
		t.Fatalf("rejected upload left %d files", len(entries))
	}
}

func TestGCSPublicURL(t *testing.T) {
	if got := gcsPublicURL("bucket", "documents/a.pdf"); got != "https://storage.googleapis.com/bucket/documents/a.pdf" {
		t.Fatalf("url = %q", got)
	}
}
