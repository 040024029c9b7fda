package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMigratesIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.db")

	for i := 0; i < 2; i++ {
		conn, err := Open(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		var count int
		if err := conn.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
			t.Fatalf("query documents: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected empty table, got %d rows", count)
		}
		conn.Close()
	}
}
