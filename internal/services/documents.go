package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"study-ai/internal/models"
)

// ErrDocumentNotFound is returned by DocumentRegistry.Get for an unknown id.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore persists an uploaded PDF and returns a URL the extractor can
// later fetch it from.
type DocumentStore interface {
	Upload(ctx context.Context, name string, data []byte) (*models.Document, error)
}

// DocumentRegistry looks up previously uploaded documents.
type DocumentRegistry interface {
	Get(ctx context.Context, id int64) (*models.Document, error)
}

// PageCounter reports how many pages a PDF has, rejecting non-PDF data.
type PageCounter interface {
	Inspect(data []byte) (int, error)
}

func storedName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = ".pdf"
	}
	return uuid.NewString() + ext
}

// LocalDocumentStore writes files under uploadDir and records them in the
// documents table. Files are served by the HTTP layer at /uploads/.
type LocalDocumentStore struct {
	db        *sql.DB
	uploadDir string
	baseURL   string
	pages     PageCounter
}

func NewLocalDocumentStore(db *sql.DB, uploadDir, publicBaseURL string, pages PageCounter) *LocalDocumentStore {
	return &LocalDocumentStore{
		db:        db,
		uploadDir: uploadDir,
		baseURL:   strings.TrimRight(publicBaseURL, "/"),
		pages:     pages,
	}
}

func (s *LocalDocumentStore) Upload(ctx context.Context, original string, data []byte) (*models.Document, error) {
	pageCount, err := s.pages.Inspect(data)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: ensure upload dir: %w", ErrRetrieval, err)
	}

	name := storedName(original)
	storedPath := filepath.Join(s.uploadDir, name)
	if err := os.WriteFile(storedPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: write file: %w", ErrRetrieval, err)
	}

	doc := &models.Document{
		OriginalName: original,
		StoredKey:    name,
		URL:          s.baseURL + "/uploads/" + url.PathEscape(name),
		PageCount:    pageCount,
		UploadedAt:   time.Now().UTC(),
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (original_name, stored_key, url, page_count, uploaded_at)
		VALUES (?, ?, ?, ?, ?);
	`, doc.OriginalName, doc.StoredKey, doc.URL, doc.PageCount, doc.UploadedAt)
	if err != nil {
		_ = os.Remove(storedPath)
		return nil, fmt.Errorf("%w: insert document: %w", ErrRetrieval, err)
	}
	doc.ID, _ = res.LastInsertId()
	return doc, nil
}

func (s *LocalDocumentStore) Get(ctx context.Context, id int64) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, original_name, stored_key, url, page_count, uploaded_at
		FROM documents WHERE id = ?;
	`, id)
	var doc models.Document
	if err := row.Scan(
		&doc.ID,
		&doc.OriginalName,
		&doc.StoredKey,
		&doc.URL,
		&doc.PageCount,
		&doc.UploadedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

const gcsDocumentPrefix = "documents/"

// GCSDocumentStore writes uploads to a bucket whose objects are publicly
// readable. It keeps no registry.
type GCSDocumentStore struct {
	client *storage.Client
	bucket string
	pages  PageCounter
}

func NewGCSDocumentStore(client *storage.Client, bucket string, pages PageCounter) *GCSDocumentStore {
	return &GCSDocumentStore{client: client, bucket: bucket, pages: pages}
}

func (s *GCSDocumentStore) Upload(ctx context.Context, original string, data []byte) (*models.Document, error) {
	pageCount, err := s.pages.Inspect(data)
	if err != nil {
		return nil, err
	}

	key := gcsDocumentPrefix + storedName(original)
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/pdf"
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%w: write object: %w", ErrRetrieval, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: close object writer: %w", ErrRetrieval, err)
	}

	return &models.Document{
		OriginalName: original,
		StoredKey:    key,
		URL:          gcsPublicURL(s.bucket, key),
		PageCount:    pageCount,
		UploadedAt:   time.Now().UTC(),
	}, nil
}

func gcsPublicURL(bucket, key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}
