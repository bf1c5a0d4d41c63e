// Package storage provides object storage for contract work attachments and
// invoice PDFs.
//
// Two backends implement Storage:
// - LocalStorage: a directory on disk, for development
// - R2Storage: Cloudflare R2 (S3-compatible), for production
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage stores and serves opaque objects by key.
//
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at key. Without opts.Overwrite an existing key returns
	// ErrKeyExists.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get opens the object at key. The caller must close the reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a link to the object. Private backends sign the link so it
	// stops working after expires.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	ContentType string // Sniffed from the key or content when empty
	MaxSize     int64  // Zero means no limit
	Overwrite   bool   // Replace an existing object at the key
	Public      bool   // R2 only: public-read ACL
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration
// =============================================================================

const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	BasePath string // Root directory, e.g. "./storage"
	BaseURL  string // URL prefix the files are served under
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's custom domain. When empty every URL is
	// presigned.
	PublicURL string

	// Region defaults to "auto".
	Region string
}

// Config selects and configures a backend.
type Config struct {
	Provider string
	Local    LocalConfig
	R2       R2Config
}

// New builds the backend named by cfg.Provider.
func New(cfg Config, logger *slog.Logger) (Storage, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		s, err := NewLocalStorage(cfg.Local, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ProviderR2:
		s, err := NewR2Storage(cfg.R2, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
}

// =============================================================================
// Key Generation Helpers
// =============================================================================

// WorkAttachmentKey generates a storage key for a file submitted as contract
// work. Format: contracts/{contractID}/work/{uuid}{ext}
func WorkAttachmentKey(contractID uuid.UUID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("contracts/%s/work/%s%s", contractID, uuid.New(), ext)
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// InvoiceKey generates the storage key for a provider invoice PDF.
// Format: invoices/{number}.pdf
//
// Invoice numbers come from the payment provider, so anything outside a
// conservative character set is replaced.
func InvoiceKey(invoiceNumber string) string {
	name := unsafeKeyChars.ReplaceAllString(strings.TrimSpace(invoiceNumber), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = uuid.New().String()
	}
	return "invoices/" + name + ".pdf"
}
