// Package storage keeps rendered documents. Objects are addressed by key,
// e.g. contracts/{id}.pdf.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abogadosonline/aoe-api/pkg/config"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("object not found")
	// ErrSigningUnsupported is returned by stores that cannot hand out
	// direct links; callers stream the object instead
	ErrSigningUnsupported = errors.New("signed urls are not supported by this store")
	ErrInvalidKey         = errors.New("invalid object key")
)

// Store persists document bytes
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ContractKey is where a contract's PDF lives
func ContractKey(contractID string) string {
	return "contracts/" + contractID + ".pdf"
}

// New builds the store selected by the settings
func New(cfg config.StorageConfig, log *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "supabase":
		return NewSupabase(cfg.SupabaseURL, cfg.ServiceRoleKey, cfg.Bucket, log), nil
	case "local", "":
		return NewLocal(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

func cleanKey(key string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key, nil
}
