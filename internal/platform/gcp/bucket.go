package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/recipevault-backend/internal/platform/logger"
)

// BlobStore is the contract the image pipeline re-hosts through. Put returns
// the public address the rewritten record should carry; OwnsURL is the
// inverse mapping, used to recognize already-materialized references.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, opts PutOptions) (string, error)
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	PublicURL(key string) string
	OwnsURL(rawURL string) (key string, owned bool)
}

type PutOptions struct {
	ContentType  string
	CacheControl string
	Metadata     map[string]string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	mode          ObjectStorageMode
	bucket        string
	cdnDomain     string
	publicBaseURL string
	emulatorHost  string
}

func NewBucketService(log *logger.Logger) (BlobStore, error) {
	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("resolve object storage config: %w", err)
	}
	return NewBucketServiceWithConfig(log, cfg)
}

func NewBucketServiceWithConfig(log *logger.Logger, cfg ObjectStorageConfig) (BlobStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	serviceLog := log.With("service", "BucketService")

	stClient, err := newStorageClientForMode(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"emulator_host", cfg.EmulatorHost,
		"bucket", cfg.Bucket,
		"cdn_domain", cfg.CDNDomain,
		"public_base_url", cfg.PublicBaseURL,
	)

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		mode:          cfg.Mode,
		bucket:        cfg.Bucket,
		cdnDomain:     cfg.CDNDomain,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		emulatorHost:  strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"),
	}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		return storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	case ObjectStorageModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func (bs *bucketService) Put(ctx context.Context, key string, data []byte, opts PutOptions) (string, error) {
	if bs == nil || bs.storageClient == nil {
		return "", fmt.Errorf("bucket service not initialized")
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("blob key is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(bs.bucket).Object(key).NewWriter(ctx)
	if opts.ContentType != "" {
		w.ContentType = opts.ContentType
	}
	if opts.CacheControl != "" {
		w.CacheControl = opts.CacheControl
	}
	if len(opts.Metadata) > 0 {
		w.Metadata = opts.Metadata
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer for %q: %w", key, err)
	}
	return bs.PublicURL(key), nil
}

func (bs *bucketService) Delete(ctx context.Context, key string) error {
	if bs == nil || bs.storageClient == nil {
		return fmt.Errorf("bucket service not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := bs.storageClient.Bucket(bs.bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object %q in bucket %q: %w", key, bs.bucket, err)
	}
	return nil
}

func (bs *bucketService) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	if bs == nil || bs.storageClient == nil {
		return nil, fmt.Errorf("bucket service not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := bs.storageClient.Bucket(bs.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *bucketService) PublicURL(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if bs.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.cdnDomain, key)
	}
	if bs.mode == ObjectStorageModeGCSEmulator {
		base := bs.publicBaseURL
		if base == "" {
			base = bs.emulatorHost
		}
		if base != "" {
			return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(bs.bucket), url.PathEscape(key))
		}
	}
	if bs.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", bs.publicBaseURL, bs.bucket, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucket, key)
}

// OwnsURL reports whether rawURL points at this bucket, in any of the public
// address shapes PublicURL can produce, and returns the object key when it
// does. Materialization uses this to skip re-fetching its own output.
func (bs *bucketService) OwnsURL(rawURL string) (string, bool) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", false
	}

	if bs.cdnDomain != "" {
		if key, ok := strings.CutPrefix(raw, "https://"+bs.cdnDomain+"/"); ok {
			return key, true
		}
	}
	if key, ok := strings.CutPrefix(raw, fmt.Sprintf("https://storage.googleapis.com/%s/", bs.bucket)); ok {
		return key, true
	}
	if bs.publicBaseURL != "" {
		if key, ok := strings.CutPrefix(raw, fmt.Sprintf("%s/%s/", bs.publicBaseURL, bs.bucket)); ok {
			return key, true
		}
	}

	// Emulator media shape: <base>/storage/v1/b/<bucket>/o/<key>?alt=media
	for _, base := range []string{bs.publicBaseURL, bs.emulatorHost} {
		if base == "" {
			continue
		}
		prefix := fmt.Sprintf("%s/storage/v1/b/%s/o/", base, url.PathEscape(bs.bucket))
		rest, ok := strings.CutPrefix(raw, prefix)
		if !ok {
			continue
		}
		if i := strings.Index(rest, "?"); i >= 0 {
			rest = rest[:i]
		}
		key, err := url.PathUnescape(rest)
		if err != nil {
			return "", false
		}
		return key, true
	}
	return "", false
}
