package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/yungbote/recipevault-backend/internal/domain"
	"github.com/yungbote/recipevault-backend/internal/observability"
	"github.com/yungbote/recipevault-backend/internal/platform/envutil"
	"github.com/yungbote/recipevault-backend/internal/platform/gcp"
	"github.com/yungbote/recipevault-backend/internal/platform/logger"
)

const (
	maxImageBytes     = 20 << 20
	imageCacheControl = "public, max-age=31536000, immutable"
)

var contentTypeExt = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
	"image/avif":    "avif",
}

// ImagePipeline re-hosts externally referenced recipe images into the blob
// store, rewriting the record's image fields in place. Every failure is
// per-image: a fetch or upload error leaves that one reference at its
// original URL and never fails the surrounding mutation.
type ImagePipeline interface {
	Materialize(ctx context.Context, rec *domain.RecipeRecord) ImageResult
	Cleanup(ctx context.Context, recordID string)
}

// ImageResult summarizes one materialization pass.
type ImageResult struct {
	Materialized int
	Failed       int
	Skipped      int
	Changed      bool
}

type imagePipeline struct {
	log     *logger.Logger
	blobs   gcp.BlobStore
	http    *http.Client
	fanout  int
	metrics *observability.Metrics
}

func NewImagePipeline(log *logger.Logger, blobs gcp.BlobStore) (ImagePipeline, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	return &imagePipeline{
		log:    log.With("service", "ImagePipeline"),
		blobs:  blobs,
		fanout: envutil.Int("IMAGE_FETCH_CONCURRENCY", 4),
		http: &http.Client{
			Timeout: envutil.Seconds("IMAGE_FETCH_TIMEOUT_SECONDS", 30*time.Second),
		},
		metrics: observability.Current(),
	}, nil
}

// Materialize fetches every externally hosted image reference on rec and
// replaces it with the blob store address of the uploaded copy. References
// the blob store already owns are left as-is, which makes a second pass over
// an already-materialized record a no-op.
func (p *imagePipeline) Materialize(ctx context.Context, rec *domain.RecipeRecord) ImageResult {
	if p == nil || rec == nil {
		return ImageResult{}
	}

	type slot struct {
		field string
		idx   int
		src   string
		dst   *string
	}
	slots := []slot{}
	if rec.ImageURL != "" {
		slots = append(slots, slot{field: "cover", src: rec.ImageURL, dst: &rec.ImageURL})
	}
	for i := range rec.Images {
		if rec.Images[i] != "" {
			slots = append(slots, slot{field: "gallery", idx: i, src: rec.Images[i], dst: &rec.Images[i]})
		}
	}
	if len(slots) == 0 {
		return ImageResult{}
	}

	var (
		mu  sync.Mutex
		res ImageResult
	)
	originals := []string{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.fanout)
	for _, s := range slots {
		s := s
		if _, owned := p.blobs.OwnsURL(s.src); owned {
			mu.Lock()
			res.Skipped++
			mu.Unlock()
			p.metrics.ObserveImageSkipped()
			continue
		}
		g.Go(func() error {
			publicURL, err := p.rehost(gctx, rec.ID, s.field, s.idx, s.src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				p.metrics.ObserveImageFailed()
				p.log.Warn("Image materialization failed", "record_id", rec.ID, "field", s.field, "source_url", s.src, "error", err)
				return nil
			}
			*s.dst = publicURL
			res.Materialized++
			res.Changed = true
			originals = append(originals, s.src)
			p.metrics.ObserveImageMaterialized()
			return nil
		})
	}
	_ = g.Wait()

	if len(originals) > 0 {
		rec.OriginalImageURLs = appendMissing(rec.OriginalImageURLs, originals)
	}
	return res
}

func (p *imagePipeline) rehost(ctx context.Context, recordID, field string, idx int, srcURL string) (string, error) {
	u, err := url.Parse(srcURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("unsupported image url %q", srcURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch image: status=%d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image body: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty image body")
	}
	if len(data) > maxImageBytes {
		return "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	ext, ok := contentTypeExt[contentType]
	if !ok {
		ext = "jpg"
	}

	meta := map[string]string{
		"source-url": srcURL,
		"field":      field,
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		meta["width"] = strconv.Itoa(cfg.Width)
		meta["height"] = strconv.Itoa(cfg.Height)
	}

	key := imageKey(recordID, field, idx, ext)
	publicURL, err := p.blobs.Put(ctx, key, data, gcp.PutOptions{
		ContentType:  contentType,
		CacheControl: imageCacheControl,
		Metadata:     meta,
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return publicURL, nil
}

func imageKey(recordID, field string, idx int, ext string) string {
	name := field
	if field == "gallery" {
		name = fmt.Sprintf("%s-%d", field, idx)
	}
	return fmt.Sprintf("recipes/%s/%s-%d.%s", recordID, name, time.Now().UnixNano(), ext)
}

// Cleanup removes every stored object under the record's prefix. It is
// best-effort: listing or per-object delete failures are logged and the
// delete operation proceeds regardless.
func (p *imagePipeline) Cleanup(ctx context.Context, recordID string) {
	if p == nil || recordID == "" {
		return
	}
	prefix := "recipes/" + recordID + "/"
	keys, err := p.blobs.ListKeys(ctx, prefix)
	if err != nil {
		p.log.Warn("Image cleanup listing failed", "record_id", recordID, "error", err)
		return
	}
	for _, key := range keys {
		if err := p.blobs.Delete(ctx, key); err != nil {
			p.log.Warn("Image cleanup delete failed", "record_id", recordID, "key", key, "error", err)
		}
	}
}

func appendMissing(existing, additions []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, v := range existing {
		seen[v] = struct{}{}
	}
	for _, v := range additions {
		if _, ok := seen[v]; ok {
			continue
		}
		existing = append(existing, v)
		seen[v] = struct{}{}
	}
	return existing
}
