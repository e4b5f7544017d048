package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yungbote/recipevault-backend/internal/domain"
	"github.com/yungbote/recipevault-backend/internal/platform/gcp"
	"github.com/yungbote/recipevault-backend/internal/platform/logger"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 6))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newImageServer(t *testing.T, fetches *int64) *httptest.Server {
	t.Helper()
	img := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(fetches, 1)
		if strings.HasSuffix(r.URL.Path, "missing.png") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMaterializeRewritesExternalImages(t *testing.T) {
	var fetches int64
	srv := newImageServer(t, &fetches)
	blobs := newFakeBlobStore()
	pipeline, err := NewImagePipeline(logger.NewNop(), blobs)
	if err != nil {
		t.Fatalf("NewImagePipeline: %v", err)
	}

	rec := &domain.RecipeRecord{
		ID:       "rec-1",
		ImageURL: srv.URL + "/cover.png",
		Images:   []string{srv.URL + "/a.png", srv.URL + "/b.png"},
	}
	res := pipeline.Materialize(context.Background(), rec)
	if res.Materialized != 3 || res.Failed != 0 || res.Skipped != 0 {
		t.Fatalf("result = %+v", res)
	}
	if !res.Changed {
		t.Fatalf("result must report a change")
	}
	if !strings.HasPrefix(rec.ImageURL, fakeBlobBase+"recipes/rec-1/cover-") {
		t.Fatalf("ImageURL not rewritten: %q", rec.ImageURL)
	}
	if !strings.HasSuffix(rec.ImageURL, ".png") {
		t.Fatalf("extension not derived from content type: %q", rec.ImageURL)
	}
	for i, u := range rec.Images {
		if !strings.HasPrefix(u, fakeBlobBase+"recipes/rec-1/gallery-") {
			t.Fatalf("Images[%d] not rewritten: %q", i, u)
		}
	}
	if len(rec.OriginalImageURLs) != 3 {
		t.Fatalf("originals not recorded: %v", rec.OriginalImageURLs)
	}
	if atomic.LoadInt64(&fetches) != 3 {
		t.Fatalf("fetches = %d, want 3", fetches)
	}
}

func TestMaterializeIdempotentOnOwnedURLs(t *testing.T) {
	var fetches int64
	srv := newImageServer(t, &fetches)
	blobs := newFakeBlobStore()
	pipeline, err := NewImagePipeline(logger.NewNop(), blobs)
	if err != nil {
		t.Fatalf("NewImagePipeline: %v", err)
	}

	rec := &domain.RecipeRecord{
		ID:       "rec-1",
		ImageURL: srv.URL + "/cover.png",
		Images:   []string{srv.URL + "/a.png"},
	}
	first := pipeline.Materialize(context.Background(), rec)
	if first.Materialized != 2 {
		t.Fatalf("first pass = %+v", first)
	}
	fetchesAfterFirst := atomic.LoadInt64(&fetches)

	second := pipeline.Materialize(context.Background(), rec)
	if second.Materialized != 0 || second.Skipped != 2 || second.Changed {
		t.Fatalf("second pass = %+v", second)
	}
	if got := atomic.LoadInt64(&fetches); got != fetchesAfterFirst {
		t.Fatalf("second pass fetched %d times", got-fetchesAfterFirst)
	}
	if len(rec.OriginalImageURLs) != 2 {
		t.Fatalf("originals must not grow on re-run: %v", rec.OriginalImageURLs)
	}
}

func TestMaterializeIsolatesFailures(t *testing.T) {
	var fetches int64
	srv := newImageServer(t, &fetches)
	blobs := newFakeBlobStore()
	pipeline, err := NewImagePipeline(logger.NewNop(), blobs)
	if err != nil {
		t.Fatalf("NewImagePipeline: %v", err)
	}

	rec := &domain.RecipeRecord{
		ID:     "rec-1",
		Images: []string{srv.URL + "/ok.png", srv.URL + "/missing.png"},
	}
	res := pipeline.Materialize(context.Background(), rec)
	if res.Materialized != 1 || res.Failed != 1 {
		t.Fatalf("result = %+v", res)
	}
	if !strings.HasPrefix(rec.Images[0], fakeBlobBase) {
		t.Fatalf("successful image not rewritten: %q", rec.Images[0])
	}
	if rec.Images[1] != srv.URL+"/missing.png" {
		t.Fatalf("failed image must keep its original URL: %q", rec.Images[1])
	}
}

func TestMaterializeNoImages(t *testing.T) {
	blobs := newFakeBlobStore()
	pipeline, err := NewImagePipeline(logger.NewNop(), blobs)
	if err != nil {
		t.Fatalf("NewImagePipeline: %v", err)
	}
	rec := &domain.RecipeRecord{ID: "rec-1"}
	if res := pipeline.Materialize(context.Background(), rec); res != (ImageResult{}) {
		t.Fatalf("result = %+v", res)
	}
}

func TestMaterializeRejectsUnsupportedScheme(t *testing.T) {
	blobs := newFakeBlobStore()
	pipeline, err := NewImagePipeline(logger.NewNop(), blobs)
	if err != nil {
		t.Fatalf("NewImagePipeline: %v", err)
	}
	rec := &domain.RecipeRecord{ID: "rec-1", ImageURL: "file:///etc/passwd"}
	res := pipeline.Materialize(context.Background(), rec)
	if res.Failed != 1 || res.Materialized != 0 {
		t.Fatalf("result = %+v", res)
	}
	if rec.ImageURL != "file:///etc/passwd" {
		t.Fatalf("failed entry must keep its original URL")
	}
}

func TestCleanupRemovesOwnedObjects(t *testing.T) {
	blobs := newFakeBlobStore()
	pipeline, err := NewImagePipeline(logger.NewNop(), blobs)
	if err != nil {
		t.Fatalf("NewImagePipeline: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"recipes/rec-1/cover-1.png", "recipes/rec-1/gallery-0-1.png", "recipes/rec-2/cover-1.png"} {
		if _, err := blobs.Put(ctx, key, []byte("x"), gcp.PutOptions{}); err != nil {
			t.Fatalf("seed blob: %v", err)
		}
	}
	pipeline.Cleanup(ctx, "rec-1")
	if keys, _ := blobs.ListKeys(ctx, "recipes/rec-1/"); len(keys) != 0 {
		t.Fatalf("rec-1 blobs not removed: %v", keys)
	}
	if keys, _ := blobs.ListKeys(ctx, "recipes/rec-2/"); len(keys) != 1 {
		t.Fatalf("rec-2 blobs must survive: %v", keys)
	}
}
