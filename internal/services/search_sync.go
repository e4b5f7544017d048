package services

import (
	"context"
	"time"

	"github.com/yungbote/recipevault-backend/internal/domain"
	"github.com/yungbote/recipevault-backend/internal/observability"
	"github.com/yungbote/recipevault-backend/internal/platform/logger"
	"github.com/yungbote/recipevault-backend/internal/platform/searchindex"
)

// SearchSyncer mirrors record lifecycle into the external search index.
// Sync failures never fail a mutation: the durable store is the source of
// truth and the index catches up on the next write.
type SearchSyncer struct {
	log     *logger.Logger
	client  searchindex.Client
	metrics *observability.Metrics
}

func NewSearchSyncer(log *logger.Logger, client searchindex.Client) *SearchSyncer {
	return &SearchSyncer{
		log:     log.With("service", "SearchSyncer"),
		client:  client,
		metrics: observability.Current(),
	}
}

func (s *SearchSyncer) SyncUpsert(ctx context.Context, rec *domain.RecipeRecord) {
	if s == nil || s.client == nil || rec == nil {
		return
	}
	if err := s.client.Upsert(ctx, rec.ID, projectDocument(rec)); err != nil {
		s.metrics.ObserveSearchSyncFailure("upsert")
		s.log.Warn("Search index upsert failed", "record_id", rec.ID, "error", err)
	}
}

func (s *SearchSyncer) SyncDelete(ctx context.Context, id string) {
	if s == nil || s.client == nil || id == "" {
		return
	}
	err := s.client.Delete(ctx, id)
	if err == nil || searchindex.IsNotFound(err) {
		return
	}
	s.metrics.ObserveSearchSyncFailure("delete")
	s.log.Warn("Search index delete failed", "record_id", id, "error", err)
}

func projectDocument(rec *domain.RecipeRecord) searchindex.Document {
	lines := make([]string, 0, len(rec.Ingredients))
	for _, ing := range rec.Ingredients {
		if text := ing.Text(); text != "" {
			lines = append(lines, text)
		}
	}
	return searchindex.Document{
		ID:          rec.ID,
		SourceURL:   rec.SourceURL,
		Title:       rec.Title,
		Description: rec.Description,
		Ingredients: lines,
		Tags:        rec.Tags,
		Cuisine:     rec.Cuisine,
		Author:      rec.Author,
		PrepTime:    rec.PrepTime,
		CookTime:    rec.CookTime,
		TotalTime:   rec.TotalTime,
		Servings:    string(rec.Servings),
		ImageURL:    rec.ImageURL,
		CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
