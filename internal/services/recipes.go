package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/recipevault-backend/internal/domain"
	"github.com/yungbote/recipevault-backend/internal/observability"
	"github.com/yungbote/recipevault-backend/internal/platform/kvstore"
	"github.com/yungbote/recipevault-backend/internal/platform/logger"
)

const journalKeyPrefix = "operation:"

// RecipeService orchestrates the full persistence pipeline for one recipe
// mutation: image materialization, nutrition enrichment, encode, durable
// write, best-effort index sync, and the operation journal.
//
// Mutations are globally serialized: one mutex guards the whole pipeline so
// two concurrent writes can never interleave partial state. Reads bypass the
// mutex, a record only becomes visible at the durable-write step.
type RecipeService interface {
	Save(ctx context.Context, record *domain.RecipeRecord, overwrite bool) (*domain.RecipeRecord, error)
	Update(ctx context.Context, id string, update *domain.RecipeUpdate) (*domain.RecipeRecord, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.RecipeRecord, error)
	Status(ctx context.Context, id string) (*domain.OperationStatus, error)
}

type recipeService struct {
	log      *logger.Logger
	store    kvstore.Store
	images   ImagePipeline
	enricher *NutritionEnricher
	syncer   *SearchSyncer
	metrics  *observability.Metrics
	now      func() time.Time

	mu sync.Mutex
}

func NewRecipeService(log *logger.Logger, store kvstore.Store, images ImagePipeline, enricher *NutritionEnricher, syncer *SearchSyncer) (RecipeService, error) {
	if log == nil {
		return nil, domain.PipelineErr("init", "logger required", nil)
	}
	if store == nil {
		return nil, domain.PipelineErr("init", "kv store required", nil)
	}
	return &recipeService{
		log:      log.With("service", "RecipeService"),
		store:    store,
		images:   images,
		enricher: enricher,
		syncer:   syncer,
		metrics:  observability.Current(),
		now:      time.Now,
	}, nil
}

func (s *recipeService) Save(ctx context.Context, record *domain.RecipeRecord, overwrite bool) (*domain.RecipeRecord, error) {
	const op = domain.OperationCreate
	if record == nil || strings.TrimSpace(record.SourceURL) == "" {
		return nil, domain.Validationf(op, "sourceUrl is required")
	}
	canonical, err := domain.CanonicalSourceURL(record.SourceURL)
	if err != nil {
		return nil, domain.Validationf(op, "invalid sourceUrl %q: %v", record.SourceURL, err)
	}
	id, err := domain.RecordID(canonical)
	if err != nil {
		return nil, domain.Validationf(op, "invalid sourceUrl %q: %v", record.SourceURL, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Get(ctx, id); err == nil {
		if !overwrite {
			return nil, domain.Conflictf(op, "record %s already exists", id)
		}
	} else if !kvstore.IsNotFound(err) {
		return nil, s.fail(ctx, op, id, "read existing record", err)
	}

	stored := *record
	stored.ID = id
	stored.SourceURL = canonical
	now := s.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Version = 1

	if s.images != nil {
		res := s.images.Materialize(ctx, &stored)
		s.log.Debug("Images materialized", "record_id", id, "materialized", res.Materialized, "failed", res.Failed, "skipped", res.Skipped)
	}
	if s.enricher != nil {
		s.enricher.Enrich(ctx, &stored, false)
	}

	if err := s.write(ctx, &stored); err != nil {
		return nil, s.fail(ctx, op, id, "persist record", err)
	}
	s.syncer.SyncUpsert(ctx, &stored)
	s.journal(ctx, op, id, nil)
	s.metrics.ObserveMutation(op, domain.StatusCompleted)
	s.log.Info("Recipe created", "record_id", id, "source_url", canonical, "version", stored.Version)
	return &stored, nil
}

func (s *recipeService) Update(ctx context.Context, id string, update *domain.RecipeUpdate) (*domain.RecipeRecord, error) {
	const op = domain.OperationUpdate
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.Validationf(op, "identifier is required")
	}
	if update == nil {
		return nil, domain.Validationf(op, "update payload is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(ctx, op, id)
	if err != nil {
		return nil, err
	}

	beforeIngredients := ingredientTexts(existing.Ingredients)
	merged := mergeUpdate(existing, update)
	ingredientsChanged := !equalStrings(beforeIngredients, ingredientTexts(merged.Ingredients))

	if s.images != nil {
		res := s.images.Materialize(ctx, merged)
		s.log.Debug("Images materialized", "record_id", id, "materialized", res.Materialized, "failed", res.Failed, "skipped", res.Skipped)
	}
	if s.enricher != nil {
		s.enricher.Enrich(ctx, merged, ingredientsChanged)
	}

	merged.UpdatedAt = s.now().UTC()
	merged.Version = existing.Version + 1

	if err := s.write(ctx, merged); err != nil {
		return nil, s.fail(ctx, op, id, "persist record", err)
	}
	s.syncer.SyncUpsert(ctx, merged)
	s.journal(ctx, op, id, nil)
	s.metrics.ObserveMutation(op, domain.StatusCompleted)
	s.log.Info("Recipe updated", "record_id", id, "version", merged.Version)
	return merged, nil
}

func (s *recipeService) Delete(ctx context.Context, id string) error {
	const op = domain.OperationDelete
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Validationf(op, "identifier is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.read(ctx, op, id); err != nil {
		return err
	}

	if s.images != nil {
		s.images.Cleanup(ctx, id)
	}
	if err := s.store.Delete(ctx, id); err != nil && !kvstore.IsNotFound(err) {
		return s.fail(ctx, op, id, "delete record", err)
	}
	s.syncer.SyncDelete(ctx, id)
	s.journal(ctx, op, id, nil)
	s.metrics.ObserveMutation(op, domain.StatusCompleted)
	s.log.Info("Recipe deleted", "record_id", id)
	return nil
}

func (s *recipeService) Get(ctx context.Context, id string) (*domain.RecipeRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.Validationf("get", "identifier is required")
	}
	return s.read(ctx, "get", id)
}

func (s *recipeService) Status(ctx context.Context, id string) (*domain.OperationStatus, error) {
	const op = "status"
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.Validationf(op, "identifier is required")
	}
	data, err := s.store.Get(ctx, journalKeyPrefix+id)
	if err != nil {
		if kvstore.IsNotFound(err) {
			return nil, domain.NotFoundf(op, "no operation recorded for %s", id)
		}
		return nil, domain.PipelineErr(op, "read journal", err)
	}
	status, err := domain.DecodeStatus(data)
	if err != nil {
		return nil, domain.PipelineErr(op, "decode journal entry", err)
	}
	return status, nil
}

func (s *recipeService) read(ctx context.Context, op, id string) (*domain.RecipeRecord, error) {
	data, err := s.store.Get(ctx, id)
	if err != nil {
		if kvstore.IsNotFound(err) {
			return nil, domain.NotFoundf(op, "record %s not found", id)
		}
		return nil, domain.PipelineErr(op, "read record", err)
	}
	record, err := domain.DecodeRecord(data)
	if err != nil {
		return nil, domain.PipelineErr(op, "decode record", err)
	}
	return record, nil
}

func (s *recipeService) write(ctx context.Context, record *domain.RecipeRecord) error {
	data, err := domain.EncodeRecord(record)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, record.ID, data)
}

// fail journals the failed attempt, counts it, and returns the pipeline
// error the caller surfaces.
func (s *recipeService) fail(ctx context.Context, op, id, message string, cause error) error {
	s.journal(ctx, op, id, cause)
	s.metrics.ObserveMutation(op, domain.StatusFailed)
	s.log.Error("Recipe mutation failed", "operation", op, "record_id", id, "step", message, "error", cause)
	return domain.PipelineErr(op, message, cause)
}

// journal overwrites the record's operation status entry. A journal write
// failure is logged but never masks the outcome of the mutation itself.
func (s *recipeService) journal(ctx context.Context, op, id string, cause error) {
	entry := &domain.OperationStatus{
		Status:    domain.StatusCompleted,
		Operation: op,
		Timestamp: s.now().UTC(),
	}
	if cause != nil {
		entry.Status = domain.StatusFailed
		entry.Error = cause.Error()
	}
	data, err := domain.EncodeStatus(entry)
	if err != nil {
		s.log.Warn("Journal encode failed", "record_id", id, "error", err)
		return
	}
	if err := s.store.Put(ctx, journalKeyPrefix+id, data); err != nil {
		s.log.Warn("Journal write failed", "record_id", id, "error", err)
	}
}

// mergeUpdate applies the non-nil fields of update over a copy of existing.
// Identifier, source URL, creation time, and original image URLs carry over
// untouched.
func mergeUpdate(existing *domain.RecipeRecord, update *domain.RecipeUpdate) *domain.RecipeRecord {
	merged := *existing
	if update.Title != nil {
		merged.Title = *update.Title
	}
	if update.Description != nil {
		merged.Description = *update.Description
	}
	if update.Cuisine != nil {
		merged.Cuisine = *update.Cuisine
	}
	if update.Author != nil {
		merged.Author = *update.Author
	}
	if update.Ingredients != nil {
		merged.Ingredients = update.Ingredients
	}
	if update.Instructions != nil {
		merged.Instructions = update.Instructions
	}
	if update.Tags != nil {
		merged.Tags = update.Tags
	}
	if update.Servings != nil {
		merged.Servings = *update.Servings
	}
	if update.PrepTime != nil {
		merged.PrepTime = *update.PrepTime
	}
	if update.CookTime != nil {
		merged.CookTime = *update.CookTime
	}
	if update.TotalTime != nil {
		merged.TotalTime = *update.TotalTime
	}
	if update.ImageURL != nil {
		merged.ImageURL = *update.ImageURL
	}
	if update.Images != nil {
		merged.Images = update.Images
	}
	return &merged
}

func ingredientTexts(entries []domain.Ingredient) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Text())
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
