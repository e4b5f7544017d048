package services

import (
	"context"
	"time"

	"github.com/yungbote/recipevault-backend/internal/domain"
	"github.com/yungbote/recipevault-backend/internal/observability"
	"github.com/yungbote/recipevault-backend/internal/platform/logger"
	"github.com/yungbote/recipevault-backend/internal/platform/nutrition"
)

// NutritionEnricher attaches computed nutrition facts to a record when they
// are missing or stale. The lookup never blocks persistence: any failure is
// logged and the record continues without nutrition.
type NutritionEnricher struct {
	log     *logger.Logger
	client  nutrition.Client
	metrics *observability.Metrics
	now     func() time.Time
}

func NewNutritionEnricher(log *logger.Logger, client nutrition.Client) *NutritionEnricher {
	return &NutritionEnricher{
		log:     log.With("service", "NutritionEnricher"),
		client:  client,
		metrics: observability.Current(),
		now:     time.Now,
	}
}

// Enrich computes nutrition for rec when a client is configured, the record
// has parseable ingredients, and either no nutrition is present yet or
// ingredientsChanged indicates the stored facts no longer match the list.
// When the list changed, the old facts are dropped up front: if the
// recompute fails the record proceeds without nutrition rather than
// carrying facts for ingredients it no longer has.
func (e *NutritionEnricher) Enrich(ctx context.Context, rec *domain.RecipeRecord, ingredientsChanged bool) {
	if e == nil || e.client == nil || rec == nil {
		return
	}
	if rec.Nutrition != nil && !ingredientsChanged {
		return
	}
	if ingredientsChanged {
		rec.Nutrition = nil
	}
	parsed := ParseIngredients(rec.Ingredients)
	if len(parsed) == 0 {
		return
	}

	facts, err := e.client.Compute(ctx, parsed, rec.Servings.Count())
	if err != nil {
		e.metrics.ObserveNutritionLookup("failed")
		e.log.Warn("Nutrition lookup failed", "record_id", rec.ID, "ingredients", len(parsed), "error", err)
		return
	}
	facts.ComputedAtUTC = e.now().UTC().Format(time.RFC3339)
	rec.Nutrition = facts
	e.metrics.ObserveNutritionLookup("ok")
}
