package services

import (
	"context"
	"testing"

	"github.com/yungbote/recipevault-backend/internal/domain"
	"github.com/yungbote/recipevault-backend/internal/platform/logger"
)

func enrichableRecord() *domain.RecipeRecord {
	return &domain.RecipeRecord{
		ID:          "rec-1",
		Ingredients: []domain.Ingredient{{Raw: "2 cups flour"}},
		Servings:    domain.Yield("4"),
	}
}

func TestEnrichComputesWhenAbsent(t *testing.T) {
	client := &fakeNutritionClient{}
	enricher := NewNutritionEnricher(logger.NewNop(), client)

	rec := enrichableRecord()
	enricher.Enrich(context.Background(), rec, false)
	if rec.Nutrition == nil || rec.Nutrition.Source != "fake" {
		t.Fatalf("nutrition = %+v", rec.Nutrition)
	}
	if rec.Nutrition.ComputedAtUTC == "" {
		t.Fatalf("computedAt not stamped")
	}
	if client.calls != 1 {
		t.Fatalf("calls = %d", client.calls)
	}
}

func TestEnrichSkipsWhenPresentAndUnchanged(t *testing.T) {
	client := &fakeNutritionClient{}
	enricher := NewNutritionEnricher(logger.NewNop(), client)

	rec := enrichableRecord()
	rec.Nutrition = &domain.Nutrition{Calories: 99, Source: "stored"}
	enricher.Enrich(context.Background(), rec, false)
	if client.calls != 0 {
		t.Fatalf("calls = %d", client.calls)
	}
	if rec.Nutrition.Source != "stored" {
		t.Fatalf("stored nutrition must survive: %+v", rec.Nutrition)
	}
}

func TestEnrichReplacesOnIngredientChange(t *testing.T) {
	client := &fakeNutritionClient{}
	enricher := NewNutritionEnricher(logger.NewNop(), client)

	rec := enrichableRecord()
	rec.Nutrition = &domain.Nutrition{Calories: 99, Source: "stored"}
	enricher.Enrich(context.Background(), rec, true)
	if client.calls != 1 {
		t.Fatalf("calls = %d", client.calls)
	}
	if rec.Nutrition == nil || rec.Nutrition.Source != "fake" {
		t.Fatalf("nutrition not recomputed: %+v", rec.Nutrition)
	}
}

func TestEnrichDropsStaleFactsWhenRecomputeFails(t *testing.T) {
	client := &fakeNutritionClient{fail: true}
	enricher := NewNutritionEnricher(logger.NewNop(), client)

	rec := enrichableRecord()
	rec.Nutrition = &domain.Nutrition{Calories: 99, Source: "stored"}
	enricher.Enrich(context.Background(), rec, true)
	if rec.Nutrition != nil {
		t.Fatalf("stale nutrition must not survive a failed recompute: %+v", rec.Nutrition)
	}
}

func TestEnrichDropsStaleFactsWhenNewListUnparseable(t *testing.T) {
	client := &fakeNutritionClient{}
	enricher := NewNutritionEnricher(logger.NewNop(), client)

	rec := enrichableRecord()
	rec.Ingredients = []domain.Ingredient{{Raw: "   "}}
	rec.Nutrition = &domain.Nutrition{Calories: 99, Source: "stored"}
	enricher.Enrich(context.Background(), rec, true)
	if client.calls != 0 {
		t.Fatalf("calls = %d", client.calls)
	}
	if rec.Nutrition != nil {
		t.Fatalf("stale nutrition must not survive an ingredient change: %+v", rec.Nutrition)
	}
}

func TestEnrichNoClient(t *testing.T) {
	enricher := NewNutritionEnricher(logger.NewNop(), nil)
	rec := enrichableRecord()
	enricher.Enrich(context.Background(), rec, false)
	if rec.Nutrition != nil {
		t.Fatalf("nutrition = %+v", rec.Nutrition)
	}
}
