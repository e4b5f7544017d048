package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/yungbote/recipevault-backend/internal/domain"
	"github.com/yungbote/recipevault-backend/internal/platform/logger"
)

func newTestBatch(t *testing.T) (*testEnv, BatchService) {
	t.Helper()
	env := newTestEnv(t)
	batch, err := NewBatchService(logger.NewNop(), env.recipes)
	if err != nil {
		t.Fatalf("NewBatchService: %v", err)
	}
	return env, batch
}

func saveOp(t *testing.T, opID, sourceURL string) BatchOperation {
	t.Helper()
	data, err := json.Marshal(testRecord(sourceURL))
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	return BatchOperation{OperationID: opID, Type: BatchOpSave, Data: data}
}

func TestBatchMixedOutcomes(t *testing.T) {
	env, batch := newTestBatch(t)
	ctx := context.Background()

	ops := []BatchOperation{
		saveOp(t, "first", "https://example.com/r1"),
		{OperationID: "second", Type: BatchOpSave, Data: json.RawMessage(`{"sourceUrl":""}`)},
		saveOp(t, "third", "https://example.com/r3"),
	}
	results, err := batch.Execute(ctx, ops)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if !results[0].Success || !results[2].Success {
		t.Fatalf("good items must succeed: %+v", results)
	}
	if results[1].Success {
		t.Fatalf("bad item must fail: %+v", results[1])
	}
	if results[1].ErrorKind != string(domain.ErrorKindValidation) {
		t.Fatalf("ErrorKind = %q", results[1].ErrorKind)
	}
	for i, opID := range []string{"first", "second", "third"} {
		if results[i].OperationID != opID {
			t.Fatalf("results out of order: %+v", results)
		}
	}

	// The failure must not block later items.
	if _, err := env.recipes.Get(ctx, results[2].ID); err != nil {
		t.Fatalf("third record not persisted: %v", err)
	}
}

func TestBatchEmpty(t *testing.T) {
	_, batch := newTestBatch(t)
	_, err := batch.Execute(context.Background(), nil)
	if !domain.IsKind(err, domain.ErrorKindValidation) {
		t.Fatalf("empty batch: got %v", err)
	}
}

func TestBatchDefaultOperationIDs(t *testing.T) {
	_, batch := newTestBatch(t)
	ops := []BatchOperation{
		saveOp(t, "", "https://example.com/r1"),
		{Type: "unknown", Data: json.RawMessage(`{}`)},
	}
	results, err := batch.Execute(context.Background(), ops)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if results[0].OperationID != "op-0" || results[1].OperationID != "op-1" {
		t.Fatalf("default ids = %q, %q", results[0].OperationID, results[1].OperationID)
	}
	if results[1].Success || results[1].ErrorKind != string(domain.ErrorKindValidation) {
		t.Fatalf("unknown type must be a validation failure: %+v", results[1])
	}
}

func TestBatchUpdateAndDelete(t *testing.T) {
	env, batch := newTestBatch(t)
	ctx := context.Background()

	stored, err := env.recipes.Save(ctx, testRecord("https://example.com/r1"), false)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	updateData, _ := json.Marshal(map[string]any{
		"id":      stored.ID,
		"updates": map[string]any{"title": "Renamed"},
	})
	deleteData, _ := json.Marshal(map[string]any{"id": stored.ID})
	results, err := batch.Execute(ctx, []BatchOperation{
		{OperationID: "u", Type: BatchOpUpdate, Data: updateData},
		{OperationID: "d", Type: BatchOpDelete, Data: deleteData},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, r := range results {
		if !r.Success {
			t.Fatalf("item %s failed: %s", r.OperationID, r.Error)
		}
		if r.ID != stored.ID {
			t.Fatalf("item %s id = %q", r.OperationID, r.ID)
		}
	}
	if _, err := env.recipes.Get(ctx, stored.ID); !domain.IsKind(err, domain.ErrorKindNotFound) {
		t.Fatalf("record must be gone: %v", err)
	}
}
