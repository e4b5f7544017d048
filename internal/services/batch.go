package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/recipevault-backend/internal/domain"
	"github.com/yungbote/recipevault-backend/internal/observability"
	"github.com/yungbote/recipevault-backend/internal/platform/logger"
)

const (
	BatchOpSave   = "save"
	BatchOpUpdate = "update"
	BatchOpDelete = "delete"
)

// BatchOperation is one item of a batch request. Data carries the
// operation-specific payload: a full record for save, `{id, updates}` for
// update, `{id}` for delete.
type BatchOperation struct {
	OperationID string          `json:"operationId,omitempty"`
	Type        string          `json:"type"`
	Overwrite   bool            `json:"overwrite,omitempty"`
	Data        json.RawMessage `json:"data"`
}

// BatchResult is the per-item outcome, reported in input order.
type BatchResult struct {
	OperationID string `json:"operationId"`
	Success     bool   `json:"success"`
	ID          string `json:"id,omitempty"`
	Error       string `json:"error,omitempty"`
	ErrorKind   string `json:"errorKind,omitempty"`
}

type batchUpdatePayload struct {
	ID      string               `json:"id"`
	Updates *domain.RecipeUpdate `json:"updates"`
}

type batchDeletePayload struct {
	ID string `json:"id"`
}

// BatchService runs heterogeneous mutations sequentially through the
// orchestrator. Items fail independently; the batch always yields one
// result per item, in order.
type BatchService interface {
	Execute(ctx context.Context, ops []BatchOperation) ([]BatchResult, error)
}

type batchService struct {
	log     *logger.Logger
	recipes RecipeService
	metrics *observability.Metrics
}

func NewBatchService(log *logger.Logger, recipes RecipeService) (BatchService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if recipes == nil {
		return nil, fmt.Errorf("recipe service required")
	}
	return &batchService{
		log:     log.With("service", "BatchService"),
		recipes: recipes,
		metrics: observability.Current(),
	}, nil
}

func (b *batchService) Execute(ctx context.Context, ops []BatchOperation) ([]BatchResult, error) {
	if len(ops) == 0 {
		return nil, domain.Validationf("batch", "batch contains no operations")
	}

	results := make([]BatchResult, 0, len(ops))
	for i, op := range ops {
		opID := strings.TrimSpace(op.OperationID)
		if opID == "" {
			opID = fmt.Sprintf("op-%d", i)
		}
		id, err := b.run(ctx, op)
		res := BatchResult{OperationID: opID, Success: err == nil, ID: id}
		if err != nil {
			res.Error = err.Error()
			res.ErrorKind = string(domain.KindOf(err))
			b.metrics.ObserveBatchItem("failed")
			b.log.Warn("Batch item failed", "operation_id", opID, "type", op.Type, "error", err)
		} else {
			b.metrics.ObserveBatchItem("ok")
		}
		results = append(results, res)
	}
	return results, nil
}

func (b *batchService) run(ctx context.Context, op BatchOperation) (string, error) {
	switch strings.ToLower(strings.TrimSpace(op.Type)) {
	case BatchOpSave:
		var record domain.RecipeRecord
		if err := json.Unmarshal(op.Data, &record); err != nil {
			return "", domain.Validationf("batch", "malformed save payload: %v", err)
		}
		stored, err := b.recipes.Save(ctx, &record, op.Overwrite)
		if err != nil {
			return "", err
		}
		return stored.ID, nil
	case BatchOpUpdate:
		var payload batchUpdatePayload
		if err := json.Unmarshal(op.Data, &payload); err != nil {
			return "", domain.Validationf("batch", "malformed update payload: %v", err)
		}
		updated, err := b.recipes.Update(ctx, payload.ID, payload.Updates)
		if err != nil {
			return "", err
		}
		return updated.ID, nil
	case BatchOpDelete:
		var payload batchDeletePayload
		if err := json.Unmarshal(op.Data, &payload); err != nil {
			return "", domain.Validationf("batch", "malformed delete payload: %v", err)
		}
		if err := b.recipes.Delete(ctx, payload.ID); err != nil {
			return "", err
		}
		return strings.TrimSpace(payload.ID), nil
	default:
		return "", domain.Validationf("batch", "unknown operation type %q", op.Type)
	}
}
