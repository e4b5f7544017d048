package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/recipevault-backend/internal/domain"
	"github.com/yungbote/recipevault-backend/internal/platform/logger"
	"github.com/yungbote/recipevault-backend/internal/services"
)

// RecipeHandler is the HTTP front door over the mutation orchestrator.
type RecipeHandler struct {
	log     *logger.Logger
	recipes services.RecipeService
	batch   services.BatchService
}

func NewRecipeHandler(log *logger.Logger, recipes services.RecipeService, batch services.BatchService) *RecipeHandler {
	return &RecipeHandler{
		log:     log.With("handler", "RecipeHandler"),
		recipes: recipes,
		batch:   batch,
	}
}

func (h *RecipeHandler) Save(c *gin.Context) {
	var record domain.RecipeRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		respondError(c, domain.Validationf("create", "malformed request body: %v", err))
		return
	}
	overwrite, _ := strconv.ParseBool(c.Query("overwrite"))
	stored, err := h.recipes.Save(c.Request.Context(), &record, overwrite)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"recipe": stored})
}

func (h *RecipeHandler) Update(c *gin.Context) {
	var update domain.RecipeUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, domain.Validationf("update", "malformed request body: %v", err))
		return
	}
	updated, err := h.recipes.Update(c.Request.Context(), c.Param("id"), &update)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"recipe": updated})
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := h.recipes.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": id})
}

func (h *RecipeHandler) Get(c *gin.Context) {
	record, err := h.recipes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"recipe": record})
}

func (h *RecipeHandler) Status(c *gin.Context) {
	status, err := h.recipes.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"status": status})
}

func (h *RecipeHandler) Batch(c *gin.Context) {
	var req struct {
		Operations []services.BatchOperation `json:"operations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.Validationf("batch", "malformed request body: %v", err))
		return
	}
	results, err := h.batch.Execute(c.Request.Context(), req.Operations)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"results": results})
}
