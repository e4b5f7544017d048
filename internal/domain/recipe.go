package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"

	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RecipeRecord is the canonical durable shape of one recipe. The identifier
// is derived from SourceURL (see RecordID) and never changes afterwards.
type RecipeRecord struct {
	ID                string       `json:"id"`
	SourceURL         string       `json:"sourceUrl"`
	Title             string       `json:"title,omitempty"`
	Description       string       `json:"description,omitempty"`
	Cuisine           string       `json:"cuisine,omitempty"`
	Author            string       `json:"author,omitempty"`
	Ingredients       []Ingredient `json:"ingredients,omitempty"`
	Instructions      []string     `json:"instructions,omitempty"`
	Tags              []string     `json:"tags,omitempty"`
	Servings          Yield        `json:"servings,omitempty"`
	PrepTime          string       `json:"prepTime,omitempty"`
	CookTime          string       `json:"cookTime,omitempty"`
	TotalTime         string       `json:"totalTime,omitempty"`
	ImageURL          string       `json:"imageUrl,omitempty"`
	Images            []string     `json:"images,omitempty"`
	OriginalImageURLs []string     `json:"originalImageUrls,omitempty"`
	Nutrition         *Nutrition   `json:"nutrition,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
	Version           int          `json:"version"`
}

// Ingredient is one ingredient line. Source payloads carry these either as a
// plain string ("2 cups flour") or as a structured object; Raw holds the
// original text in the plain-string case and wins on re-marshal so stored
// records keep the shape they arrived in.
// Quantity and Unit are never omitted for structured entries: an explicit
// zero quantity must survive a store round trip, which omitempty would
// collapse into the absent-key default of 1.
type Ingredient struct {
	Name     string  `json:"name,omitempty"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Raw      string  `json:"-"`
}

func (ing Ingredient) MarshalJSON() ([]byte, error) {
	if ing.Raw != "" {
		return json.Marshal(ing.Raw)
	}
	type plain Ingredient
	return json.Marshal(plain(ing))
}

// Structured sources disagree on key names, so each field is resolved
// through an ordered alias chain, first decodable match wins. Defaults
// (quantity 1, unit "unit") apply only to keys that are entirely absent; an
// explicit non-positive quantity or empty unit is kept as written so
// downstream parsing can drop the entry and a stored record decodes back to
// exactly what was encoded.
var (
	ingredientNameKeys     = []string{"name", "ingredient", "item"}
	ingredientQuantityKeys = []string{"quantity", "amount", "value"}
	ingredientUnitKeys     = []string{"unit", "measure"}
)

func (ing *Ingredient) UnmarshalJSON(data []byte) error {
	var line string
	if err := json.Unmarshal(data, &line); err == nil {
		*ing = Ingredient{Raw: line}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	out := Ingredient{Quantity: 1, Unit: "unit"}
	for _, key := range ingredientNameKeys {
		var s string
		if raw, ok := fields[key]; ok && json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
			out.Name = strings.TrimSpace(s)
			break
		}
	}
	for _, key := range ingredientQuantityKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var f float64
		if json.Unmarshal(raw, &f) == nil {
			out.Quantity = f
			break
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				out.Quantity = f
				break
			}
		}
	}
	for _, key := range ingredientUnitKeys {
		var s string
		if raw, ok := fields[key]; ok && json.Unmarshal(raw, &s) == nil {
			out.Unit = strings.TrimSpace(s)
			break
		}
	}
	*ing = out
	return nil
}

// Text returns the free-text form of the line, falling back to the
// structured name for object-shaped entries.
func (ing Ingredient) Text() string {
	if ing.Raw != "" {
		return ing.Raw
	}
	return ing.Name
}

// Yield is a serving count that sources express either as a positive integer
// or as free text ("4-6 portions"). Integer values round-trip as JSON
// numbers.
type Yield string

func (y Yield) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(y))
	if s == "" {
		return []byte(`""`), nil
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return json.Marshal(n)
	}
	return json.Marshal(s)
}

func (y *Yield) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*y = Yield(strconv.Itoa(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*y = Yield(strings.TrimSpace(s))
	return nil
}

// Count returns the numeric serving count, or 0 when the yield is textual.
func (y Yield) Count() int {
	n, err := strconv.Atoi(strings.TrimSpace(string(y)))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// Nutrition holds computed per-recipe nutrition facts. Absent until the
// enrichment step has run successfully.
type Nutrition struct {
	Calories      float64 `json:"calories,omitempty"`
	ProteinG      float64 `json:"proteinG,omitempty"`
	CarbsG        float64 `json:"carbsG,omitempty"`
	FatG          float64 `json:"fatG,omitempty"`
	FiberG        float64 `json:"fiberG,omitempty"`
	SugarG        float64 `json:"sugarG,omitempty"`
	SodiumMg      float64 `json:"sodiumMg,omitempty"`
	PerServing    bool    `json:"perServing,omitempty"`
	Source        string  `json:"source,omitempty"`
	ComputedAtUTC string  `json:"computedAt,omitempty"`
}

// OperationStatus is the journal entry for the latest mutation attempt
// against one record identifier, success or failure. It is overwritten by
// the next attempt and never deleted on its own.
type OperationStatus struct {
	Status    string    `json:"status"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// RecipeUpdate carries partial updates for the update operation. Nil fields
// are left untouched on the stored record.
type RecipeUpdate struct {
	Title        *string      `json:"title,omitempty"`
	Description  *string      `json:"description,omitempty"`
	Cuisine      *string      `json:"cuisine,omitempty"`
	Author       *string      `json:"author,omitempty"`
	Ingredients  []Ingredient `json:"ingredients,omitempty"`
	Instructions []string     `json:"instructions,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	Servings     *Yield       `json:"servings,omitempty"`
	PrepTime     *string      `json:"prepTime,omitempty"`
	CookTime     *string      `json:"cookTime,omitempty"`
	TotalTime    *string      `json:"totalTime,omitempty"`
	ImageURL     *string      `json:"imageUrl,omitempty"`
	Images       []string     `json:"images,omitempty"`
}
