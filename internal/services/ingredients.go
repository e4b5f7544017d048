package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yungbote/recipevault-backend/internal/domain"
	"github.com/yungbote/recipevault-backend/internal/platform/nutrition"
)

// Free-text lines look like "<quantity><optional unit> <name>" where the
// quantity is a decimal or a simple fraction. Anything else is treated as a
// whole-string name with quantity 1.
var ingredientLineRe = regexp.MustCompile(`^\s*(\d+\s*/\s*\d+|\d*\.?\d+)\s*(?:([a-zA-Z]+)\s+)?(.*\S)\s*$`)

const defaultUnit = "unit"

// ParseIngredients turns a record's ingredient lines into the structured
// list the nutrition service accepts. Entries that resolve to an empty name
// or a non-positive quantity are dropped.
func ParseIngredients(entries []domain.Ingredient) []nutrition.ParsedIngredient {
	out := make([]nutrition.ParsedIngredient, 0, len(entries))
	for _, entry := range entries {
		var parsed nutrition.ParsedIngredient
		if entry.Raw != "" {
			parsed = parseIngredientLine(entry.Raw)
		} else {
			parsed = nutrition.ParsedIngredient{
				Name:     strings.TrimSpace(entry.Name),
				Quantity: entry.Quantity,
				Unit:     strings.TrimSpace(entry.Unit),
			}
			if parsed.Unit == "" {
				parsed.Unit = defaultUnit
			}
		}
		if parsed.Name == "" || parsed.Quantity <= 0 {
			continue
		}
		out = append(out, parsed)
	}
	return out
}

func parseIngredientLine(line string) nutrition.ParsedIngredient {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nutrition.ParsedIngredient{}
	}

	m := ingredientLineRe.FindStringSubmatch(trimmed)
	if m == nil {
		return nutrition.ParsedIngredient{Name: trimmed, Quantity: 1, Unit: defaultUnit}
	}

	qty, ok := parseQuantity(m[1])
	if !ok {
		return nutrition.ParsedIngredient{Name: trimmed, Quantity: 1, Unit: defaultUnit}
	}
	unit := strings.TrimSpace(m[2])
	if unit == "" {
		unit = defaultUnit
	}
	return nutrition.ParsedIngredient{
		Name:     strings.TrimSpace(m[3]),
		Quantity: qty,
		Unit:     unit,
	}
}

func parseQuantity(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, errN := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, errD := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if errN != nil || errD != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
