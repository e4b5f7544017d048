package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/yungbote/recipevault-backend/internal/platform/envutil"
)

// Process-wide mutation counters. Initialized once at process start, read by
// the /metrics exposition handler, and deliberately kept outside the
// orchestrator's correctness path: a nil *Metrics is safe to call.

type Metrics struct {
	mutations       *CounterVec
	batchItems      *CounterVec
	imagesFetched   *Counter
	imagesFailed    *Counter
	imagesSkipped   *Counter
	nutritionCalls  *CounterVec
	searchSyncFails *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func Init() *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = &Metrics{
			mutations:       NewCounterVec("rv_mutations_total", "Recipe mutations by operation/outcome.", []string{"operation", "outcome"}),
			batchItems:      NewCounterVec("rv_batch_items_total", "Batch items by outcome.", []string{"outcome"}),
			imagesFetched:   NewCounter("rv_images_materialized_total", "Externally hosted images re-hosted into the blob store."),
			imagesFailed:    NewCounter("rv_images_failed_total", "Image fetches or uploads that failed (entry kept its original URL)."),
			imagesSkipped:   NewCounter("rv_images_skipped_total", "Image references already on the blob store domain."),
			nutritionCalls:  NewCounterVec("rv_nutrition_lookups_total", "Nutrition service lookups by outcome.", []string{"outcome"}),
			searchSyncFails: NewCounterVec("rv_search_sync_failures_total", "Swallowed search index failures by operation.", []string{"operation"}),
		}
	})
	return instance
}

func (m *Metrics) ObserveMutation(operation, outcome string) {
	if m == nil {
		return
	}
	m.mutations.Inc(operation, outcome)
}

func (m *Metrics) ObserveBatchItem(outcome string) {
	if m == nil {
		return
	}
	m.batchItems.Inc(outcome)
}

func (m *Metrics) ObserveImageMaterialized() {
	if m == nil {
		return
	}
	m.imagesFetched.Inc()
}

func (m *Metrics) ObserveImageFailed() {
	if m == nil {
		return
	}
	m.imagesFailed.Inc()
}

func (m *Metrics) ObserveImageSkipped() {
	if m == nil {
		return
	}
	m.imagesSkipped.Inc()
}

func (m *Metrics) ObserveNutritionLookup(outcome string) {
	if m == nil {
		return
	}
	m.nutritionCalls.Inc(outcome)
}

func (m *Metrics) ObserveSearchSyncFailure(operation string) {
	if m == nil {
		return
	}
	m.searchSyncFails.Inc(operation)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	if err := m.mutations.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.batchItems.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.imagesFetched.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.imagesFailed.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.imagesSkipped.WritePrometheus(w); err != nil {
		return err
	}
	if err := m.nutritionCalls.WritePrometheus(w); err != nil {
		return err
	}
	return m.searchSyncFails.WritePrometheus(w)
}

type Counter struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Inc() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val++
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s %g\n", c.name, c.Value())
	return err
}

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labelNames []string) *CounterVec {
	return &CounterVec{
		name:       name,
		help:       help,
		labelNames: labelNames,
		values:     make(map[string]float64),
	}
}

func (c *CounterVec) Inc(values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl]++
	c.mu.Unlock()
}

func (c *CounterVec) Value(values ...string) float64 {
	if c == nil {
		return 0
	}
	lbl := labelString(c.labelNames, values)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[lbl]
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s{%s} %g\n", c.name, k, c.values[k]); err != nil {
			c.mu.RUnlock()
			return err
		}
	}
	c.mu.RUnlock()
	return nil
}

func labelString(names, values []string) string {
	parts := make([]string, 0, len(names))
	for i, name := range names {
		val := ""
		if i < len(values) {
			val = values[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%q", name, val))
	}
	return strings.Join(parts, ",")
}
