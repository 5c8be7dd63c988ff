package analytics

import (
	"context"
	"sync"

	"github.com/bloomcare/bloom-waitlist/internal/models"
)

// Totals is a snapshot of every counter.
type Totals struct {
	PageViews         map[string]int
	CTAClicks         int
	FormSubmits       int
	PricingSelections map[string]int
}

type AnalyticsRepository interface {
	// Record stores event and returns the count the page asked about: views of the page,
	// clicks on the same CTA of the page, or events of that type on the page.
	Record(ctx context.Context, event *models.AnalyticsEvent) (int, error)
	Totals(ctx context.Context) (Totals, error)
}

type counterKey struct {
	eventType models.AnalyticsEventType
	page      string
	detail    string
}

// DefaultMaxCounters caps the distinct (type, page, detail) counters kept in memory.
const DefaultMaxCounters = 10000

// OverflowLabel replaces the page and detail of events that arrive once the cap is hit.
const OverflowLabel = "(other)"

// memoryRepository keeps counters rather than raw events. Pages, CTA names and pricing
// options come from the client, so once maxKeys counters exist new keys are folded into
// OverflowLabel.
type memoryRepository struct {
	mu       sync.Mutex
	counters map[counterKey]int
	maxKeys  int
}

func NewMemoryRepository() AnalyticsRepository {
	return newMemoryRepository(DefaultMaxCounters)
}

func newMemoryRepository(maxKeys int) *memoryRepository {
	return &memoryRepository{counters: make(map[counterKey]int), maxKeys: maxKeys}
}

func (r *memoryRepository) Record(_ context.Context, event *models.AnalyticsEvent) (int, error) {
	key := counterKey{eventType: event.Type, page: event.Page}
	switch event.Type {
	case models.EventCTAClick:
		key.detail = stringProperty(event.Properties, "ctaName")
	case models.EventPricingOptionSelect:
		key.detail = stringProperty(event.Properties, "pricingOption")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.counters[key]; !ok && len(r.counters) >= r.maxKeys {
		key.page = OverflowLabel
		if key.detail != "" {
			key.detail = OverflowLabel
		}
	}

	r.counters[key]++
	return r.counters[key], nil
}

func stringProperty(props map[string]any, name string) string {
	s, _ := props[name].(string)
	return s
}

func (r *memoryRepository) Totals(context.Context) (Totals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	totals := Totals{
		PageViews:         make(map[string]int),
		PricingSelections: make(map[string]int),
	}
	for key, n := range r.counters {
		switch key.eventType {
		case models.EventPageView:
			totals.PageViews[key.page] += n
		case models.EventCTAClick:
			totals.CTAClicks += n
		case models.EventFormSubmit:
			totals.FormSubmits += n
		case models.EventPricingOptionSelect:
			totals.PricingSelections[key.detail] += n
		}
	}
	return totals, nil
}
