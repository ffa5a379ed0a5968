// Package catalog exposes the site features (courses, events, reviews, team)
// on top of the client-side query adapter.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/mentneo/mentmine/pkg/config"
	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/query"
)

// ErrDecode is returned when a record does not fit its feature type.
var ErrDecode = errors.New("record decode failed")

// Querier runs a client-side query; *query.Adapter implements it.
type Querier interface {
	Query(ctx context.Context, collection string, cfg query.Config) ([]query.Record, error)
}

// CourseFilter narrows the course list.
type CourseFilter struct {
	FeaturedOnly bool
	// Category is ignored when empty.
	Category string
	// Sort overrides the default "-price" order.
	Sort  string
	Limit *int
}

// Service answers the feature queries.
type Service struct {
	q           Querier
	collections config.CatalogCollections
	logger      logger.Logger
}

// Cosa fa: collega le feature del sito alle collezioni configurate.
// Cosa NON fa: non legge direttamente lo storage, passa sempre dal Querier.
// Esempio minimo: svc := catalog.NewService(adapter, cfg.Catalog.Collections, log)
func NewService(q Querier, collections config.CatalogCollections, log logger.Logger) *Service {
	return &Service{q: q, collections: collections, logger: log}
}

// Courses lists courses; featured ones only when f.FeaturedOnly is set.
func (s *Service) Courses(ctx context.Context, f CourseFilter) ([]Course, error) {
	filters := query.Filters{}
	if f.FeaturedOnly {
		filters["featured"] = query.Eq(true)
	}
	var category any
	if f.Category != "" {
		category = f.Category
	}
	filters["category"] = query.IfPresent(query.Eq(category))

	sortField := f.Sort
	if sortField == "" {
		sortField = "-price"
	}
	return fetch[Course](ctx, s, s.collections.Courses, query.Config{
		Filters:   filters,
		SortField: sortField,
		Limit:     f.Limit,
	})
}

// UpcomingEvents lists events dated at or after now, soonest first.
func (s *Service) UpcomingEvents(ctx context.Context, now time.Time, limit *int) ([]Event, error) {
	return fetch[Event](ctx, s, s.collections.Events, query.Config{
		Filters:   query.Filters{"date": query.Cmp(query.OpGreaterOrEqual, now)},
		SortField: "date",
		Limit:     limit,
	})
}

// Reviews lists approved reviews, newest first.
func (s *Service) Reviews(ctx context.Context, limit *int) ([]Review, error) {
	return fetch[Review](ctx, s, s.collections.Reviews, query.Config{
		Filters:   query.Filters{"approved": query.Eq(true)},
		SortField: "-createdAt",
		Limit:     limit,
	})
}

// Team lists team members in display order.
func (s *Service) Team(ctx context.Context) ([]TeamMember, error) {
	return fetch[TeamMember](ctx, s, s.collections.Team, query.Config{SortField: "order"})
}

func fetch[T any](ctx context.Context, s *Service, collection string, cfg query.Config) ([]T, error) {
	records, err := s.q.Query(ctx, collection, cfg)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		var item T
		if err := Decode(rec, &item); err != nil {
			s.logger.Warn("skipping malformed record", "collection", collection, "id", rec.ID(), "error", err)
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// Decode copies a record into out, a pointer to a struct with mapstructure tags.
// Strings are weakly converted and RFC3339 strings decode into time.Time.
func Decode(rec query.Record, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			epochToZeroHook,
		),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := decoder.Decode(map[string]any(rec)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, rec.ID(), err)
	}
	return nil
}

// epochToZeroHook turns the epoch placeholder for absent timestamps back into
// the zero time so it is omitted by callers checking IsZero.
func epochToZeroHook(from, to reflect.Type, data any) (any, error) {
	if t, ok := data.(time.Time); ok && to == reflect.TypeOf(time.Time{}) && t.Equal(query.Epoch) {
		return time.Time{}, nil
	}
	return data, nil
}
