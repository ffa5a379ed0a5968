// Package query fetches a whole collection from a backing document store and
// performs filtering, sorting and limiting in memory, so the store needs no
// composite indexes.
//
// Every call is a full collection scan. This is a scalability ceiling, not a
// long-term design: Adapter reports the scan size and warns above a threshold.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/observability/tracing"
)

// Source performs the single bulk read of a collection.
type Source interface {
	FetchAll(ctx context.Context, collection string) ([]Record, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, collection string) ([]Record, error)

// FetchAll implements Source.
func (f SourceFunc) FetchAll(ctx context.Context, collection string) ([]Record, error) {
	return f(ctx, collection)
}

// Config selects, orders and bounds the records of one query.
type Config struct {
	Filters Filters
	// SortField names the field to order by; a leading "-" sorts descending.
	SortField string
	// Limit bounds the result size when set; negative values are ignored.
	Limit *int
}

// Limit returns a pointer suitable for Config.Limit.
func Limit(n int) *int { return &n }

// Observer receives one notification per query.
type Observer interface {
	ObserveQuery(collection string, scanned, returned int, duration time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveQuery(string, int, int, time.Duration, error) {}

// Options tunes an Adapter.
type Options struct {
	// TimestampFields are normalized on every record. Defaults to DefaultTimestampFields.
	TimestampFields []string
	// Collation enables locale-aware string ordering when set (for example "it" or "en-US").
	Collation string
	// ScanWarnThreshold logs a warning when a collection scan returns more records. Zero disables it.
	ScanWarnThreshold int
	Observer          Observer
}

// Adapter runs client-side queries against a Source.
// It keeps no state between calls and is safe for concurrent use.
type Adapter struct {
	source          Source
	logger          logger.Logger
	observer        Observer
	timestampFields map[string]struct{}
	collation       language.Tag
	useCollation    bool
	scanWarn        int
}

// NewAdapter creates an Adapter reading from source.
func NewAdapter(source Source, log logger.Logger, opts Options) (*Adapter, error) {
	if source == nil {
		return nil, invalidConfig("source is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	fields := opts.TimestampFields
	if len(fields) == 0 {
		fields = DefaultTimestampFields
	}
	a := &Adapter{
		source:          source,
		logger:          log,
		observer:        opts.Observer,
		timestampFields: timestampFieldSet(fields),
		scanWarn:        opts.ScanWarnThreshold,
	}
	if a.observer == nil {
		a.observer = nopObserver{}
	}
	if tag := strings.TrimSpace(opts.Collation); tag != "" {
		parsed, err := language.Parse(tag)
		if err != nil {
			return nil, invalidConfig(fmt.Sprintf("collation %q: %v", tag, err))
		}
		a.collation = parsed
		a.useCollation = true
	}
	return a, nil
}

// Query returns the records of collection that match cfg, sorted and limited.
// It performs exactly one bulk read. No matches yields an empty, non-nil slice.
func (a *Adapter) Query(ctx context.Context, collection string, cfg Config) ([]Record, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, invalidConfig("collection name is required")
	}

	start := time.Now()
	ctx, span := tracing.StartQuerySpan(ctx, collection)
	defer span.End()

	raw, err := a.source.FetchAll(ctx, collection)
	if err != nil {
		dataErr := &DataAccessError{Collection: collection, Err: err}
		tracing.RecordError(span, dataErr)
		a.observer.ObserveQuery(collection, 0, 0, time.Since(start), dataErr)
		a.logger.WithContext(ctx).Error("collection read failed", "collection", collection, "error", err)
		return nil, dataErr
	}

	if a.scanWarn > 0 && len(raw) > a.scanWarn {
		a.logger.WithContext(ctx).Warn("full collection scan above threshold",
			"collection", collection,
			"scanned", len(raw),
			"threshold", a.scanWarn,
		)
	}

	cmp := a.comparer()
	filters := cfg.Filters.prepare(a.timestampFields)
	out := make([]Record, 0, len(raw))
	for _, rec := range raw {
		if rec == nil {
			continue
		}
		norm := normalizeRecord(rec, a.timestampFields)
		if filters.match(cmp, norm) {
			out = append(out, norm)
		}
	}

	if field, desc, ok := ParseSortField(cfg.SortField); ok {
		sortRecords(cmp, out, field, desc)
	}

	if cfg.Limit != nil && *cfg.Limit >= 0 && *cfg.Limit < len(out) {
		out = out[:*cfg.Limit]
	}

	tracing.SetQueryResult(span, len(raw), len(out))
	a.observer.ObserveQuery(collection, len(raw), len(out), time.Since(start), nil)
	a.logger.WithContext(ctx).Debug("query executed",
		"collection", collection,
		"filters", len(filters),
		"sort", cfg.SortField,
		"scanned", len(raw),
		"returned", len(out),
	)
	return out, nil
}

// comparer builds a per-call comparer; collators are not safe for concurrent use.
func (a *Adapter) comparer() comparer {
	if !a.useCollation {
		return comparer{}
	}
	return comparer{collator: collate.New(a.collation)}
}

// ParseSortField splits a sort expression into field and direction.
// It reports false when no usable field remains.
func ParseSortField(raw string) (field string, desc bool, ok bool) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "-") {
		desc = true
		raw = strings.TrimSpace(raw[1:])
	}
	if raw == "" {
		return "", false, false
	}
	return raw, desc, true
}

// sortRecords orders records by field, keeping fetch order for ties.
func sortRecords(c comparer, records []Record, field string, desc bool) {
	sort.SliceStable(records, func(i, j int) bool {
		r := c.compare(records[i][field], records[j][field])
		if desc {
			return r > 0
		}
		return r < 0
	})
}
