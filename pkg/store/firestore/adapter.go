// Package firestore reads whole collections from Google Cloud Firestore.
//
// When FIRESTORE_EMULATOR_HOST is set the client talks to the emulator and
// credentials are not required.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/observability/tracing"
	"github.com/mentneo/mentmine/pkg/query"
)

// Adapter reads collections through a Firestore client.
type Adapter struct {
	client  *firestore.Client
	logger  logger.Logger
	timeout time.Duration
	mu      sync.RWMutex
	closed  bool
}

// Config holds Firestore adapter configuration.
type Config struct {
	ProjectID        string
	CredentialsFile  string
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
}

// Cosa fa: crea il client Firestore e verifica che il progetto sia raggiungibile.
// Cosa NON fa: non crea collezioni né indici compositi.
// Esempio minimo: adapter, err := firestore.NewAdapter(cfg, log)
func NewAdapter(cfg Config, log logger.Logger) (*Adapter, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore project ID is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	a := &Adapter{client: client, logger: log, timeout: cfg.OperationTimeout}
	if err := a.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach firestore: %w", err)
	}

	log.Info("Firestore client ready", "project_id", cfg.ProjectID)
	return a, nil
}

// FetchAll reads every document of the collection in one bulk read.
func (a *Adapter) FetchAll(ctx context.Context, collection string) ([]query.Record, error) {
	ctx, span := tracing.StartStoreSpan(ctx, "firestore", collection)
	defer span.End()

	a.mu.RLock()
	closed := a.closed
	a.mu.RUnlock()
	if closed {
		err := errors.New("firestore adapter is closed")
		tracing.RecordError(span, err)
		return nil, err
	}

	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	snapshots, err := a.client.Collection(collection).Documents(opCtx).GetAll()
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("firestore read %s: %w", collection, err)
	}

	records := make([]query.Record, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || !snap.Exists() {
			continue
		}
		records = append(records, toRecord(snap.Ref.ID, snap.Data()))
	}
	return records, nil
}

// Ping lists at most one collection to prove the project answers.
func (a *Adapter) Ping(ctx context.Context) error {
	_, err := a.client.Collections(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

// HealthCheck verifies Firestore connectivity with a bounded timeout.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	hcCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.Ping(hcCtx); err != nil {
		a.logger.Error("Firestore health check failed", "error", err)
		return fmt.Errorf("firestore health check failed: %w", err)
	}
	return nil
}

// Close releases the client; repeated calls are no-ops.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	if err := a.client.Close(); err != nil {
		return fmt.Errorf("failed to close firestore client: %w", err)
	}
	return nil
}

func (a *Adapter) withOperationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}

func toRecord(id string, data map[string]any) query.Record {
	rec := make(query.Record, len(data)+1)
	for k, v := range data {
		rec[k] = convertValue(v)
	}
	rec[query.IDField] = id
	return rec
}

// convertValue maps Firestore-specific values to plain Go values.
// Timestamps already arrive as time.Time.
func convertValue(v any) any {
	switch val := v.(type) {
	case *firestore.DocumentRef:
		if val == nil {
			return nil
		}
		return val.Path
	case time.Time:
		return val.UTC()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = convertValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = convertValue(item)
		}
		return out
	default:
		return v
	}
}
