package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/observability/tracing"
	"github.com/mentneo/mentmine/pkg/query"
)

// Client is the subset of the DynamoDB API the adapter uses.
type Client interface {
	dynamodb.ScanAPIClient
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

// Adapter reads whole tables from DynamoDB. Each collection is a table whose
// partition key attribute is named by Config.IDAttribute.
type Adapter struct {
	client      Client
	logger      logger.Logger
	timeout     time.Duration
	tablePrefix string
	idAttribute string
	mu          sync.RWMutex
	closed      bool
}

// Config holds DynamoDB adapter configuration.
type Config struct {
	Region           string
	Endpoint         string
	AccessKeyID      string
	SecretAccessKey  string
	SessionToken     string
	TablePrefix      string
	IDAttribute      string
	OperationTimeout time.Duration
}

// Cosa fa: costruisce client DynamoDB (AWS SDK v2) con supporto endpoint custom.
// Cosa NON fa: non crea tabelle o throughput policy.
// Esempio minimo: adapter, err := dynamodb.NewAdapter(cfg, log)
func NewAdapter(cfg Config, log logger.Logger) (*Adapter, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("aws region is required")
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = 5 * time.Second
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	var opts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	adapter := NewAdapterWithClient(dynamodb.NewFromConfig(awsCfg, opts...), cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OperationTimeout)
	defer cancel()
	if err := adapter.Ping(ctx); err != nil {
		return nil, err
	}

	log.Info("DynamoDB adapter initialized", "region", cfg.Region, "endpoint", cfg.Endpoint)
	return adapter, nil
}

// NewAdapterWithClient wraps an existing client without probing it.
func NewAdapterWithClient(client Client, cfg Config, log logger.Logger) *Adapter {
	idAttr := strings.TrimSpace(cfg.IDAttribute)
	if idAttr == "" {
		idAttr = query.IDField
	}
	return &Adapter{
		client:      client,
		logger:      log,
		timeout:     cfg.OperationTimeout,
		tablePrefix: cfg.TablePrefix,
		idAttribute: idAttr,
	}
}

// FetchAll scans every page of the collection's table.
func (a *Adapter) FetchAll(ctx context.Context, collection string) ([]query.Record, error) {
	if a.isClosed() {
		return nil, fmt.Errorf("dynamodb adapter is closed")
	}
	ctx, span := tracing.StartStoreSpan(ctx, "dynamodb", collection)
	defer span.End()

	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	table := a.tablePrefix + collection
	paginator := dynamodb.NewScanPaginator(a.client, &dynamodb.ScanInput{
		TableName:      aws.String(table),
		ConsistentRead: aws.Bool(true),
	})

	var records []query.Record
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(opCtx)
		if err != nil {
			tracing.RecordError(span, err)
			var notFound *types.ResourceNotFoundException
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("dynamodb table %s not found: %w", table, err)
			}
			return nil, fmt.Errorf("dynamodb scan %s: %w", table, err)
		}
		for _, item := range page.Items {
			rec, err := a.toRecord(item)
			if err != nil {
				tracing.RecordError(span, err)
				return nil, fmt.Errorf("decode %s item: %w", table, err)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func (a *Adapter) toRecord(item map[string]types.AttributeValue) (query.Record, error) {
	var doc map[string]any
	err := attributevalue.UnmarshalMapWithOptions(item, &doc, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, err
	}
	rec := query.Record(convertNumbers(doc).(map[string]any))
	if a.idAttribute != query.IDField {
		if id, ok := rec[a.idAttribute]; ok {
			rec[query.IDField] = fmt.Sprint(id)
		}
	} else if id, ok := rec[query.IDField]; ok {
		if _, isString := id.(string); !isString {
			rec[query.IDField] = fmt.Sprint(id)
		}
	}
	return rec, nil
}

// convertNumbers replaces attributevalue.Number with int64 when the value is
// integral and float64 otherwise. Number sets become []any.
func convertNumbers(v any) any {
	switch t := v.(type) {
	case attributevalue.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []attributevalue.Number:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = convertNumbers(n)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case map[string]any:
		for k, val := range t {
			t[k] = convertNumbers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = convertNumbers(val)
		}
		return t
	}
	return v
}

func (a *Adapter) isClosed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.closed
}

func (a *Adapter) Ping(ctx context.Context) error {
	if a.isClosed() {
		return fmt.Errorf("dynamodb adapter is closed")
	}

	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	_, err := a.client.ListTables(opCtx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
	if err != nil {
		return fmt.Errorf("dynamodb ping failed: %w", err)
	}
	return nil
}

func (a *Adapter) HealthCheck(ctx context.Context) error {
	hcCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.Ping(hcCtx); err != nil {
		a.logger.Error("DynamoDB health check failed", "error", err)
		return fmt.Errorf("dynamodb health check failed: %w", err)
	}
	return nil
}

func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
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
