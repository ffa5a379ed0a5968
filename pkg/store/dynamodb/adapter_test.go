package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/query"
)

type mockLogger struct{}

func (m *mockLogger) Debug(string, ...any)                      {}
func (m *mockLogger) Info(string, ...any)                       {}
func (m *mockLogger) Warn(string, ...any)                       {}
func (m *mockLogger) Error(string, ...any)                      {}
func (m *mockLogger) With(...any) logger.Logger                 { return m }
func (m *mockLogger) WithContext(context.Context) logger.Logger { return m }

type fakeClient struct {
	pages    [][]map[string]types.AttributeValue
	scanErr  error
	listErr  error
	inputs   []*dynamodb.ScanInput
	scanned  int
	listHits int
}

func (f *fakeClient) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := &dynamodb.ScanOutput{}
	if f.scanned < len(f.pages) {
		out.Items = f.pages[f.scanned]
	}
	f.scanned++
	if f.scanned < len(f.pages) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: "cursor"},
		}
	}
	return out, nil
}

func (f *fakeClient) ListTables(context.Context, *dynamodb.ListTablesInput, ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	f.listHits++
	return &dynamodb.ListTablesOutput{}, f.listErr
}

func TestNewAdapter_Validation(t *testing.T) {
	_, err := NewAdapter(Config{}, &mockLogger{})
	if err == nil {
		t.Fatal("expected error for empty region")
	}
}

func TestFetchAll_Paginates(t *testing.T) {
	client := &fakeClient{pages: [][]map[string]types.AttributeValue{
		{
			{"id": &types.AttributeValueMemberS{Value: "a"}, "price": &types.AttributeValueMemberN{Value: "120"}},
		},
		{
			{"id": &types.AttributeValueMemberS{Value: "b"}, "price": &types.AttributeValueMemberN{Value: "99.5"}},
		},
	}}
	a := NewAdapterWithClient(client, Config{TablePrefix: "site_"}, &mockLogger{})

	records, err := a.FetchAll(context.Background(), "courses")
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(records) != 2 || records[0].ID() != "a" || records[1].ID() != "b" {
		t.Fatalf("unexpected records: %v", records)
	}
	if records[0]["price"] != int64(120) || records[1]["price"] != 99.5 {
		t.Fatalf("numbers not decoded: %#v %#v", records[0]["price"], records[1]["price"])
	}
	if len(client.inputs) != 2 {
		t.Fatalf("expected 2 scan calls, got %d", len(client.inputs))
	}
	if got := aws.ToString(client.inputs[0].TableName); got != "site_courses" {
		t.Fatalf("table name = %q", got)
	}
	if client.inputs[1].ExclusiveStartKey == nil {
		t.Fatal("second page must continue from the last evaluated key")
	}
}

func TestFetchAll_CustomIDAttribute(t *testing.T) {
	client := &fakeClient{pages: [][]map[string]types.AttributeValue{
		{{"slug": &types.AttributeValueMemberS{Value: "go-101"}}},
	}}
	a := NewAdapterWithClient(client, Config{IDAttribute: "slug"}, &mockLogger{})

	records, err := a.FetchAll(context.Background(), "courses")
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if records[0].ID() != "go-101" {
		t.Fatalf("id = %q, want go-101", records[0].ID())
	}
}

func TestFetchAll_Errors(t *testing.T) {
	notFound := &types.ResourceNotFoundException{Message: aws.String("no table")}
	a := NewAdapterWithClient(&fakeClient{scanErr: notFound}, Config{}, &mockLogger{})
	_, err := a.FetchAll(context.Background(), "courses")
	if !errors.As(err, &notFound) {
		t.Fatalf("expected wrapped ResourceNotFoundException, got %v", err)
	}

	a.Close()
	if _, err := a.FetchAll(context.Background(), "courses"); err == nil {
		t.Fatal("expected error when closed")
	}
}

func TestToRecord(t *testing.T) {
	item := map[string]types.AttributeValue{
		"id":   &types.AttributeValueMemberS{Value: "c1"},
		"s":    &types.AttributeValueMemberS{Value: "x"},
		"b":    &types.AttributeValueMemberBOOL{Value: true},
		"null": &types.AttributeValueMemberNULL{Value: true},
		"l":    &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberN{Value: "1"}}},
		"ss":   &types.AttributeValueMemberSS{Value: []string{"a", "b"}},
		"ns":   &types.AttributeValueMemberNS{Value: []string{"2", "2.5"}},
		"ts":   &types.AttributeValueMemberS{Value: "2025-01-01T00:00:00Z"},
		"big":  &types.AttributeValueMemberN{Value: "4611686018427387905"},
		"nested": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"n": &types.AttributeValueMemberN{Value: "-3"},
		}},
	}
	a := NewAdapterWithClient(&fakeClient{}, Config{}, &mockLogger{})

	m, err := a.toRecord(item)
	if err != nil {
		t.Fatalf("toRecord() error = %v", err)
	}
	if m.ID() != "c1" {
		t.Fatalf("id = %q, want c1", m.ID())
	}
	if m["s"] != "x" || m["b"] != true || m["null"] != nil {
		t.Fatalf("scalar decoding failed: %#v", m)
	}
	if l := m["l"].([]any); l[0] != int64(1) {
		t.Fatalf("list decoding failed: %#v", l)
	}
	if ss := m["ss"].([]any); len(ss) != 2 || ss[1] != "b" {
		t.Fatalf("string set decoding failed: %#v", ss)
	}
	if ns := m["ns"].([]any); ns[0] != int64(2) || ns[1] != 2.5 {
		t.Fatalf("number set decoding failed: %#v", ns)
	}
	if m["ts"] != "2025-01-01T00:00:00Z" {
		t.Fatal("strings must stay strings; timestamp handling belongs to the query layer")
	}
	if m["big"] != int64(1<<62+1) {
		t.Fatalf("large integers must keep precision, got %#v", m["big"])
	}
	if n := m["nested"].(map[string]any); n["n"] != int64(-3) {
		t.Fatalf("nested map decoding failed: %#v", n)
	}
}

func TestToRecord_NumericIDBecomesString(t *testing.T) {
	a := NewAdapterWithClient(&fakeClient{}, Config{}, &mockLogger{})
	rec, err := a.toRecord(map[string]types.AttributeValue{"id": &types.AttributeValueMemberN{Value: "42"}})
	if err != nil {
		t.Fatalf("toRecord() error = %v", err)
	}
	if rec.ID() != "42" {
		t.Fatalf("id = %#v, want \"42\"", rec[query.IDField])
	}
}

func TestPing(t *testing.T) {
	client := &fakeClient{}
	a := NewAdapterWithClient(client, Config{OperationTimeout: time.Second}, &mockLogger{})
	if err := a.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}

	client.listErr = errors.New("denied")
	if err := a.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check error")
	}
}

func TestPing_WhenClosed(t *testing.T) {
	a := &Adapter{closed: true, logger: &mockLogger{}}
	if err := a.Ping(context.Background()); err == nil {
		t.Fatal("expected error when closed")
	}
}

func TestClose_Idempotent(t *testing.T) {
	a := &Adapter{}
	if err := a.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
}

func TestWithOperationTimeout_PreservesCallerDeadline(t *testing.T) {
	a := &Adapter{timeout: 2 * time.Second}
	parentCtx, parentCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer parentCancel()

	ctx, cancel := a.withOperationTimeout(parentCtx)
	defer cancel()

	parentDeadline, _ := parentCtx.Deadline()
	gotDeadline, _ := ctx.Deadline()
	if !gotDeadline.Equal(parentDeadline) {
		t.Fatalf("expected caller deadline to be preserved, got %v want %v", gotDeadline, parentDeadline)
	}
}
