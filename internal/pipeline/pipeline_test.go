package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spigell/applicant-pipeline/internal/ai"
	"github.com/spigell/applicant-pipeline/internal/airtable"
	"github.com/spigell/applicant-pipeline/internal/applicant"
	"go.uber.org/zap"
)

type fakeTables struct {
	data   map[string][]airtable.Record
	nextID int
}

func newFakeTables() *fakeTables {
	return &fakeTables{data: make(map[string][]airtable.Record)}
}

func (f *fakeTables) seed(table string, fields map[string]any) string {
	f.nextID++
	id := fmt.Sprintf("rec%03d", f.nextID)
	f.data[table] = append(f.data[table], airtable.Record{ID: id, Fields: fields})
	return id
}

func (f *fakeTables) FetchAll(_ context.Context, table, _ string) ([]airtable.Record, error) {
	return f.data[table], nil
}

func (f *fakeTables) FindByField(_ context.Context, table, field, value string) ([]airtable.Record, error) {
	var matches []airtable.Record
	for _, record := range f.data[table] {
		if record.StringField(field) == value || linkContains(record.Fields[field], value) {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

// linkContains mirrors the link-column matching of the real client's
// formula-based lookup, as in the applicant package's fake.
func linkContains(value any, id string) bool {
	switch v := value.(type) {
	case string:
		return v == id
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == id {
				return true
			}
		}
	case []string:
		for _, item := range v {
			if item == id {
				return true
			}
		}
	}
	return false
}

func (f *fakeTables) Create(_ context.Context, table string, fields map[string]any) (*airtable.Record, error) {
	id := f.seed(table, fields)
	return &airtable.Record{ID: id, Fields: fields}, nil
}

func (f *fakeTables) Update(_ context.Context, table, recordID string, fields map[string]any) (*airtable.Record, error) {
	for i := range f.data[table] {
		if f.data[table][i].ID != recordID {
			continue
		}
		if f.data[table][i].Fields == nil {
			f.data[table][i].Fields = make(map[string]any)
		}
		for k, v := range fields {
			f.data[table][i].Fields[k] = v
		}
		record := f.data[table][i]
		return &record, nil
	}
	return nil, &airtable.RequestError{Table: table, Status: 404, Body: "not found"}
}

func (f *fakeTables) Delete(_ context.Context, _, _ string) error { return nil }

func (f *fakeTables) applicantRow() airtable.Record {
	return f.data[airtable.TableApplicants][0]
}

type stubEvaluator struct {
	result *ai.Result
	err    error
	calls  int
}

func (s *stubEvaluator) Evaluate(_ context.Context, _, _ string) (*ai.Result, error) {
	s.calls++
	return s.result, s.err
}

func seedPipelineBase() *fakeTables {
	tables := newFakeTables()
	tables.seed(airtable.TableApplicants, map[string]any{applicant.FieldApplicantID: "APP-1"})
	tables.seed(airtable.TablePersonal, map[string]any{
		applicant.FieldApplicantID: []any{"APP-1"},
		applicant.FieldFullName:    "Jane Doe",
		applicant.FieldLocation:    "United States",
	})
	tables.seed(airtable.TableWork, map[string]any{
		applicant.FieldApplicantID: []any{"APP-1"},
		applicant.FieldCompany:     "Acme",
		applicant.FieldStart:       "2016-01-01",
		applicant.FieldEnd:         "2022-01-01",
	})
	tables.seed(airtable.TableSalary, map[string]any{
		applicant.FieldApplicantID:   []any{"APP-1"},
		applicant.FieldPreferredRate: float64(80),
		applicant.FieldAvailability:  "25 hrs/week",
	})
	return tables
}

func TestRunHappyPath(t *testing.T) {
	tables := seedPipelineBase()
	evaluator := &stubEvaluator{result: &ai.Result{
		Summary:   "Strong candidate.",
		Score:     8,
		FollowUps: "- Confirm start date",
		Success:   true,
	}}

	runner := New(tables, evaluator, zap.NewNop())
	if err := runner.Run(context.Background(), "APP-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row := tables.applicantRow()
	if row.StringField(applicant.FieldCompressedJSON) == "" {
		t.Fatal("expected compressed json written")
	}
	if row.Fields[applicant.FieldShortlistStatus] != true {
		t.Fatal("expected shortlist status written")
	}
	if row.StringField(applicant.FieldLLMSummary) != "Strong candidate." {
		t.Fatalf("expected summary written, got %q", row.StringField(applicant.FieldLLMSummary))
	}
	if row.Fields[applicant.FieldLLMScore] != 8 {
		t.Fatalf("expected score written, got %v", row.Fields[applicant.FieldLLMScore])
	}
	if row.StringField(applicant.FieldLLMFollowUps) != `•"Confirm start date"` {
		t.Fatalf("unexpected follow-ups: %q", row.StringField(applicant.FieldLLMFollowUps))
	}
	if evaluator.calls != 1 {
		t.Fatalf("expected one evaluation, got %d", evaluator.calls)
	}
}

func TestRunEvaluatorFailureDoesNotAbort(t *testing.T) {
	tables := seedPipelineBase()
	evaluator := &stubEvaluator{err: errors.New("model unavailable")}

	runner := New(tables, evaluator, zap.NewNop())
	if err := runner.Run(context.Background(), "APP-1"); err != nil {
		t.Fatalf("evaluator failure must not abort the pipeline, got %v", err)
	}

	row := tables.applicantRow()
	if row.Fields[applicant.FieldShortlistStatus] != true {
		t.Fatal("scorer effects must survive evaluator failure")
	}
	if _, ok := row.Fields[applicant.FieldLLMSummary]; ok {
		t.Fatal("no evaluation fields expected")
	}
}

func TestRunUnusableEvaluationSkipsWriteback(t *testing.T) {
	tables := seedPipelineBase()
	evaluator := &stubEvaluator{result: &ai.Result{Success: false, Error: "parse error"}}

	runner := New(tables, evaluator, zap.NewNop())
	if err := runner.Run(context.Background(), "APP-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := tables.applicantRow().Fields[applicant.FieldLLMSummary]; ok {
		t.Fatal("unusable evaluation must not be written back")
	}
}

func TestRunAbortsWhenApplicantMissing(t *testing.T) {
	tables := newFakeTables()
	evaluator := &stubEvaluator{}

	runner := New(tables, evaluator, zap.NewNop())
	err := runner.Run(context.Background(), "APP-404")
	if !errors.Is(err, airtable.ErrRecordNotFound) {
		t.Fatalf("expected not-found abort, got %v", err)
	}
	if evaluator.calls != 0 {
		t.Fatal("no evaluation expected when compression aborts")
	}
}
