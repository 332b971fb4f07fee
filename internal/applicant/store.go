package applicant

import (
	"context"
	"fmt"

	"github.com/spigell/applicant-pipeline/internal/ai"
	"github.com/spigell/applicant-pipeline/internal/airtable"
	"go.uber.org/zap"
)

// TableStore is the slice of the table client used by this package.
type TableStore interface {
	FetchAll(ctx context.Context, table, formula string) ([]airtable.Record, error)
	FindByField(ctx context.Context, table, field, value string) ([]airtable.Record, error)
	Create(ctx context.Context, table string, fields map[string]any) (*airtable.Record, error)
	Update(ctx context.Context, table, recordID string, fields map[string]any) (*airtable.Record, error)
	Delete(ctx context.Context, table, recordID string) error
}

// Store provides applicant-level operations on top of the raw table client.
type Store struct {
	tables TableStore
	logger *zap.Logger
}

func NewStore(tables TableStore, logger *zap.Logger) *Store {
	return &Store{tables: tables, logger: logger}
}

// FindApplicant resolves an applicant business key to its parent record.
func (s *Store) FindApplicant(ctx context.Context, applicantID string) (*airtable.Record, error) {
	rows, err := s.tables.FindByField(ctx, airtable.TableApplicants, FieldApplicantID, applicantID)
	if err != nil {
		return nil, fmt.Errorf("looking up applicant %q: %w", applicantID, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("applicant %q: %w", applicantID, airtable.ErrRecordNotFound)
	}

	return &rows[0], nil
}

// WriteCompressedJSON stores the serialized document on the parent record.
func (s *Store) WriteCompressedJSON(ctx context.Context, recordID, payload string) error {
	_, err := s.tables.Update(ctx, airtable.TableApplicants, recordID, map[string]any{
		FieldCompressedJSON: payload,
	})
	if err != nil {
		return fmt.Errorf("writing compressed document: %w", err)
	}

	return nil
}

// WriteShortlistStatus records the scorer's boolean verdict on the parent record.
func (s *Store) WriteShortlistStatus(ctx context.Context, recordID string, passed bool) error {
	_, err := s.tables.Update(ctx, airtable.TableApplicants, recordID, map[string]any{
		FieldShortlistStatus: passed,
	})
	if err != nil {
		return fmt.Errorf("writing shortlist status: %w", err)
	}

	return nil
}

// WriteEvaluation persists the LLM result on the applicant row. Follow-ups
// are flattened to a single line because the storage field has no multi-line
// support. Failures are logged and returned.
func (s *Store) WriteEvaluation(ctx context.Context, applicantID string, result *ai.Result) error {
	record, err := s.FindApplicant(ctx, applicantID)
	if err != nil {
		return err
	}

	fields := map[string]any{
		FieldLLMSummary:   result.Summary,
		FieldLLMScore:     result.Score,
		FieldLLMFollowUps: ai.FormatFollowUps(result.FollowUps),
	}

	if _, err := s.tables.Update(ctx, airtable.TableApplicants, record.ID, fields); err != nil {
		s.logger.Error("writing evaluation result failed",
			zap.String("applicant_id", applicantID),
			zap.Error(err),
		)
		return fmt.Errorf("writing evaluation result: %w", err)
	}

	s.logger.Info("evaluation result saved",
		zap.String("applicant_id", applicantID),
		zap.Int("score", result.Score),
	)

	return nil
}

// FindLead returns existing shortlisted-lead rows for the applicant.
func (s *Store) FindLead(ctx context.Context, applicantID string) ([]airtable.Record, error) {
	return s.tables.FindByField(ctx, airtable.TableShortlisted, FieldLeadApplicant, applicantID)
}

// CreateLead records a shortlisted lead referencing the applicant record,
// with a copy of the document and the audit reason.
func (s *Store) CreateLead(ctx context.Context, applicantRecordID, documentJSON, reason string) error {
	_, err := s.tables.Create(ctx, airtable.TableShortlisted, map[string]any{
		FieldLeadApplicant:  []string{applicantRecordID},
		FieldCompressedJSON: documentJSON,
		FieldScoreReason:    reason,
	})
	if err != nil {
		return fmt.Errorf("creating shortlisted lead: %w", err)
	}

	return nil
}
