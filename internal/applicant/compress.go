package applicant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spigell/applicant-pipeline/internal/airtable"
	"go.uber.org/zap"
)

// Compressor gathers one applicant's rows across the four logical tables
// into a single normalized document and writes the serialized form back onto
// the parent record.
type Compressor struct {
	store  *Store
	tables TableStore
	logger *zap.Logger
	now    func() time.Time
}

func NewCompressor(tables TableStore, logger *zap.Logger) *Compressor {
	return &Compressor{
		store:  NewStore(tables, logger),
		tables: tables,
		logger: logger,
		now:    time.Now,
	}
}

// Compress builds the document for the applicant and persists it into the
// parent record's compressed-JSON column. The in-memory document is
// returned; the stored form is its indented serialization.
func (c *Compressor) Compress(ctx context.Context, applicantID string) (*Document, error) {
	parent, err := c.store.FindApplicant(ctx, applicantID)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Version:     DocumentVersion,
		ApplicantID: applicantID,
		Meta: Meta{
			CompressedAt:      c.now().UTC().Format(time.RFC3339),
			CompressorVersion: CompressorVersion,
		},
	}

	personal, err := c.tables.FindByField(ctx, airtable.TablePersonal, FieldApplicantID, applicantID)
	if err != nil {
		return nil, err
	}
	if len(personal) > 0 {
		if err := decodeFields(personal[0].Fields, &doc.Personal); err != nil {
			c.logger.Warn("personal row has unusable fields",
				zap.String("applicant_id", applicantID),
				zap.Error(err),
			)
		}
	}

	doc.Experience, err = c.collectExperience(ctx, applicantID)
	if err != nil {
		return nil, err
	}

	salary, err := c.tables.FindByField(ctx, airtable.TableSalary, FieldApplicantID, applicantID)
	if err != nil {
		return nil, err
	}
	if len(salary) > 0 {
		if err := decodeFields(salary[0].Fields, &doc.Salary); err != nil {
			c.logger.Warn("salary row has unusable fields",
				zap.String("applicant_id", applicantID),
				zap.Error(err),
			)
		}
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	if err := c.store.WriteCompressedJSON(ctx, parent.ID, string(payload)); err != nil {
		return nil, err
	}

	c.logger.Info("compressed applicant document",
		zap.String("applicant_id", applicantID),
		zap.Int("experience_rows", len(doc.Experience)),
	)

	return doc, nil
}

// collectExperience fetches the whole work table and filters client-side,
// because the work table's applicant link column is multi-valued and the
// formula language cannot match inside it reliably.
func (c *Compressor) collectExperience(ctx context.Context, applicantID string) ([]Experience, error) {
	rows, err := c.tables.FetchAll(ctx, airtable.TableWork, "")
	if err != nil {
		return nil, err
	}

	var entries []Experience
	for _, row := range rows {
		if !linkContains(row.Fields[FieldApplicantID], applicantID) {
			continue
		}

		var entry Experience
		if err := decodeFields(row.Fields, &entry); err != nil {
			c.logger.Warn("work row has unusable fields",
				zap.String("applicant_id", applicantID),
				zap.String("record_id", row.ID),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
