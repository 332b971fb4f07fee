package applicant

import (
	"context"
	"encoding/json"

	"github.com/spigell/applicant-pipeline/internal/airtable"
	"go.uber.org/zap"
)

// Decompressor writes a previously stored document back into the normalized
// child tables. Singleton children (personal, salary) are updated in place;
// work rows are fully replaced. Nothing here is transactional: a failure
// mid-way leaves the writes already committed.
type Decompressor struct {
	store  *Store
	tables TableStore
	logger *zap.Logger
}

func NewDecompressor(tables TableStore, logger *zap.Logger) *Decompressor {
	return &Decompressor{
		store:  NewStore(tables, logger),
		tables: tables,
		logger: logger,
	}
}

// DecompressAndUpsert reads the applicant's stored document and upserts it
// into the child tables. A missing or unparseable document is a logged
// no-op, not an error.
func (d *Decompressor) DecompressAndUpsert(ctx context.Context, applicantID string) error {
	parent, err := d.store.FindApplicant(ctx, applicantID)
	if err != nil {
		return err
	}

	payload := parent.StringField(FieldCompressedJSON)
	if payload == "" {
		d.logger.Info("no compressed document stored, nothing to decompress",
			zap.String("applicant_id", applicantID),
		)
		return nil
	}

	var doc Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		d.logger.Warn("stored document is not valid JSON, skipping decompression",
			zap.String("applicant_id", applicantID),
			zap.Error(err),
		)
		return nil
	}

	if err := d.upsertSingleton(ctx, airtable.TablePersonal, applicantID, doc.Personal.Fields()); err != nil {
		return err
	}

	if err := d.replaceExperience(ctx, applicantID, doc.Experience); err != nil {
		return err
	}

	if err := d.upsertSingleton(ctx, airtable.TableSalary, applicantID, doc.Salary.Fields()); err != nil {
		return err
	}

	d.logger.Info("document decompressed into child tables",
		zap.String("applicant_id", applicantID),
		zap.Int("experience_rows", len(doc.Experience)),
	)

	return nil
}

// upsertSingleton updates the first existing child row in place, or creates
// one carrying the applicant link.
func (d *Decompressor) upsertSingleton(ctx context.Context, table, applicantID string, fields map[string]any) error {
	existing, err := d.tables.FindByField(ctx, table, FieldApplicantID, applicantID)
	if err != nil {
		return err
	}

	if len(existing) > 0 {
		if _, err := d.tables.Update(ctx, table, existing[0].ID, fields); err != nil {
			return err
		}
		d.logger.Info("updated child row",
			zap.String("table", table),
			zap.String("applicant_id", applicantID),
		)
		return nil
	}

	fields[FieldApplicantID] = []string{applicantID}
	if _, err := d.tables.Create(ctx, table, fields); err != nil {
		return err
	}
	d.logger.Info("created child row",
		zap.String("table", table),
		zap.String("applicant_id", applicantID),
	)

	return nil
}

// replaceExperience deletes every linked work row and recreates one per
// document entry. This is a full replace: edits made to work rows after the
// last compression are lost.
func (d *Decompressor) replaceExperience(ctx context.Context, applicantID string, entries []Experience) error {
	existing, err := d.tables.FindByField(ctx, airtable.TableWork, FieldApplicantID, applicantID)
	if err != nil {
		return err
	}

	if len(existing) > 0 {
		d.logger.Warn("replacing existing work rows",
			zap.String("applicant_id", applicantID),
			zap.Int("rows_dropped", len(existing)),
		)
	}

	for _, row := range existing {
		if err := d.tables.Delete(ctx, airtable.TableWork, row.ID); err != nil {
			return err
		}
	}

	for _, entry := range entries {
		fields := entry.Fields()
		fields[FieldApplicantID] = []string{applicantID}
		if _, err := d.tables.Create(ctx, airtable.TableWork, fields); err != nil {
			return err
		}
	}

	return nil
}
