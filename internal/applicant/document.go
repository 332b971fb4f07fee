package applicant

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const (
	// DocumentVersion tags the compressed document schema.
	DocumentVersion = "1.0.0"
	// CompressorVersion tags the code revision that produced a document.
	CompressorVersion = "v1"
)

// Storage column names. The document uses lower-case keys; these are the
// capitalized table-side counterparts.
const (
	FieldApplicantID     = "Applicant ID"
	FieldCompressedJSON  = "Compressed JSON"
	FieldShortlistStatus = "Shortlist status"
	FieldLLMSummary      = "LLM Summary"
	FieldLLMScore        = "LLM Score"
	FieldLLMFollowUps    = "LLM Follow Ups"

	FieldFullName = "Full Name"
	FieldEmail    = "Email"
	FieldLocation = "Location"
	FieldLinkedIn = "LinkedIn"

	FieldCompany = "Company"
	FieldTitle   = "Title"
	FieldStart   = "Start"
	FieldEnd     = "End"

	FieldPreferredRate = "Preferred Rate"
	FieldMinimumRate   = "Minimum Rate"
	FieldCurrency      = "Currency"
	FieldAvailability  = "Availability"

	FieldLeadApplicant = "Applicant"
	FieldScoreReason   = "Score Reason"
)

// Document is the versioned per-applicant snapshot aggregating rows from the
// personal, work and salary tables. It is the serialization contract between
// the compressor, decompressor, scorer and evaluator, persisted verbatim on
// the applicant's parent record.
type Document struct {
	Version     string       `json:"version"`
	ApplicantID string       `json:"applicant_id"`
	Personal    Personal     `json:"personal"`
	Experience  []Experience `json:"experience"`
	Salary      Salary       `json:"salary"`
	Meta        Meta         `json:"meta"`
}

type Personal struct {
	FullName string `json:"full_name,omitempty" mapstructure:"Full Name"`
	Email    string `json:"email,omitempty" mapstructure:"Email"`
	Location string `json:"location,omitempty" mapstructure:"Location"`
	LinkedIn string `json:"linkedin,omitempty" mapstructure:"LinkedIn"`
}

type Experience struct {
	Company string `json:"company,omitempty" mapstructure:"Company"`
	Title   string `json:"title,omitempty" mapstructure:"Title"`
	Start   string `json:"start,omitempty" mapstructure:"Start"`
	End     string `json:"end,omitempty" mapstructure:"End"`
}

type Salary struct {
	PreferredRate *float64 `json:"preferred_rate,omitempty" mapstructure:"Preferred Rate"`
	MinimumRate   *float64 `json:"minimum_rate,omitempty" mapstructure:"Minimum Rate"`
	Currency      string   `json:"currency,omitempty" mapstructure:"Currency"`
	Availability  string   `json:"availability,omitempty" mapstructure:"Availability"`
}

type Meta struct {
	CompressedAt      string `json:"compressed_at"`
	CompressorVersion string `json:"compressor_version"`
}

// decodeFields maps raw storage columns onto a typed struct. WeaklyTypedInput
// tolerates the loose typing of the table service (numbers as strings and
// vice versa).
func decodeFields(fields map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(fields); err != nil {
		return fmt.Errorf("decoding record fields: %w", err)
	}

	return nil
}

// Fields returns the storage-side column map for a personal row.
func (p Personal) Fields() map[string]any {
	return map[string]any{
		FieldFullName: p.FullName,
		FieldEmail:    p.Email,
		FieldLocation: p.Location,
		FieldLinkedIn: p.LinkedIn,
	}
}

// Fields returns the storage-side column map for a work row.
func (e Experience) Fields() map[string]any {
	fields := map[string]any{
		FieldCompany: e.Company,
		FieldStart:   e.Start,
	}
	if e.Title != "" {
		fields[FieldTitle] = e.Title
	}
	if e.End != "" {
		fields[FieldEnd] = e.End
	}
	return fields
}

// Fields returns the storage-side column map for a salary row. Nil rates are
// written as nulls, clearing the column.
func (s Salary) Fields() map[string]any {
	var preferred, minimum any
	if s.PreferredRate != nil {
		preferred = *s.PreferredRate
	}
	if s.MinimumRate != nil {
		minimum = *s.MinimumRate
	}

	return map[string]any{
		FieldPreferredRate: preferred,
		FieldMinimumRate:   minimum,
		FieldCurrency:      s.Currency,
		FieldAvailability:  s.Availability,
	}
}

// linkContains reports whether a multi-valued link column contains the given
// id. The service returns link columns as lists; a plain string is accepted
// for single-valued links.
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
