// Package shortlist scores compressed applicant documents against the fixed
// eligibility rules and records the verdict in storage.
package shortlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/applicant-pipeline/internal/airtable"
	"github.com/spigell/applicant-pipeline/internal/applicant"
	"go.uber.org/zap"
)

const (
	minYearsExperience = 4
	maxPreferredRate   = 100
	minAvailability    = 20

	// Sentinel used when the preferred rate is missing; always fails the
	// compensation gate.
	missingRateSentinel = 99999
)

// Tier-1 employers grant an exemption from the years-of-experience gate.
// Matching is exact and case-sensitive.
var tier1Employers = map[string]struct{}{
	"Google":    {},
	"Meta":      {},
	"OpenAI":    {},
	"Microsoft": {},
	"Amazon":    {},
	"Apple":     {},
}

// Allowed locations, matched as case-sensitive substrings.
var allowedLocations = []string{
	"United States",
	"Canada",
	"United Kingdom",
	"Germany",
	"India",
}

var firstInteger = regexp.MustCompile(`\d+`)

// Verdict is the scoring outcome plus the intermediates that went into it.
// Reason is a fixed-format diagnostic persisted as an audit trail.
type Verdict struct {
	Passed bool
	Reason string

	Years      int
	Tier1      bool
	Pref       int
	Avail      int
	LocationOK bool
}

// Score applies the eligibility rules to a document. Pure: no storage access.
func Score(doc *applicant.Document, now time.Time) Verdict {
	v := Verdict{
		Years: YearsOfExperience(doc.Experience, now),
		Pref:  missingRateSentinel,
	}

	for _, entry := range doc.Experience {
		if _, ok := tier1Employers[entry.Company]; ok {
			v.Tier1 = true
			break
		}
	}

	if doc.Salary.PreferredRate != nil {
		v.Pref = int(*doc.Salary.PreferredRate)
	}

	if match := firstInteger.FindString(doc.Salary.Availability); match != "" {
		if avail, err := strconv.Atoi(match); err == nil {
			v.Avail = avail
		}
	}

	for _, country := range allowedLocations {
		if strings.Contains(doc.Personal.Location, country) {
			v.LocationOK = true
			break
		}
	}

	experienceOK := v.Years >= minYearsExperience || v.Tier1
	compensationOK := v.Pref <= maxPreferredRate && v.Avail >= minAvailability
	v.Passed = experienceOK && compensationOK && v.LocationOK

	v.Reason = fmt.Sprintf("exp:%d, tier1:%t, pref:%d, avail:%d, location_ok:%t",
		v.Years, v.Tier1, v.Pref, v.Avail, v.LocationOK)

	return v
}

// YearsOfExperience sums max(0, endYear-startYear) over the entries. An
// absent end date means the position is current. Entries whose years cannot
// be parsed contribute nothing.
func YearsOfExperience(entries []applicant.Experience, now time.Time) int {
	total := 0
	for _, entry := range entries {
		start, ok := leadingYear(entry.Start)
		if !ok {
			continue
		}

		end := now.Year()
		if entry.End != "" {
			if parsed, ok := leadingYear(entry.End); ok {
				end = parsed
			} else {
				continue
			}
		}

		if end > start {
			total += end - start
		}
	}

	return total
}

// leadingYear reads the first four characters of a date-ish string as a year.
func leadingYear(s string) (int, bool) {
	if len(s) < 4 {
		return 0, false
	}

	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0, false
	}

	return year, true
}

// Scorer evaluates documents and records the verdict: the boolean status is
// always written back, and a shortlisted lead is created at most once per
// applicant that passes.
type Scorer struct {
	store  *applicant.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewScorer(tables applicant.TableStore, logger *zap.Logger) *Scorer {
	return &Scorer{
		store:  applicant.NewStore(tables, logger),
		logger: logger,
		now:    time.Now,
	}
}

// Evaluate scores the document and persists the outcome. Storage failures
// are returned alongside the computed verdict so callers keep the audit
// result and decide tolerance themselves.
func (s *Scorer) Evaluate(ctx context.Context, doc *applicant.Document) (Verdict, error) {
	verdict := Score(doc, s.now())

	s.logger.Info("shortlist verdict",
		zap.String("applicant_id", doc.ApplicantID),
		zap.Bool("passed", verdict.Passed),
		zap.String("reason", verdict.Reason),
	)

	parent, err := s.store.FindApplicant(ctx, doc.ApplicantID)
	if errors.Is(err, airtable.ErrRecordNotFound) {
		return Verdict{Reason: "Applicant not found"}, nil
	}
	if err != nil {
		return verdict, err
	}

	var errs []error
	if verdict.Passed {
		if err := s.ensureLead(ctx, parent.ID, doc, verdict.Reason); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.store.WriteShortlistStatus(ctx, parent.ID, verdict.Passed); err != nil {
		errs = append(errs, err)
	}

	return verdict, errors.Join(errs...)
}

func (s *Scorer) ensureLead(ctx context.Context, parentRecordID string, doc *applicant.Document, reason string) error {
	existing, err := s.store.FindLead(ctx, doc.ApplicantID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		s.logger.Debug("shortlisted lead already exists",
			zap.String("applicant_id", doc.ApplicantID),
		)
		return nil
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	if err := s.store.CreateLead(ctx, parentRecordID, string(payload), reason); err != nil {
		return err
	}

	s.logger.Info("created shortlisted lead",
		zap.String("applicant_id", doc.ApplicantID),
	)

	return nil
}
