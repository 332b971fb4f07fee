// Package pipeline composes the per-applicant flow: compress, score,
// evaluate, write back.
package pipeline

import (
	"context"
	"encoding/json"

	"github.com/spigell/applicant-pipeline/internal/ai"
	"github.com/spigell/applicant-pipeline/internal/applicant"
	"github.com/spigell/applicant-pipeline/internal/shortlist"
	"go.uber.org/zap"
)

type Runner struct {
	store      *applicant.Store
	compressor *applicant.Compressor
	scorer     *shortlist.Scorer
	evaluator  ai.Evaluator
	logger     *zap.Logger
}

func New(tables applicant.TableStore, evaluator ai.Evaluator, logger *zap.Logger) *Runner {
	return &Runner{
		store:      applicant.NewStore(tables, logger),
		compressor: applicant.NewCompressor(tables, logger),
		scorer:     shortlist.NewScorer(tables, logger),
		evaluator:  evaluator,
		logger:     logger,
	}
}

// Run processes one applicant end to end. Compression failures abort; the
// scorer's and evaluator's storage troubles are logged and tolerated so one
// bad stage does not undo the effects already committed.
func (r *Runner) Run(ctx context.Context, applicantID string) error {
	doc, err := r.compressor.Compress(ctx, applicantID)
	if err != nil {
		return err
	}

	verdict, err := r.scorer.Evaluate(ctx, doc)
	if err != nil {
		r.logger.Warn("recording shortlist verdict failed",
			zap.String("applicant_id", applicantID),
			zap.Error(err),
		)
	}

	r.logger.Info("shortlist stage finished",
		zap.String("applicant_id", applicantID),
		zap.Bool("passed", verdict.Passed),
		zap.String("reason", verdict.Reason),
	)

	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	result, err := r.evaluator.Evaluate(ctx, applicantID, string(payload))
	if err != nil {
		r.logger.Error("llm evaluation failed",
			zap.String("applicant_id", applicantID),
			zap.Error(err),
		)
		return nil
	}

	if !result.Success {
		r.logger.Warn("llm evaluation unusable",
			zap.String("applicant_id", applicantID),
			zap.String("error", result.Error),
		)
		return nil
	}

	if err := r.store.WriteEvaluation(ctx, applicantID, result); err != nil {
		r.logger.Warn("saving llm evaluation failed",
			zap.String("applicant_id", applicantID),
			zap.Error(err),
		)
	}

	return nil
}
