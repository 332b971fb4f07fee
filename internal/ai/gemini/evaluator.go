package gemini

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/applicant-pipeline/internal/ai"
	"github.com/spigell/applicant-pipeline/internal/cache"
	"github.com/spigell/applicant-pipeline/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Evaluator sends one applicant's compressed document to the model and
// parses the labeled plain-text response. Results are cached per applicant
// keyed by the content hash of the document, so an unchanged document never
// triggers a second remote call.
type Evaluator struct {
	generator contentGenerator
	cache     cache.Cache
	logger    *zap.Logger
	maxLogLen int
}

func NewEvaluator(generator contentGenerator, store cache.Cache, logger *zap.Logger, maxLogLength int) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Evaluator{
		generator: generator,
		cache:     store,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, applicantID, payloadJSON string) (*ai.Result, error) {
	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(payloadJSON)))

	if e.cache != nil {
		entry, ok, err := e.cache.Get(applicantID)
		if err != nil {
			e.logger.Warn("reading evaluation cache failed",
				zap.String("applicant_id", applicantID),
				zap.Error(err),
			)
		} else if ok && entry.Hash == hash {
			e.logger.Info("using cached evaluation",
				zap.String("applicant_id", applicantID),
				zap.String("hash", utils.TruncateForLog(hash, 12)),
			)
			result := entry.Result
			return &result, nil
		}
	}

	prompt := buildPrompt(payloadJSON)

	e.logger.Debug("gemini evaluation request",
		zap.String("applicant_id", applicantID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("payload_preview", utils.TruncateForLog(payloadJSON, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini evaluation response",
		zap.String("applicant_id", applicantID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	result := ai.ParseEvaluation(raw)
	if !result.Success {
		result.Error = fmt.Sprintf("parse error: response missing sections: %s", strings.Join(result.Missing, ", "))
		return result, nil
	}

	if e.cache != nil {
		entry := &cache.Entry{Hash: hash, Result: *result}
		if err := e.cache.Put(applicantID, entry); err != nil {
			e.logger.Warn("writing evaluation cache failed",
				zap.String("applicant_id", applicantID),
				zap.Error(err),
			)
		}
	}

	return result, nil
}

func buildPrompt(payloadJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Evaluate this applicant profile.\n\nApplicant JSON:\n{{APPLICANT_JSON}}"
	}
	return strings.ReplaceAll(template, "{{APPLICANT_JSON}}", payloadJSON)
}
