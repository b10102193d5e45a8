// Package summarizer implements the summary-generation workflow: given an
// admission identifier it either returns the stored summary or drives a
// single generation call and persists the result.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/medforge/healthagent/ai/llm"
	"github.com/medforge/healthagent/ai/metrics"
	"github.com/medforge/healthagent/store"
)

// PromptTruncationLimit bounds the narrative prefix included in the prompt,
// measured in characters. Truncation silently drops trailing content;
// discharge summaries front-load the salient information in this dataset's
// convention.
const PromptTruncationLimit = 4000

// systemPreamble is the fixed safety/behavior preamble sent with every
// generation request.
const systemPreamble = "You are a helpful, respectful and honest medical assistant. You are a second version of Med42 developed by the AI team at M42. " +
	"Always answer as helpfully as possible, while being safe. " +
	"Your answers should not include any harmful, unethical, racist, sexist, toxic, dangerous, or illegal content. " +
	"Please ensure that your responses are socially unbiased and positive in nature. If a question does not make any sense, or is not factually coherent, explain why instead of answering something not correct. " +
	"If you don't know the answer to a question, please don't share false information."

// Summarizer holds the dependencies of the workflow. It keeps no state
// between invocations; each call is a stateless transaction against the
// store and the generation service.
type Summarizer struct {
	store     *store.Store
	llm       llm.Service // nil when no API key is configured
	modelName string
	metrics   *metrics.SummarizeMetrics // optional

	// group collapses concurrent summarize calls for the same admission so
	// the generation endpoint is invoked at most once per admission within
	// this process. The database unique constraint covers races across
	// processes.
	group singleflight.Group
}

// New creates a Summarizer. llmService may be nil; Summarize then fails with
// ErrUnavailable and the health endpoint reports the service as not
// initialized.
func New(st *store.Store, llmService llm.Service, modelName string, m *metrics.SummarizeMetrics) *Summarizer {
	return &Summarizer{
		store:     st,
		llm:       llmService,
		modelName: modelName,
		metrics:   m,
	}
}

// ModelInfo describes the generation capability for health reporting.
type ModelInfo struct {
	ModelName   string `json:"model_name"`
	Initialized bool   `json:"initialized"`
}

// ModelInfo reports the configured model and whether the generation service
// is available.
func (s *Summarizer) ModelInfo() ModelInfo {
	return ModelInfo{
		ModelName:   s.modelName,
		Initialized: s.llm != nil,
	}
}

type summarizeResult struct {
	summary *store.Summary
	created bool
}

// Summarize returns the summary for the admission, generating and persisting
// it when none exists yet. created reports whether a new summary was
// generated by this call (or a concurrent call collapsed into it).
func (s *Summarizer) Summarize(ctx context.Context, hadmID int32) (*store.Summary, bool, error) {
	v, err, _ := s.group.Do(strconv.FormatInt(int64(hadmID), 10), func() (any, error) {
		return s.summarize(ctx, hadmID)
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveRequest(metrics.OutcomeError)
		}
		return nil, false, err
	}
	result := v.(*summarizeResult)
	if s.metrics != nil {
		if result.created {
			s.metrics.ObserveRequest(metrics.OutcomeCreated)
		} else {
			s.metrics.ObserveRequest(metrics.OutcomeReused)
		}
	}
	return result.summary, result.created, nil
}

func (s *Summarizer) summarize(ctx context.Context, hadmID int32) (*summarizeResult, error) {
	admission, err := s.store.GetAdmission(ctx, hadmID)
	if err != nil {
		return nil, fmt.Errorf("get admission: %w", err)
	}
	if admission == nil {
		return nil, fmt.Errorf("admission %d: %w", hadmID, store.ErrNotFound)
	}

	// Idempotent-read short-circuit: an existing summary is returned without
	// invoking the generation service.
	existing, err := s.store.GetSummaryByAdmission(ctx, hadmID)
	if err != nil {
		return nil, fmt.Errorf("find existing summary: %w", err)
	}
	if existing != nil {
		slog.Debug("returning existing summary", "hadm_id", hadmID, "summary_id", existing.ID)
		return &summarizeResult{summary: existing, created: false}, nil
	}

	if s.llm == nil {
		return nil, ErrUnavailable
	}

	messages := buildMessages(admission.Text)

	startTime := time.Now()
	content, stats, err := s.llm.Chat(ctx, messages)
	if err != nil {
		return nil, &GenerationError{Cause: err}
	}
	processingTime := time.Since(startTime).Seconds()

	if s.metrics != nil {
		promptTokens, completionTokens := 0, 0
		if stats != nil {
			promptTokens, completionTokens = stats.PromptTokens, stats.CompletionTokens
		}
		s.metrics.ObserveGeneration(processingTime, promptTokens, completionTokens)
	}

	summary, err := s.store.CreateSummary(ctx, &store.CreateSummary{
		HadmID:         hadmID,
		SummaryText:    content,
		OriginalLength: int32(utf8.RuneCountInString(admission.Text)),
		ProcessingTime: processingTime,
		ModelUsed:      s.modelName,
	})
	if err != nil {
		// A concurrent request won the insert race; the durable summary
		// satisfies the caller's intent, so return it instead of an error.
		if isAlreadyExists(err) {
			slog.Info("summary insert lost race, returning existing", "hadm_id", hadmID)
			existing, findErr := s.store.GetSummaryByAdmission(ctx, hadmID)
			if findErr == nil && existing != nil {
				return &summarizeResult{summary: existing, created: false}, nil
			}
		}
		return nil, &PersistenceError{Cause: err}
	}

	slog.Info("summary saved",
		"hadm_id", hadmID,
		"summary_id", summary.ID,
		"original_length", summary.OriginalLength,
		"processing_time_s", processingTime,
	)
	return &summarizeResult{summary: summary, created: true}, nil
}

// buildMessages constructs the bounded prompt: the fixed preamble plus a
// truncated prefix of the narrative.
func buildMessages(narrative string) []llm.Message {
	return []llm.Message{
		llm.SystemPrompt(systemPreamble),
		llm.UserMessage("Summarize this discharge summary concisely:\n\n" + truncate(narrative, PromptTruncationLimit)),
	}
}

// truncate returns the first limit characters of s. The cut is made on rune
// boundaries so a multibyte character is never split.
func truncate(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
