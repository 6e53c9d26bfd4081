package summary

import (
	"context"
	"strings"
	"sync"

	"github.com/covadev/covatrace/internal/util"
	"github.com/covadev/covatrace/pkg/ai"
	"github.com/covadev/covatrace/pkg/codescan"
	"github.com/covadev/covatrace/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Summary holds the two model outputs for one function: the one-line
// matching summary and the multi-sentence display summary.
type Summary struct {
	Short    string `json:"short"`
	Detailed string `json:"detailed"`
}

// compareOutput is the structured model response for the short summary.
type compareOutput struct {
	Title       string `json:"title" jsonschema_description:"Human readable task title, 2-6 words, Title Case"`
	Description string `json:"description" jsonschema_description:"One sentence of 12-22 words stating the main action and business object"`
}

// Service generates function summaries through an AI client.
type Service struct {
	client   ai.TraceAIClient
	workers  int
	thinking string
}

// NewService creates a summary service. workers bounds how many functions
// are summarized concurrently. AI_CHAT_THINKING, when set, enables the
// model's reasoning mode for all summary calls.
func NewService(client ai.TraceAIClient, workers int) *Service {
	if workers <= 0 {
		workers = 4
	}
	return &Service{
		client:   client,
		workers:  workers,
		thinking: util.GetEnv("AI_CHAT_THINKING"),
	}
}

func (s *Service) completionOpts(temperature float64) []ai.GenerateOption {
	opts := []ai.GenerateOption{
		ai.WithTemperature(temperature),
		ai.WithSystemPrompts(systemPrompt),
	}
	if s.thinking != "" {
		opts = append(opts, ai.WithThinking(s.thinking))
	}
	return opts
}

// SummarizeFunction generates the short and detailed summaries for one
// function record. The short summary is retried once; a short summary that
// still fails validation is an error, so callers can substitute Fallback.
// A failed detailed summary degrades to the structured rendering instead.
func (s *Service) SummarizeFunction(ctx context.Context, sf codescan.StructuredFunction) (Summary, error) {
	block := BuildGeneratorBlock(sf)

	short, err := util.RetryWithContext(ctx, 2, func(ctx context.Context) (string, error) {
		var out compareOutput
		if err := s.client.GenerateCompletionWithFormat(
			ctx,
			"task_summary",
			"One-line task-style summary of a code function for matching against BPMN tasks",
			BuildComparePrompt(block),
			&out,
			s.completionOpts(0.1)...,
		); err != nil {
			return "", err
		}
		return ValidateCompareLine(ComposeCompareLine(out.Title, out.Description))
	})
	if err != nil {
		return Summary{}, err
	}

	detailed := ""
	raw, derr := s.client.GenerateCompletion(ctx, BuildDetailedPrompt(block), s.completionOpts(0.3)...)
	if derr == nil {
		detailed, derr = ValidateDetailed(raw)
	}
	if derr != nil {
		logger.Debug("detailed summary failed, using structured rendering",
			"uid", sf.FunctionUID, "error", derr)
		detailed = BuildStructuredSummary(sf)
	}

	return Summary{Short: short, Detailed: detailed}, nil
}

// SummarizeMany summarizes all function records concurrently. It returns
// the summaries keyed by function uid plus an error message per uid that
// failed; failures never abort the batch.
func (s *Service) SummarizeMany(ctx context.Context, fns []codescan.StructuredFunction) (map[string]Summary, map[string]string) {
	out := make(map[string]Summary, len(fns))
	errs := map[string]string{}
	var mu sync.Mutex

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)

	for _, sf := range fns {
		sf := sf
		uid := strings.TrimSpace(sf.FunctionUID)
		if uid == "" {
			continue
		}
		eg.Go(func() error {
			sum, err := s.SummarizeFunction(ectx, sf)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[uid] = err.Error()
				return nil
			}
			out[uid] = sum
			return nil
		})
	}
	// workers never return errors, Wait only propagates ctx cancellation
	_ = eg.Wait()

	return out, errs
}

// SummarizeWorkflow produces a 2-3 sentence business summary of the whole
// process from its name and task names.
func (s *Service) SummarizeWorkflow(ctx context.Context, processName string, taskNames []string) (string, error) {
	text, err := s.client.GenerateCompletion(ctx, BuildWorkflowPrompt(processName, taskNames), s.completionOpts(0.3)...)
	if err != nil {
		return "", err
	}
	return cleanSpaces(text), nil
}
