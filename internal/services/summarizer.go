package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/menjil-org/menjil-backend/internal/logger"
)

const summaryPrompt = `Summarize the following question from a mentee in at most three short lines.
Reply with the summary only, in the language of the question.

Question:
%s`

// SummarizerService condenses a question into a short summary. Deadlines come
// from the caller's context.
type SummarizerService interface {
	Summarize(ctx context.Context, question string) (string, error)
}

type summarizerService struct {
	log *logger.Logger
	llm llms.Model
}

// NewSummarizerService talks to any OpenAI-compatible chat completions API.
func NewSummarizerService(log *logger.Logger, baseURL, apiKey, model string) (SummarizerService, error) {
	serviceLog := log.With("service", "SummarizerService")
	if baseURL == "" {
		return nil, errors.New("missing SUMMARIZER_BASE_URL")
	}
	if apiKey == "" {
		return nil, errors.New("missing SUMMARIZER_API_KEY")
	}
	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("init summarizer client: %w", err)
	}
	return NewSummarizerServiceWithModel(serviceLog, llm), nil
}

func NewSummarizerServiceWithModel(log *logger.Logger, llm llms.Model) SummarizerService {
	return &summarizerService{log: log, llm: llm}
}

func (ss *summarizerService) Summarize(ctx context.Context, question string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, ss.llm, fmt.Sprintf(summaryPrompt, question), llms.WithTemperature(0))
	if err != nil {
		ss.log.Warn("summarizer call failed", "error", err)
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		ss.log.Warn("summarizer returned an empty summary")
		return "", errors.New("summarizer returned an empty summary")
	}
	ss.log.Debug("summarizer call success", "length", len(out))
	return out, nil
}
