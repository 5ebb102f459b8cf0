package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/saathichat/saathi-backend/internal/apperr"
	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/types"
	"github.com/saathichat/saathi-backend/internal/utils"
)

// Finish reasons, normalized across providers.
const (
	FinishStop          = "stop"
	FinishLength        = "length"
	FinishContentFilter = "content_filter"
)

type CompletionTurn struct {
	Role string // types.RoleUser or types.RoleBot
	Text string
}

type CompletionRequest struct {
	System         string
	Turns          []CompletionTurn
	CandidateCount int
	Temperature    float32
	MaxTokens      int
}

type Candidate struct {
	Text         string
	FinishReason string
}

type CompletionResult struct {
	// SafetyBlocked is set when the provider refused the whole exchange on
	// content-policy grounds. Candidates may still carry the filter reasons.
	SafetyBlocked bool
	Candidates    []Candidate
}

// CompletionClient is the one seam to the external text-completion vendor.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
	// Summarize is a single-candidate convenience used by the persona
	// summarizer.
	Summarize(ctx context.Context, prompt string) (string, error)
}

type openAICompletionClient struct {
	log     *logger.Logger
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAICompletionClient(log *logger.Logger) (CompletionClient, error) {
	apiKey := utils.GetEnv("OPENAI_API_KEY", "", nil)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	model := utils.GetEnv("OPENAI_MODEL", openai.GPT4oMini, nil)

	timeoutSec := 30
	if v := utils.GetEnv("OPENAI_TIMEOUT_SECONDS", "", nil); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	return &openAICompletionClient{
		log:     log.With("service", "CompletionClient"),
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: time.Duration(timeoutSec) * time.Second,
	}, nil
}

func (oc *openAICompletionClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, oc.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Turns)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, turn := range req.Turns {
		role := openai.ChatMessageRoleUser
		if turn.Role == types.RoleBot {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}

	n := req.CandidateCount
	if n <= 0 {
		n = 1
	}

	resp, err := oc.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       oc.model,
		Messages:    messages,
		N:           n,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		oc.log.Error("Completion request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}

	result := &CompletionResult{}
	filtered := 0
	for _, choice := range resp.Choices {
		candidate := Candidate{
			Text:         strings.TrimSpace(choice.Message.Content),
			FinishReason: normalizeFinishReason(choice.FinishReason),
		}
		if candidate.FinishReason == FinishContentFilter {
			filtered++
		}
		result.Candidates = append(result.Candidates, candidate)
	}
	if len(result.Candidates) > 0 && filtered == len(result.Candidates) {
		result.SafetyBlocked = true
	}
	return result, nil
}

func (oc *openAICompletionClient) Summarize(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, oc.timeout)
	defer cancel()

	resp, err := oc.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: oc.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   512,
		Temperature: 0.4,
	})
	if err != nil {
		oc.log.Error("Summarize request failed", "error", err)
		return "", fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty summarize response", apperr.ErrUpstream)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func normalizeFinishReason(r openai.FinishReason) string {
	switch r {
	case openai.FinishReasonLength:
		return FinishLength
	case openai.FinishReasonContentFilter:
		return FinishContentFilter
	default:
		return FinishStop
	}
}
