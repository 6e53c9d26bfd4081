package openai

import (
	"sync"

	"github.com/covadev/covatrace/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// TraceOpenAIClient implements ai.TraceAIClient against OpenAI-compatible
// APIs. It manages separate clients for embeddings and chat so the two
// concerns can point at different endpoints.
//
// A TraceOpenAIClient should be created using NewTraceOpenAIClient.
type TraceOpenAIClient struct {
	embeddingModel string
	summaryModel   string

	embeddingURL string
	embeddingKey string
	chatURL      string
	chatKey      string

	timeoutMin    int64
	embeddingLock *semaphore.Weighted
	chatLock      *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewTraceOpenAIClientParams defines the configuration for creating a new
// TraceOpenAIClient.
//
// EmbeddingModel specifies the model used for embeddings.
// SummaryModel specifies the model used for generating function summaries.
// EmbeddingURL and EmbeddingKey configure the embedding API endpoint.
// ChatURL and ChatKey configure the chat/completion API endpoint.
// MaxConcurrentRequests bounds in-flight requests per concern.
// TimeoutMin is the per-request timeout in minutes.
type NewTraceOpenAIClientParams struct {
	EmbeddingModel string
	SummaryModel   string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string

	MaxConcurrentRequests int64
	TimeoutMin            int64
}

// NewTraceOpenAIClient creates and returns a new TraceOpenAIClient configured
// with the provided parameters.
//
// Example:
//
//	params := openai.NewTraceOpenAIClientParams{
//		EmbeddingModel: "text-embedding-3-small",
//		SummaryModel:   "gpt-4o-mini",
//		EmbeddingURL:   "https://api.openai.com/v1",
//		EmbeddingKey:   os.Getenv("OPENAI_API_KEY"),
//		ChatURL:        "https://api.openai.com/v1",
//		ChatKey:        os.Getenv("OPENAI_API_KEY"),
//	}
//	client := openai.NewTraceOpenAIClient(params)
func NewTraceOpenAIClient(
	params NewTraceOpenAIClientParams,
) *TraceOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)
	embedClient := newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey)

	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 4
	}
	timeoutMin := params.TimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = 5
	}

	return &TraceOpenAIClient{
		embeddingModel: params.EmbeddingModel,
		summaryModel:   params.SummaryModel,

		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,
		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		timeoutMin:    timeoutMin,
		embeddingLock: semaphore.NewWeighted(maxReq),
		chatLock:      semaphore.NewWeighted(maxReq),

		metricsLock: sync.Mutex{},
		metrics: ai.ModelMetrics{
			InputTokens:  0,
			OutputTokens: 0,
			TotalTokens:  0,
			DurationMs:   0,
		},

		ChatClient:      chatClient,
		EmbeddingClient: embedClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
