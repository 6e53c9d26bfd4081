package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/covadev/covatrace/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// TraceOllamaClient implements the ai.TraceAIClient interface using Ollama
// as the backend, for locally-hosted embedding and summary models.
type TraceOllamaClient struct {
	embeddingModel string
	summaryModel   string

	reqLock    *semaphore.Weighted
	timeoutMin int64

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewTraceOllamaClientParams contains configuration options for creating a
// new TraceOllamaClient.
type NewTraceOllamaClientParams struct {
	EmbeddingModel string
	SummaryModel   string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
	TimeoutMin            int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewTraceOllamaClient creates a new Ollama-based AI client with the
// specified configuration. It connects to the Ollama server at the given
// BaseURL (or the default if empty).
func NewTraceOllamaClient(
	params NewTraceOllamaClientParams,
) (*TraceOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 1
	}
	timeoutMin := params.TimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = 10
	}

	return &TraceOllamaClient{
		embeddingModel: params.EmbeddingModel,
		summaryModel:   params.SummaryModel,

		reqLock:    semaphore.NewWeighted(maxReq),
		timeoutMin: timeoutMin,

		metricsLock: sync.Mutex{},
		metrics: ai.ModelMetrics{
			InputTokens:  0,
			OutputTokens: 0,
			TotalTokens:  0,
			DurationMs:   0,
		},

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}
