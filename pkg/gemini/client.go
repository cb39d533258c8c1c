package gemini

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/sells-group/clientscout/internal/retry"
)

const (
	defaultModel           = "gemini-2.5-flash"
	defaultMaxOutputTokens = 8192
)

// ErrMissingKey is returned before any network call when no API key is
// configured.
var ErrMissingKey = eris.New("gemini: api key missing")

// ErrEmptyReply is returned when a send round trip yields no text.
var ErrEmptyReply = eris.New("gemini: empty reply")

// Option configures the client.
type Option func(*Client)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxOutputTokens overrides the per-reply output token cap.
func WithMaxOutputTokens(n int32) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxOutputTokens = n
		}
	}
}

// WithRateLimit caps sends at n requests per minute across all sessions
// of this client. Zero disables pacing.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1)
		}
	}
}

// WithRetryPolicy overrides the backoff applied to transient send failures.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.retryPolicy = p
	}
}

// Client opens extraction sessions against the Gemini API.
type Client struct {
	client          *genai.Client
	model           string
	maxOutputTokens int32
	limiter         *rate.Limiter
	retryPolicy     retry.Policy
}

// NewClient creates a Gemini-backed session client. Fails fast with
// ErrMissingKey when no credential is present.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingKey
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	c := &Client{
		client:          gc,
		model:           defaultModel,
		maxOutputTokens: defaultMaxOutputTokens,
		retryPolicy:     retry.DefaultPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// OpenSession creates one stateful conversational context configured with
// the given system instruction and the live-lookup tools the enrichment
// protocol relies on. All "more" calls of a search must reuse the session;
// a fresh session starts an unrelated search with empty history.
func (c *Client) OpenSession(ctx context.Context, systemInstruction string) (*Session, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		MaxOutputTokens:   c.maxOutputTokens,
		Tools: []*genai.Tool{
			{GoogleMaps: &genai.GoogleMaps{}},
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	chat, err := c.client.Chats.Create(ctx, c.model, cfg, nil)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create chat session")
	}

	return &Session{chat: chat, model: c.model, limiter: c.limiter, retryPolicy: c.retryPolicy}, nil
}

// Session is one ongoing chat with the backend. The accumulated dialogue
// lives server-side; the session is not safe for concurrent sends.
type Session struct {
	chat        *genai.Chat
	model       string
	limiter     *rate.Limiter
	retryPolicy retry.Policy
}

// Send transmits one instruction and returns the single textual reply.
func (s *Session) Send(ctx context.Context, prompt string) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "gemini: rate limit wait")
		}
	}

	resp, err := retry.Do(ctx, s.retryPolicy, "gemini.send", func(rctx context.Context) (*genai.GenerateContentResponse, error) {
		return s.chat.SendMessage(rctx, genai.Part{Text: prompt})
	})
	if err != nil {
		return "", eris.Wrap(err, "gemini: send message")
	}

	// The model can stop mid-table at the output token cap. That is a
	// partial result, not a failure: surface it in the logs so a short
	// table can be traced back to truncation.
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		zap.L().Warn("gemini: reply truncated at output token cap",
			zap.String("model", s.model),
		)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// Close releases the underlying API client. The genai SDK client holds no
// closable resources, so this is a no-op kept for the caller contract.
func (c *Client) Close() error {
	return nil
}
