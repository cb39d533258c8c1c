package anthropic

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrEmptyReply is returned when a send round trip yields no text.
var ErrEmptyReply = eris.New("anthropic: empty reply")

// SessionConfig shapes the sessions a SessionClient opens.
type SessionConfig struct {
	Model     string // defaults to defaultModel
	MaxTokens int64  // per-reply output cap, defaults to defaultMaxTokens
	System    string // system-level extraction contract
}

// SessionClient opens extraction sessions against the Messages API.
// Unlike a chat backend there is no server-side conversational state, so
// each session keeps an explicit append-only transcript and replays it on
// every send.
type SessionClient struct {
	api sdkClientIface
	cfg SessionConfig
}

// sdkClientIface narrows Client for test substitution.
type sdkClientIface = Client

// NewSessionClient wraps an API client for session use.
func NewSessionClient(api Client, cfg SessionConfig) *SessionClient {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &SessionClient{api: api, cfg: cfg}
}

// OpenSession creates one conversational context with empty history.
func (c *SessionClient) OpenSession(ctx context.Context) (*Session, error) {
	_ = ctx // no remote handle to establish; history starts empty
	return &Session{api: c.api, cfg: c.cfg}, nil
}

// Session is one ongoing exchange. The transcript only ever grows; a
// failed send leaves it untouched so the dialogue cannot fork.
type Session struct {
	api sdkClientIface
	cfg SessionConfig

	mu         sync.Mutex
	transcript []Message
}

// Send transmits one instruction with the accumulated history and returns
// the reply text.
func (s *Session) Send(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	msgs := make([]Message, len(s.transcript), len(s.transcript)+2)
	copy(msgs, s.transcript)
	s.mu.Unlock()

	msgs = append(msgs, Message{Role: "user", Content: prompt})

	resp, err := s.api.CreateMessage(ctx, MessageRequest{
		Model:     s.cfg.Model,
		MaxTokens: s.cfg.MaxTokens,
		System:    s.cfg.System,
		Messages:  msgs,
		WebSearch: true,
	})
	if err != nil {
		return "", eris.Wrap(err, "anthropic: session send")
	}

	if resp.StopReason == "max_tokens" {
		zap.L().Warn("anthropic: reply truncated at output token cap",
			zap.String("model", s.cfg.Model),
		)
	}

	if resp.Text == "" {
		return "", ErrEmptyReply
	}

	s.mu.Lock()
	s.transcript = append(s.transcript,
		Message{Role: "user", Content: prompt},
		Message{Role: "assistant", Content: resp.Text},
	)
	s.mu.Unlock()

	return resp.Text, nil
}
