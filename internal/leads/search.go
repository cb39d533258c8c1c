package leads

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoReply is returned when the backend answers a send with no text at
// all. An empty but parseable reply (no table rows) is not an error.
var ErrNoReply = eris.New("leads: backend returned no text")

// ErrSearchInFlight is returned when a send is attempted while another
// send on the same session is still outstanding. The backend's
// conversational state is not reentrant-safe; overlapping calls would
// corrupt the ordering of the accumulated dialogue.
var ErrSearchInFlight = eris.New("leads: a search on this session is already in flight")

// Session is one ongoing conversational context with the generative
// backend, scoped to a single user query. It knows nothing about
// business semantics: send text, get text back.
type Session interface {
	Send(ctx context.Context, prompt string) (string, error)
}

// Searcher drives the extraction pipeline over one session: prompt,
// round trip, parse, merge. A Searcher is bound to exactly one search;
// a new search needs a new session and a new Searcher.
type Searcher struct {
	session Session

	mu     sync.Mutex
	busy   bool
	rounds int
}

// NewSearcher wraps a session for one search.
func NewSearcher(s Session) *Searcher {
	return &Searcher{session: s}
}

// RunInitialSearch issues the first extraction for query and returns the
// parsed, deduplicated result set. If the caller's ctx is cancelled while
// the round trip is pending, the eventual backend reply is discarded
// rather than merged.
func (s *Searcher) RunInitialSearch(ctx context.Context, query string) (ResultSet, error) {
	return s.round(ctx, InitialPrompt(query), nil)
}

// RunMoreSearch asks the same session for businesses it has not returned
// yet and merges the new rows into existing. The input set is not
// mutated; the extended set is returned.
func (s *Searcher) RunMoreSearch(ctx context.Context, existing ResultSet) (ResultSet, error) {
	return s.round(ctx, MorePrompt(), existing)
}

func (s *Searcher) round(ctx context.Context, prompt string, existing ResultSet) (ResultSet, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrSearchInFlight
	}
	s.busy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	text, err := s.session.Send(ctx, prompt)
	if err != nil {
		return nil, eris.Wrap(err, "leads: session send")
	}
	if ctx.Err() != nil {
		// The caller abandoned this round; the reply belongs to a
		// superseded result set and must not be merged.
		return nil, eris.Wrap(ctx.Err(), "leads: search abandoned")
	}
	if text == "" {
		return nil, ErrNoReply
	}

	incoming := ParseTable(text)
	merged := Merge(existing, incoming)

	s.mu.Lock()
	s.rounds++
	round := s.rounds
	s.mu.Unlock()

	zap.L().Info("search round complete",
		zap.Int("round", round),
		zap.Int("parsed", len(incoming)),
		zap.Int("new", len(merged)-len(existing)),
		zap.Int("total", len(merged)),
	)

	return merged, nil
}
