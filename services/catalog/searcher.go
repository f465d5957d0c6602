package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"phimtoc/models"
)

// DefaultDebounce is the quiescence window applied to incremental keyword
// changes before a search request is issued.
const DefaultDebounce = 300 * time.Millisecond

type searchClient interface {
	Search(ctx context.Context, keyword string, params ListParams) ([]models.CatalogItem, error)
}

var _ searchClient = (*Client)(nil)

// SearchUpdate is delivered to the apply callback for the result that is
// still current; superseded responses are never delivered.
type SearchUpdate struct {
	Keyword string
	Items   []models.CatalogItem
	Err     error
}

// Searcher debounces search-as-you-type. Each keystroke bumps a generation
// counter; only the response whose generation is still current is applied,
// so results always land in keystroke order regardless of network
// completion order.
type Searcher struct {
	client   searchClient
	interval time.Duration
	params   ListParams
	apply    func(SearchUpdate)

	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	closed bool
}

// NewSearcher wires a debounced searcher over the given client. An interval
// of zero selects DefaultDebounce. The apply callback runs off the caller's
// goroutine once per surviving keyword.
func NewSearcher(client searchClient, interval time.Duration, params ListParams, apply func(SearchUpdate)) *Searcher {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Searcher{
		client:   client,
		interval: interval,
		params:   params,
		apply:    apply,
	}
}

// SetKeyword registers a keyword change. A blank keyword clears the result
// immediately without a network call; anything else waits out the debounce
// window and is dropped if a newer keystroke arrives first.
func (s *Searcher) SetKeyword(ctx context.Context, keyword string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if strings.TrimSpace(keyword) == "" {
		go s.deliver(gen, SearchUpdate{Keyword: ""})
		return
	}

	s.timer = time.AfterFunc(s.interval, func() {
		s.fire(ctx, gen, keyword)
	})
}

// Close tears the searcher down; any in-flight or pending request result is
// discarded on arrival.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Searcher) fire(ctx context.Context, gen uint64, keyword string) {
	s.mu.Lock()
	current := !s.closed && gen == s.gen
	s.mu.Unlock()
	if !current {
		return
	}

	items, err := s.client.Search(ctx, keyword, s.params)
	s.deliver(gen, SearchUpdate{Keyword: keyword, Items: items, Err: err})
}

func (s *Searcher) deliver(gen uint64, update SearchUpdate) {
	s.mu.Lock()
	current := !s.closed && gen == s.gen
	s.mu.Unlock()
	if !current {
		return
	}
	s.apply(update)
}
