package proposals

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/logging"
)

// DefaultTTL is how long a pending proposal survives before listPending
// sweeps it away unapplied.
const DefaultTTL = time.Hour

// UpdateKind labels a store lifecycle event.
type UpdateKind string

const (
	UpdateCreated UpdateKind = "created"
	UpdateRemoved UpdateKind = "removed"
	UpdateExpired UpdateKind = "expired"
	UpdateCleared UpdateKind = "cleared"
)

// Update notifies subscribers that the pending set changed.
type Update struct {
	Kind UpdateKind `json:"kind"`
	ID   string     `json:"id,omitempty"`
}

// Store is an in-memory registry of pending proposals. Every operation takes
// the one mutex; there is no per-proposal locking.
type Store struct {
	mu          sync.Mutex
	proposals   map[string]*Proposal
	subscribers map[chan Update]struct{}
	ttl         time.Duration
	now         func() time.Time
	logger      *logrus.Entry
}

// NewStore creates a store using the wall clock and the default TTL.
func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock creates a store with an injected clock, used by tests to
// step time past the TTL without sleeping.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		proposals:   make(map[string]*Proposal),
		subscribers: make(map[chan Update]struct{}),
		ttl:         DefaultTTL,
		now:         now,
		logger:      logging.NewLogger("proposals"),
	}
}

// Subscribe returns a buffered channel receiving store updates. Slow
// consumers drop updates rather than blocking store operations.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Update, 100)
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// notify must be called with s.mu held.
func (s *Store) notify(u Update) {
	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
		}
	}
}

// Create registers a new proposal and returns the stored copy. When summary
// is empty and there is exactly one change, the summary defaults to
// "<Operation> <path>".
func (s *Store) Create(summary string, changes []FileChange) (*Proposal, error) {
	if len(changes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "proposal requires at least one change")
	}
	for i := range changes {
		if err := changes[i].Validate(); err != nil {
			return nil, err
		}
	}
	if summary == "" && len(changes) == 1 {
		summary = defaultSummary(changes[0])
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	p := &Proposal{
		ID:        id,
		Summary:   summary,
		Changes:   changes,
		CreatedAt: s.now(),
	}
	s.proposals[id] = p

	s.logger.WithFields(logrus.Fields{
		"proposal_id": id,
		"files":       len(changes),
	}).Info("Proposal created")
	s.notify(Update{Kind: UpdateCreated, ID: id})

	return p.clone(), nil
}

// newID draws 8-hex identifiers until one misses the live set. Must be
// called with s.mu held.
func (s *Store) newID() (string, error) {
	for {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to generate proposal id")
		}
		id := hex.EncodeToString(buf)
		if _, exists := s.proposals[id]; !exists {
			return id, nil
		}
	}
}

// Get returns a copy of the proposal with the given id.
func (s *Store) Get(id string) (*Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, errors.ProposalNotFound(id)
	}
	return p.clone(), nil
}

// AppendChange adds a change to an existing proposal and returns a copy of
// the updated proposal. Proposals already finalized or expired report NotFound.
func (s *Store) AppendChange(id string, change FileChange) (*Proposal, error) {
	if err := change.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, errors.ProposalNotFound(id)
	}
	p.Changes = append(p.Changes, change)
	return p.clone(), nil
}

// ListPending expires stale proposals, then returns summaries of the
// survivors, newest first. Bodies never leave the store through this path.
func (s *Store) ListPending() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	for id, p := range s.proposals {
		if p.CreatedAt.Before(cutoff) {
			delete(s.proposals, id)
			s.logger.WithField("proposal_id", id).Info("Proposal expired")
			s.notify(Update{Kind: UpdateExpired, ID: id})
		}
	}

	summaries := make([]Summary, 0, len(s.proposals))
	for _, p := range s.proposals {
		summaries = append(summaries, Summary{
			ID:           p.ID,
			Summary:      p.Summary,
			FileCount:    len(p.Changes),
			LinesAdded:   p.LinesAdded(),
			LinesRemoved: p.LinesRemoved(),
			CreatedAt:    p.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries
}

// Remove atomically detaches and returns the proposal. Exactly one of two
// racing callers wins; the loser gets NotFound. This is how approval claims
// a proposal before touching disk.
func (s *Store) Remove(id string) (*Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, errors.ProposalNotFound(id)
	}
	delete(s.proposals, id)
	s.notify(Update{Kind: UpdateRemoved, ID: id})
	return p, nil
}

// ClearAll discards every pending proposal and returns how many were dropped.
func (s *Store) ClearAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.proposals)
	s.proposals = make(map[string]*Proposal)
	if count > 0 {
		s.logger.WithField("count", count).Info("Cleared all pending proposals")
		s.notify(Update{Kind: UpdateCleared})
	}
	return count
}

// Count returns the number of pending proposals without sweeping.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.proposals)
}
