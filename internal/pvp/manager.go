package pvp

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidArgs      = errors.New("invalid arguments")
	ErrSelfChallenge    = errors.New("cannot challenge yourself")
	ErrAlreadyPending   = errors.New("target already has a pending challenge")
	ErrNoPendingForUser = errors.New("no pending challenge for target user")
)

const defaultTTL = 10 * time.Minute

type Manager struct {
	mu sync.RWMutex
	// targetID -> list of challenges (append-only; last is latest)
	byTarget map[string][]*Challenge
	seq      uint64
	ttl      time.Duration
	now      func() time.Time
}

type Option func(*Manager)

// WithTTL sets how long a challenge stays answerable. Non-positive values keep the default.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{byTarget: make(map[string][]*Challenge), ttl: defaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) CreateChallenge(originRoom, challengerID, challengerName, targetID, targetName string, side SideChoice) (*Challenge, error) {
	originRoom, challengerID, targetID = strings.TrimSpace(originRoom), strings.TrimSpace(challengerID), strings.TrimSpace(targetID)
	if originRoom == "" || challengerID == "" || targetID == "" {
		return nil, ErrInvalidArgs
	}
	if challengerID == targetID {
		return nil, ErrSelfChallenge
	}
	if side == "" {
		side = SideRandom
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	list := m.expireLocked(targetID, now)
	if idx := latestPendingIndex(list); idx >= 0 {
		return nil, ErrAlreadyPending
	}
	ch := &Challenge{
		ID:             m.nextID(now),
		OriginRoom:     originRoom,
		ChallengerID:   challengerID,
		ChallengerName: challengerName,
		TargetID:       targetID,
		TargetName:     targetName,
		Side:           side,
		CreatedAt:      now,
		ExpiresAt:      now.Add(m.ttl),
		Status:         StatusPending,
	}
	m.byTarget[targetID] = append(list, ch)
	return ch, nil
}

// Pending returns a copy of the target's open challenge, or nil.
func (m *Manager) Pending(targetID string) *Challenge {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.expireLocked(targetID, m.now())
	if idx := latestPendingIndex(list); idx >= 0 {
		cp := *list[idx]
		return &cp
	}
	return nil
}

func (m *Manager) Accept(targetID, acceptRoom string) (*Challenge, error) {
	return m.resolve(targetID, acceptRoom, StatusAccepted)
}

func (m *Manager) Decline(targetID, declineRoom string) (*Challenge, error) {
	return m.resolve(targetID, declineRoom, StatusDeclined)
}

func (m *Manager) resolve(targetID, room string, status Status) (*Challenge, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, ErrInvalidArgs
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.expireLocked(targetID, m.now())
	if idx := latestPendingIndex(list); idx >= 0 {
		ch := list[idx]
		ch.Status = status
		ch.ResolveRoom = room
		cp := *ch
		return &cp, nil
	}
	return nil, ErrNoPendingForUser
}

// Withdraw cancels the open challenge challengerID sent.
func (m *Manager) Withdraw(challengerID string) (*Challenge, error) {
	challengerID = strings.TrimSpace(challengerID)
	if challengerID == "" {
		return nil, ErrInvalidArgs
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for target := range m.byTarget {
		list := m.expireLocked(target, now)
		for i := len(list) - 1; i >= 0; i-- {
			ch := list[i]
			if ch.Status == StatusPending && ch.ChallengerID == challengerID {
				ch.Status = StatusWithdrawn
				cp := *ch
				return &cp, nil
			}
		}
	}
	return nil, ErrNoPendingForUser
}

// Sweep drops resolved and expired challenges and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for target := range m.byTarget {
		list := m.expireLocked(target, now)
		kept := list[:0]
		for _, ch := range list {
			if ch.Status == StatusPending {
				kept = append(kept, ch)
				continue
			}
			removed++
		}
		if len(kept) == 0 {
			delete(m.byTarget, target)
			continue
		}
		m.byTarget[target] = kept
	}
	return removed
}

func (m *Manager) expireLocked(targetID string, now time.Time) []*Challenge {
	list := m.byTarget[targetID]
	for _, ch := range list {
		if ch.Status == StatusPending && !now.Before(ch.ExpiresAt) {
			ch.Status = StatusExpired
		}
	}
	return list
}

func latestPendingIndex(list []*Challenge) int {
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Status == StatusPending {
			return i
		}
	}
	return -1
}

func (m *Manager) nextID(now time.Time) string {
	n := atomic.AddUint64(&m.seq, 1)
	return fmt.Sprintf("ch-%d-%d", now.UnixNano(), n)
}
