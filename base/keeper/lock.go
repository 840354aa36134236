package keeper

import (
	"sync"

	"github.com/x-xyz/keeper/domain"
)

// ProcessingLock marks auctions with a settlement attempt in flight. It lives in
// process memory only, a restart clears it.
type ProcessingLock struct {
	mu   sync.Mutex
	held map[domain.IntentId]struct{}
}

func NewProcessingLock() *ProcessingLock {
	return &ProcessingLock{held: make(map[domain.IntentId]struct{})}
}

// TryAcquire takes the lock for id and reports whether it was free.
func (l *ProcessingLock) TryAcquire(id domain.IntentId) bool {
	id = id.ToLower()
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[id]; ok {
		return false
	}
	l.held[id] = struct{}{}
	return true
}

func (l *ProcessingLock) Release(id domain.IntentId) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id.ToLower())
}

func (l *ProcessingLock) IsLocked(id domain.IntentId) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[id.ToLower()]
	return ok
}

func (l *ProcessingLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}
