package competitionservice

import (
	"sync"

	"github.com/google/uuid"
)

type eventKey struct {
	competitionID uuid.UUID
	eventCode     string
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

// eventLocks serializes in-process writers of one (competition, event) pair.
// Entries are dropped once no goroutine holds or waits on them.
type eventLocks struct {
	mu    sync.Mutex
	locks map[eventKey]*refLock
}

func newEventLocks() *eventLocks {
	return &eventLocks{locks: make(map[eventKey]*refLock)}
}

// Lock blocks until the pair is free and returns its release func.
func (l *eventLocks) Lock(competitionID uuid.UUID, eventCode string) func() {
	key := eventKey{competitionID: competitionID, eventCode: eventCode}

	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &refLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, key)
			}
			l.mu.Unlock()
		})
	}
}

func (l *eventLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
