package reminder

import (
	"sort"
	"sync"
)

// Repository holds the session collection in memory. Each mutation publishes a
// new slice; callers always receive copies and can never alias internal state.
type Repository struct {
	mu       sync.RWMutex
	sessions []StudySession
}

// NewRepository creates a repository seeded with sessions
func NewRepository(sessions []StudySession) *Repository {
	r := &Repository{}
	r.Replace(sessions)
	return r
}

// Replace swaps the whole collection, typically with the loaded store contents
func (r *Repository) Replace(sessions []StudySession) {
	next := cloneSessions(sessions)
	r.mu.Lock()
	r.sessions = next
	r.mu.Unlock()
}

// Add appends a session and returns the new snapshot. The caller guarantees id uniqueness.
func (r *Repository) Add(s StudySession) []StudySession {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]StudySession, len(r.sessions), len(r.sessions)+1)
	copy(next, r.sessions)
	next = append(next, s)
	r.sessions = next

	return cloneSessions(next)
}

// Remove drops the session with the given id. Unknown ids are a no-op.
func (r *Repository) Remove(id string) []StudySession {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return cloneSessions(r.sessions)
	}

	next := make([]StudySession, 0, len(r.sessions)-1)
	next = append(next, r.sessions[:idx]...)
	next = append(next, r.sessions[idx+1:]...)
	r.sessions = next

	return cloneSessions(next)
}

// MarkNotified flips notified on the session with the given id. Idempotent;
// unknown ids and already-notified sessions leave the collection unchanged.
func (r *Repository) MarkNotified(id string) []StudySession {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 || r.sessions[idx].Notified {
		return cloneSessions(r.sessions)
	}

	next := cloneSessions(r.sessions)
	next[idx].Notified = true
	r.sessions = next

	return cloneSessions(next)
}

// All returns a snapshot in storage order
func (r *Repository) All() []StudySession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSessions(r.sessions)
}

// Get returns the session with the given id
func (r *Repository) Get(id string) (StudySession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return StudySession{}, false
	}
	return r.sessions[idx], true
}

// Len returns the number of sessions
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sorted returns a snapshot in display order
func (r *Repository) Sorted() []StudySession {
	out := r.All()
	SortByDueTime(out)
	return out
}

// Due returns every session with scheduledFor <= now that has not alerted yet,
// earliest first.
func (r *Repository) Due(now int64) []StudySession {
	r.mu.RLock()
	var due []StudySession
	for _, s := range r.sessions {
		if s.IsDue(now) {
			due = append(due, s)
		}
	}
	r.mu.RUnlock()

	SortByDueTime(due)
	return due
}

func (r *Repository) indexOf(id string) int {
	for i := range r.sessions {
		if r.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// SortByDueTime orders sessions by scheduledFor, then createdAt, then id
func SortByDueTime(sessions []StudySession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.ScheduledFor != b.ScheduledFor {
			return a.ScheduledFor < b.ScheduledFor
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})
}

func cloneSessions(in []StudySession) []StudySession {
	out := make([]StudySession, len(in))
	copy(out, in)
	return out
}
