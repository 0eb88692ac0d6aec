package audit

import (
	"sync"

	"github.com/darmiel/vigil/internal/core"
)

var _ core.Auditor = (*InMemoryAuditor)(nil)
var _ core.AuditReader = (*InMemoryAuditor)(nil)

// DefaultCapacity bounds the in-memory audit log. A verification-heavy
// deployment writes one entry per request, so the log must not grow unbounded.
const DefaultCapacity = 10_000

// InMemoryAuditor keeps the most recent audit entries in memory. It is the
// only auditor that can be queried back through the admin API; once capacity
// is reached the oldest entries are dropped.
type InMemoryAuditor struct {
	mu       sync.Mutex
	entries  []core.AuditEntry
	capacity int
}

func NewInMemoryAuditor(capacity int) *InMemoryAuditor {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &InMemoryAuditor{
		entries:  make([]core.AuditEntry, 0),
		capacity: capacity,
	}
}

func (i *InMemoryAuditor) Log(entry core.AuditEntry) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.entries = append(i.entries, entry)
	if len(i.entries) > i.capacity {
		i.entries = i.entries[len(i.entries)-i.capacity:]
	}
	return nil
}

// GetRecent returns up to limit entries, oldest first.
func (i *InMemoryAuditor) GetRecent(limit int) ([]core.AuditEntry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if limit > len(i.entries) {
		limit = len(i.entries)
	}
	start := len(i.entries) - limit
	entries := make([]core.AuditEntry, limit)
	copy(entries, i.entries[start:])

	return entries, nil
}

// Find returns up to limit entries matching the filter, oldest first.
func (i *InMemoryAuditor) Find(filter func(entry core.AuditEntry) bool, limit int) ([]core.AuditEntry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var matches []core.AuditEntry
	for _, entry := range i.entries {
		if filter(entry) {
			matches = append(matches, entry)
		}
	}

	if len(matches) > limit {
		matches = matches[len(matches)-limit:]
	}

	return matches, nil
}

func (i *InMemoryAuditor) Close() error {
	return nil // nothing to close :)
}
