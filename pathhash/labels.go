package pathhash

import "sync"

// Labels remembers the strings behind hashes so diagnostics and the FUSE view
// can print names instead of opaque values. It is safe for concurrent use.
type Labels struct {
	mu     sync.RWMutex
	labels map[Hash]string
}

// NewLabels returns an empty label set.
func NewLabels() *Labels {
	return &Labels{labels: make(map[Hash]string)}
}

// Add hashes s, records it, and returns the hash.
func (l *Labels) Add(s string) Hash {
	h := New(s)
	l.mu.Lock()
	l.labels[h] = canonical(s)
	l.mu.Unlock()
	return h
}

// Lookup returns the recorded string for h.
func (l *Labels) Lookup(h Hash) (string, bool) {
	if l == nil {
		return "", false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.labels[h]
	return s, ok
}

// Format returns the recorded string for h, or its hex form.
func (l *Labels) Format(h Hash) string {
	if s, ok := l.Lookup(h); ok {
		return s
	}
	return h.String()
}

// Len returns the number of recorded labels.
func (l *Labels) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.labels)
}
