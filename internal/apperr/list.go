package apperr

import (
	"strings"
	"sync"
)

// List collects error messages once each, in arrival order. It is safe for
// concurrent use; the zero value is ready.
type List struct {
	mu    sync.Mutex
	seen  map[string]bool
	items []string
}

// Add records each non-blank message not already present.
func (l *List) Add(msgs ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	for _, m := range msgs {
		m = strings.TrimSpace(m)
		if m == "" || l.seen[m] {
			continue
		}
		l.seen[m] = true
		l.items = append(l.items, m)
	}
}

// Messages returns a copy of the collected messages, never nil.
func (l *List) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.items...)
}
