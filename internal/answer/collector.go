package answer

import (
	"sync"

	"go-autoapply/internal/models"
)

// Collector accumulates the QA entries of one job. A later entry for the
// same question replaces the earlier one in place, keeping the earlier
// correction when the new entry carries none.
type Collector struct {
	mu      sync.Mutex
	entries []models.QAEntry
	index   map[string]int
}

func NewCollector() *Collector {
	return &Collector{index: make(map[string]int)}
}

func (c *Collector) Add(e *models.QAEntry) {
	if e == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[e.Question]; ok {
		next := *e
		if prev := c.entries[i]; !next.WasCorrected && prev.WasCorrected {
			next.WasCorrected = true
			next.OriginalAnswer = prev.OriginalAnswer
			next.CorrectionReason = prev.CorrectionReason
		}
		c.entries[i] = next
		return
	}
	c.index[e.Question] = len(c.entries)
	c.entries = append(c.entries, *e)
}

// Entries returns a copy in first-seen order.
func (c *Collector) Entries() []models.QAEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.QAEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.index = make(map[string]int)
}

// Annotate sets the validation note of the entry for question unless it
// already has one. It reports whether an entry was found.
func (c *Collector) Annotate(question, note string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[question]
	if !ok {
		return false
	}
	if c.entries[i].ValidationNote == "" {
		c.entries[i].ValidationNote = note
	}
	return true
}
