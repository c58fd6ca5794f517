// Package dedup remembers which postings a run already handled so later runs
// skip them.
package dedup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"go-autoapply/internal/models"
)

const (
	fileName   = "handled_jobs.json"
	DefaultTTL = 30 * 24 * time.Hour
)

type handledEntry struct {
	Key       string            `json:"key"`
	Outcome   models.JobOutcome `json:"outcome"`
	Timestamp int64             `json:"timestamp"`
}

// Cache is a file-backed set of job keys with an expiry.
type Cache struct {
	mu       sync.Mutex
	filePath string
	ttl      time.Duration
	handled  map[string]handledEntry
	logger   arbor.ILogger
	now      func() time.Time
}

// NewCache loads dir/handled_jobs.json, dropping entries older than ttl.
func NewCache(dir string, ttl time.Duration, logger arbor.ILogger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("⚠️ Failed to create cache directory")
	}
	c := &Cache{
		filePath: filepath.Join(dir, fileName),
		ttl:      ttl,
		handled:  make(map[string]handledEntry),
		logger:   logger,
		now:      time.Now,
	}
	c.load()
	return c
}

// Seen reports whether the posting was handled within the ttl.
func (c *Cache) Seen(job models.JobDescriptor) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.handled[job.Key()]
	return ok && c.fresh(e)
}

// Mark records the outcome of a posting. Only settled outcomes are
// remembered; failed, stopped and timed-out jobs come back next run.
func (c *Cache) Mark(job models.JobDescriptor, outcome models.JobOutcome) {
	switch outcome {
	case models.OutcomeSuccess, models.OutcomeSkipped, models.OutcomeExternalForm:
	default:
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handled[job.Key()] = handledEntry{Key: job.Key(), Outcome: outcome, Timestamp: c.now().UnixMilli()}
	c.save()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handled)
}

func (c *Cache) fresh(e handledEntry) bool {
	return c.now().Sub(time.UnixMilli(e.Timestamp)) < c.ttl
}

func (c *Cache) load() {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn().Err(err).Msg("⚠️ Failed to read handled jobs")
		}
		return
	}

	var entries []handledEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn().Err(err).Msg("⚠️ Failed to parse handled jobs")
		return
	}

	for _, e := range entries {
		if c.fresh(e) {
			c.handled[e.Key] = e
		}
	}
	c.logger.Info().Int("loaded", len(c.handled)).Int("expired", len(entries)-len(c.handled)).Msg("📋 Loaded handled jobs")
}

// save must be called with mu held.
func (c *Cache) save() {
	entries := make([]handledEntry, 0, len(c.handled))
	for _, e := range c.handled {
		entries = append(entries, e)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		c.logger.Warn().Err(err).Msg("⚠️ Failed to marshal handled jobs")
		return
	}
	if err := os.WriteFile(c.filePath, data, 0644); err != nil {
		c.logger.Warn().Err(err).Msg("⚠️ Failed to write handled jobs")
	}
}
