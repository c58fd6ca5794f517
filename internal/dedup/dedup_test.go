package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/models"
)

func TestCache_MarkAndReload(t *testing.T) {
	dir := t.TempDir()
	logger := arbor.NewLogger()

	job := models.JobDescriptor{Site: models.SiteStepStone, URL: "https://www.stepstone.de/job-1.html?utm=x"}
	sameJob := models.JobDescriptor{Site: models.SiteStepStone, URL: "https://www.stepstone.de/job-1.html#top"}

	c := NewCache(dir, 0, logger)
	assert.False(t, c.Seen(job))
	c.Mark(job, models.OutcomeSuccess)
	assert.True(t, c.Seen(sameJob), "tracking parameters must not change the key")

	reloaded := NewCache(dir, 0, logger)
	assert.True(t, reloaded.Seen(job))
}

func TestCache_UnsettledNotRemembered(t *testing.T) {
	c := NewCache(t.TempDir(), 0, arbor.NewLogger())
	job := models.JobDescriptor{Site: models.SiteLinkedIn, JobID: "1"}

	c.Mark(job, models.OutcomeStopped)
	c.Mark(job, models.OutcomeTimeout)
	c.Mark(job, models.OutcomeError)
	assert.False(t, c.Seen(job))

	c.Mark(job, models.OutcomeExternalForm)
	assert.True(t, c.Seen(job))
}

func TestCache_Expiry(t *testing.T) {
	dir := t.TempDir()
	logger := arbor.NewLogger()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	c := NewCache(dir, time.Hour, logger)
	c.now = func() time.Time { return now }
	job := models.JobDescriptor{Site: models.SiteLinkedIn, JobID: "7"}
	c.Mark(job, models.OutcomeSuccess)

	c.now = func() time.Time { return now.Add(2 * time.Hour) }
	assert.False(t, c.Seen(job))

	// a real clock far past the fixed timestamp drops it on load
	assert.Equal(t, 0, NewCache(dir, time.Hour, logger).Len())
}
