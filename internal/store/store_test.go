package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/models"
)

func openMemory(t *testing.T) Store {
	t.Helper()
	s, err := OpenBadger("", arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadger_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	require.NoError(t, s.Set(ctx, "k", "v2"))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadger_OnDiskSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenBadger(dir, arbor.NewLogger())
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "currentResumeId", "r-42"))
	require.NoError(t, s.Close())

	s, err = OpenBadger(dir, arbor.NewLogger())
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get(ctx, "currentResumeId")
	require.NoError(t, err)
	assert.Equal(t, "r-42", v)
}

func TestState_TypedRecords(t *testing.T) {
	ctx := context.Background()
	st := NewState(openMemory(t), models.SiteStepStone)
	assert.Equal(t, "stepstoneFormStatus", st.Keys.FormStatus)
	assert.Equal(t, "stepstonePaginationState", st.Keys.RunState)
	assert.Equal(t, "stepstoneAutoApplyRunning", st.Keys.Running)

	_, ok, err := st.FormStatus(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	want := models.FormStatus{State: models.FormCompleted, ApplicationID: "A1", UpdatedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, st.SetFormStatus(ctx, want))
	got, ok, err := st.FormStatus(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, st.ClearFormStatus(ctx))
	_, ok, _ = st.FormStatus(ctx)
	assert.False(t, ok)

	require.NoError(t, st.SetRunState(ctx, models.RunState{CurrentPage: 3}))
	rs, ok, err := st.RunState(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, rs.CurrentPage)

	running, err := st.Running(ctx)
	require.NoError(t, err)
	assert.False(t, running)
	require.NoError(t, st.SetRunning(ctx, true))
	running, _ = st.Running(ctx)
	assert.True(t, running)

	id, err := st.ResumeID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
	require.NoError(t, st.SetResumeID(ctx, "cv"))
	id, _ = st.ResumeID(ctx)
	assert.Equal(t, "cv", id)
}

func TestRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	s, err := OpenRedis(ctx, url)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "test:key", "v"))
	v, err := s.Get(ctx, "test:key")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	require.NoError(t, s.Delete(ctx, "test:key"))
	_, err = s.Get(ctx, "test:key")
	assert.ErrorIs(t, err, ErrNotFound)
}
