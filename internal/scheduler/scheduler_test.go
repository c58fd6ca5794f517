package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type fakeStarter struct {
	mu      sync.Mutex
	running bool
	starts  int
	err     error
}

func (f *fakeStarter) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.starts++
	f.running = true
	return nil
}

func (f *fakeStarter) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func TestNew_RejectsBadSpec(t *testing.T) {
	_, err := New("every tuesday", &fakeStarter{}, arbor.NewLogger())
	assert.Error(t, err)

	_, err = New("@every 6h", &fakeStarter{}, arbor.NewLogger())
	assert.NoError(t, err)
}

func TestTick(t *testing.T) {
	starter := &fakeStarter{}
	s, err := New("0 9 * * 1-5", starter, arbor.NewLogger())
	require.NoError(t, err)

	s.Tick(context.Background())
	s.Tick(context.Background())
	assert.Equal(t, 1, starter.starts, "a tick during an active run is skipped")

	starter.running = false
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Tick(ctx)
	assert.Equal(t, 1, starter.starts)

	starter.err = errors.New("browser gone")
	s.Tick(context.Background())
	assert.Equal(t, 1, starter.starts)
}

func TestStartStop(t *testing.T) {
	s, err := New("@every 1h", &fakeStarter{}, arbor.NewLogger())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
