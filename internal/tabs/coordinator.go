// Package tabs opens one browsing context per job, routes messages to the
// handler living in it and hands focus back to the listing context.
package tabs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/dom"
	"go-autoapply/internal/models"
)

var (
	ErrNoReceiver   = errors.New("tabs: no receiver in child")
	ErrLoadTimeout  = errors.New("tabs: child did not finish loading")
	ErrStopped      = errors.New("tabs: stopped")
	ErrUnknownChild = errors.New("tabs: unknown child")
)

// Tab is a browsing context the coordinator can focus, wait on and close.
type Tab interface {
	dom.Page
	Activate(ctx context.Context) error
	WaitForLoad(ctx context.Context) error
	Close(ctx context.Context) error
}

// Opener creates a new browsing context at url.
type Opener interface {
	Open(ctx context.Context, url string) (Tab, error)
}

const ActionProcessJob = "processJobInTab"

type Message struct {
	Action   string                `json:"action"`
	Job      *models.JobDescriptor `json:"job,omitempty"`
	ResumeID string                `json:"resumeId,omitempty"`
}

// Reply statuses a handler may return.
const (
	ReplyStarted        = "started"
	ReplySkipped        = "skipped"
	ReplyExternalForm   = "external-form"
	ReplyAlreadyApplied = "already-applied"
	ReplyError          = "error"
)

type Reply struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Definitive reports whether the reply already settles the job.
func (r Reply) Definitive() bool {
	switch r.Status {
	case ReplySkipped, ReplyExternalForm, ReplyAlreadyApplied:
		return true
	}
	return false
}

// Handler receives messages inside a child context. It returns
// ErrNoReceiver while the child is not ready to listen.
type Handler func(ctx context.Context, msg Message) (Reply, error)

// AttachFunc installs the handler for a freshly loaded child. ctx lives as
// long as the child: it ends when the child is closed or the context given
// to Open ends. Work the handler starts in the background belongs on it.
type AttachFunc func(ctx context.Context, childID string, tab Tab) Handler

type child struct {
	tab     Tab
	handler Handler
	cancel  context.CancelFunc
}

type Coordinator struct {
	opener Opener
	parent Tab
	attach AttachFunc
	logger arbor.ILogger

	LoadTimeout time.Duration
	// Backoff holds the waits between send attempts.
	Backoff []time.Duration

	mu       sync.Mutex
	children map[string]*child
	active   string
}

func NewCoordinator(opener Opener, parent Tab, attach AttachFunc, logger arbor.ILogger) *Coordinator {
	return &Coordinator{
		opener:      opener,
		parent:      parent,
		attach:      attach,
		logger:      logger,
		LoadTimeout: 30 * time.Second,
		Backoff:     []time.Duration{time.Second, 2 * time.Second},
		children:    make(map[string]*child),
	}
}

// Open opens url in a new child, focuses it and waits for its document.
// On a load failure the id is still returned so the caller can close it.
func (c *Coordinator) Open(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStopped, err)
	}
	tab, err := c.opener.Open(ctx, url)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", url, err)
	}

	id := uuid.NewString()
	childCtx, cancelChild := context.WithCancel(ctx)
	c.mu.Lock()
	c.children[id] = &child{tab: tab, cancel: cancelChild}
	c.active = id
	c.mu.Unlock()

	c.logger.Debug().Str("child", id).Str("url", url).Msg("child opened")

	if err := tab.Activate(ctx); err != nil {
		return id, fmt.Errorf("activate child: %w", err)
	}

	loadCtx, cancel := context.WithTimeout(ctx, c.LoadTimeout)
	defer cancel()
	if err := tab.WaitForLoad(loadCtx); err != nil {
		if ctx.Err() != nil {
			return id, fmt.Errorf("%w: %v", ErrStopped, ctx.Err())
		}
		return id, fmt.Errorf("%w: %v", ErrLoadTimeout, err)
	}

	if c.attach != nil {
		c.Register(id, c.attach(childCtx, id, tab))
	}
	return id, nil
}

// Register installs or replaces the handler of a child.
func (c *Coordinator) Register(id string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.children[id]; ok {
		ch.handler = h
	}
}

// Send delivers msg to the child's handler, retrying while the child has no
// receiver.
func (c *Coordinator) Send(ctx context.Context, id string, msg Message) (Reply, error) {
	attempts := len(c.Backoff) + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.Backoff[attempt-1]); err != nil {
				return Reply{}, fmt.Errorf("%w: %v", ErrStopped, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return Reply{}, fmt.Errorf("%w: %v", ErrStopped, err)
		}

		c.mu.Lock()
		ch, ok := c.children[id]
		var h Handler
		if ok {
			h = ch.handler
		}
		c.mu.Unlock()
		if !ok {
			return Reply{}, ErrUnknownChild
		}

		if h == nil {
			lastErr = ErrNoReceiver
		} else {
			reply, err := h(ctx, msg)
			if err == nil {
				return reply, nil
			}
			if !errors.Is(err, ErrNoReceiver) {
				return Reply{}, err
			}
			lastErr = err
		}
		c.logger.Debug().Str("child", id).Int("attempt", attempt+1).Msg("no receiver yet")
	}
	return Reply{}, lastErr
}

// Tab returns the child's browsing context.
func (c *Coordinator) Tab(id string) (Tab, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.children[id]
	if !ok {
		return nil, false
	}
	return ch.tab, true
}

// Active returns the id of the focused child, or "" when the listing
// context has focus.
func (c *Coordinator) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Close ends a child's context and closes it. Unknown or already closed ids
// are ignored.
func (c *Coordinator) Close(ctx context.Context, id string) error {
	c.mu.Lock()
	ch, ok := c.children[id]
	delete(c.children, id)
	if c.active == id {
		c.active = ""
	}
	c.mu.Unlock()
	if !ok {
		return nil
	}
	ch.cancel()
	c.logger.Debug().Str("child", id).Msg("child closed")
	return ch.tab.Close(ctx)
}

// ActivateParent returns focus to the listing context.
func (c *Coordinator) ActivateParent(ctx context.Context) error {
	c.mu.Lock()
	c.active = ""
	c.mu.Unlock()
	if c.parent == nil {
		return nil
	}
	return c.parent.Activate(ctx)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
