// Package ai is the Answer Oracle: a single-turn query to a language model
// whose reply is cleaned before anyone else sees it.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

var (
	ErrTransport     = errors.New("oracle transport failed")
	ErrEmptyContent  = errors.New("oracle returned empty content")
	ErrMalformedJSON = errors.New("oracle returned malformed json")
)

// Request is one question put to the oracle.
type Request struct {
	Question   string
	Options    []string
	FormatSpec string
	ProfileKey string
}

type Response struct {
	Answer     string
	Confidence float64
	Model      string
}

// Oracle answers a single application question.
type Oracle interface {
	Answer(ctx context.Context, req Request) (Response, error)
}

// Completer is one model backend. Transport problems wrap ErrTransport.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Model() string
}

// ContextSource resolves a profile key to résumé text.
type ContextSource interface {
	Context(ctx context.Context, key string) (string, error)
}

const defaultConfidence = 0.7

// Client turns a Completer into an Oracle.
type Client struct {
	completer Completer
	profiles  ContextSource
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// NewClient builds an oracle client. profiles and limiter may be nil.
func NewClient(completer Completer, profiles ContextSource, limiter *rate.Limiter, logger arbor.ILogger) *Client {
	return &Client{completer: completer, profiles: profiles, limiter: limiter, logger: logger}
}

// NewLimiter allows perSecond oracle calls per second; zero means unlimited.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

func (c *Client) Answer(ctx context.Context, req Request) (Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, err
		}
	}

	resume := ""
	if c.profiles != nil && req.ProfileKey != "" {
		text, err := c.profiles.Context(ctx, req.ProfileKey)
		if err != nil {
			c.logger.Warn().Err(err).Str("profile", req.ProfileKey).Msg("profile context unavailable")
		}
		resume = text
	}

	user := buildUserPrompt(req, resume)
	raw, err := c.completer.Complete(ctx, systemPrompt, user)
	if errors.Is(err, ErrTransport) && ctx.Err() == nil {
		c.logger.Warn().Err(err).Msg("oracle transport failed, retrying once")
		raw, err = c.completer.Complete(ctx, systemPrompt, user)
	}
	if err != nil {
		return Response{}, err
	}

	answer, confidence := parseReply(raw)
	answer = Clean(answer)
	if answer == "" {
		return Response{}, ErrEmptyContent
	}

	c.logger.Debug().
		Str("question", req.Question).
		Str("answer", answer).
		Str("model", c.completer.Model()).
		Msg("oracle answered")

	return Response{Answer: answer, Confidence: confidence, Model: c.completer.Model()}, nil
}

const systemPrompt = `You fill in job application forms on behalf of the applicant described in the résumé.
Answer each question truthfully from the résumé, in the language of the question, as briefly as the form allows.
If options are given, answer with exactly one of them (or several, comma separated, when the question allows several).
Reply with a JSON object {"answer": "...", "confidence": 0.0-1.0} and nothing else.`

func buildUserPrompt(req Request, resume string) string {
	var b strings.Builder
	if resume != "" {
		fmt.Fprintf(&b, "RESUME:\n%s\n\n", resume)
	}
	fmt.Fprintf(&b, "QUESTION: %s\n", req.Question)
	if len(req.Options) > 0 {
		fmt.Fprintf(&b, "OPTIONS: %s\n", strings.Join(req.Options, " | "))
	}
	if req.FormatSpec != "" {
		fmt.Fprintf(&b, "%s\n", req.FormatSpec)
	}
	b.WriteString("\nANSWER:")
	return b.String()
}
