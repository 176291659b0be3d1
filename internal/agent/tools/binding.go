package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/tool"

	errx "github.com/waypoint-agents/server/internal/core/error"
	logx "github.com/waypoint-agents/server/pkg/logger"
)

// Binding is an external capability (web search, map data) that an agent can
// acquire for the duration of one call.
type Binding interface {
	Name() string
	// Probe checks that the capability is reachable right now. Results are not cached.
	Probe(ctx context.Context) error
	// Open acquires the capability. The caller owns the returned Session and must Close it.
	Open(ctx context.Context) (Session, error)
}

// Session is an acquired binding.
type Session interface {
	Tools(ctx context.Context) ([]tool.BaseTool, error)
	Close() error
}

// Probe checks every binding in order and returns the first failure.
func Probe(ctx context.Context, bindings ...Binding) error {
	for _, b := range bindings {
		if err := b.Probe(ctx); err != nil {
			logx.Warn().Err(err).Str("binding", b.Name()).Msg("Tool probe failed")
			return fmt.Errorf("%w: %s: %v", errx.ErrToolUnavailable, b.Name(), err)
		}
	}
	return nil
}

// Sessions is a group of open sessions released together.
type Sessions []Session

// OpenAll opens every binding. If any Open fails, the sessions opened so far are
// closed before returning.
func OpenAll(ctx context.Context, bindings []Binding) (Sessions, error) {
	sessions := make(Sessions, 0, len(bindings))
	for _, b := range bindings {
		s, err := b.Open(ctx)
		if err != nil {
			if cerr := sessions.Close(); cerr != nil {
				logx.Warn().Err(cerr).Msg("Failed to release partially opened tool sessions")
			}
			return nil, fmt.Errorf("%w: open %s: %v", errx.ErrToolUnavailable, b.Name(), err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// Tools collects the tools of every session.
func (s Sessions) Tools(ctx context.Context) ([]tool.BaseTool, error) {
	var all []tool.BaseTool
	for _, sess := range s {
		ts, err := sess.Tools(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, ts...)
	}
	return all, nil
}

// Close closes every session, even when some fail, and joins the errors.
func (s Sessions) Close() error {
	var errs []error
	for i := len(s) - 1; i >= 0; i-- {
		if err := s[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
