package fsclient

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/audit"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/confirm"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/workspace"
)

// Config configures a Client
type Config struct {
	// Root is the workspace directory. It must exist.
	Root string
	// AutoConfirm approves every mutating operation without asking
	AutoConfirm bool
	// Approver is asked when a caller requests confirmation. Nil denies.
	Approver confirm.Approver
	// HistorySize bounds the audit history. Zero means audit.DefaultCapacity.
	HistorySize int
	Logger      *zap.Logger
	// Metrics is optional
	Metrics *monitoring.Metrics
}

// Client mediates filesystem access to a single workspace. The workspace
// root and confirmation policy are fixed for its lifetime. Safe for
// concurrent use; concurrent writers to the same file race exactly as the
// underlying filesystem allows.
type Client struct {
	guard   *workspace.Guard
	gate    *confirm.Gate
	ledger  *audit.Ledger
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates a client rooted at cfg.Root
func New(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	guard, err := workspace.NewGuard(cfg.Root)
	if err != nil {
		return nil, err
	}

	size := cfg.HistorySize
	if size == 0 {
		size = audit.DefaultCapacity
	}
	ledger, err := audit.NewLedger(size)
	if err != nil {
		return nil, err
	}

	logger.Info("Workspace opened",
		zap.String("root", guard.Root()),
		zap.Bool("auto_confirm", cfg.AutoConfirm),
		zap.Int("history_size", size))

	return &Client{
		guard:   guard,
		gate:    confirm.NewGate(cfg.AutoConfirm, cfg.Approver, logger.Named("confirm")),
		ledger:  ledger,
		logger:  logger,
		metrics: cfg.Metrics,
	}, nil
}

// Root returns the canonical workspace root
func (c *Client) Root() string {
	return c.guard.Root()
}

// AutoConfirm reports whether mutating operations skip confirmation
func (c *Client) AutoConfirm() bool {
	return c.gate.AutoConfirm()
}

// History returns recorded operations matching every filter, oldest first
func (c *Client) History(filters ...audit.Filter) []audit.Record {
	return c.ledger.Query(filters...)
}

// HistoryCap returns the maximum number of records kept
func (c *Client) HistoryCap() int {
	return c.ledger.Cap()
}

// HistoryTotal returns how many operations were recorded, including those
// already evicted from the history
func (c *Client) HistoryTotal() uint64 {
	return c.ledger.Total()
}

// action tracks one operation from entry to its history record
type action struct {
	op       types.Operation
	paths    []string
	start    time.Time
	decision confirm.Decision
}

func (c *Client) begin(op types.Operation, paths ...string) *action {
	c.logger.Debug("Operation started",
		zap.String("operation", op.String()),
		zap.Strings("paths", paths))
	return &action{op: op, paths: paths, start: time.Now()}
}

// finish records the outcome of a and returns err unchanged
func (c *Client) finish(a *action, err error) error {
	duration := time.Since(a.start)

	rec := audit.Record{
		Op:           a.op,
		Paths:        a.paths,
		Outcome:      audit.OutcomeSuccess,
		Confirmation: a.decision,
		Duration:     duration,
	}
	if err != nil {
		kind := fserr.KindOf(err)
		rec.Outcome = audit.OutcomeFailed
		if kind == fserr.KindDenied {
			rec.Outcome = audit.OutcomeDenied
		}
		rec.ErrorKind = kind.String()
		rec.Error = err.Error()
	}
	stored := c.ledger.Append(rec)

	fields := []zap.Field{
		zap.String("id", string(stored.ID)),
		zap.String("operation", a.op.String()),
		zap.Strings("paths", a.paths),
		zap.String("outcome", string(rec.Outcome)),
		zap.Duration("duration", duration),
	}
	switch {
	case err == nil && a.op.Mutating():
		c.logger.Info("Operation completed", fields...)
	case err == nil:
		c.logger.Debug("Operation completed", fields...)
	case rec.Outcome == audit.OutcomeDenied:
		c.logger.Info("Operation denied", fields...)
	default:
		c.logger.Warn("Operation failed", append(fields, zap.String("error_kind", rec.ErrorKind), zap.Error(err))...)
	}

	if c.metrics != nil {
		c.metrics.RecordOperation(a.op.String(), string(rec.Outcome), duration)
		c.metrics.SetHistoryEntries(c.ledger.Len())
	}
	return err
}

// resolve runs path through the guard and counts containment breaches
func (c *Client) resolve(a *action, path string) (workspace.ResolvedPath, error) {
	p, err := c.guard.Resolve(path)
	c.noteViolation(a, err)
	return p, err
}

func (c *Client) resolveNoFollow(a *action, path string) (workspace.ResolvedPath, error) {
	p, err := c.guard.ResolveNoFollow(path)
	c.noteViolation(a, err)
	return p, err
}

func (c *Client) revalidate(a *action, paths ...workspace.ResolvedPath) error {
	for _, p := range paths {
		if err := c.guard.Revalidate(p); err != nil {
			c.noteViolation(a, err)
			return err
		}
	}
	return nil
}

func (c *Client) noteViolation(a *action, err error) {
	if !errors.Is(err, fserr.ErrSecurityViolation) {
		return
	}
	c.logger.Warn("Path escapes workspace",
		zap.String("operation", a.op.String()),
		zap.Strings("paths", a.paths))
	if c.metrics != nil {
		c.metrics.RecordSecurityViolation(a.op.String())
	}
}

// authorize consults the gate and remembers its decision on a
func (c *Client) authorize(ctx context.Context, a *action, req confirm.Request, confirmFlag bool) error {
	decision, err := c.gate.Authorize(ctx, req, confirmFlag)
	a.decision = decision
	if c.metrics != nil && decision != confirm.DecisionNone {
		c.metrics.RecordConfirmation(decision.String())
	}
	return err
}
