package confirm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/types"
)

// Request describes a pending mutating operation
type Request struct {
	Op     types.Operation
	Paths  []string
	Detail string
}

// Summary renders the request as a single line, e.g. `copy "a.txt" -> "b.txt"`
func (r Request) Summary() string {
	quoted := make([]string, len(r.Paths))
	for i, p := range r.Paths {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	return fmt.Sprintf("%s %s", r.Op, strings.Join(quoted, " -> "))
}

// Approver decides whether a request may proceed. It may block.
type Approver interface {
	Approve(ctx context.Context, req Request) (bool, error)
}

// ApproverFunc adapts a function to Approver
type ApproverFunc func(ctx context.Context, req Request) (bool, error)

// Approve calls f
func (f ApproverFunc) Approve(ctx context.Context, req Request) (bool, error) {
	return f(ctx, req)
}

// AllowAll approves every request
var AllowAll Approver = ApproverFunc(func(context.Context, Request) (bool, error) {
	return true, nil
})

// DenyAll denies every request
var DenyAll Approver = ApproverFunc(func(context.Context, Request) (bool, error) {
	return false, nil
})

// Decision is how a request was settled
type Decision int

const (
	// DecisionNone means the gate was not consulted (read-only operation)
	DecisionNone Decision = iota
	// DecisionAuto means auto-confirm approved without asking
	DecisionAuto
	// DecisionSkipped means the caller opted out of confirmation
	DecisionSkipped
	DecisionApproved
	DecisionDenied
)

var decisionNames = [...]string{"none", "auto", "skipped", "approved", "denied"}

func (d Decision) String() string {
	if d < 0 || int(d) >= len(decisionNames) {
		return "unknown"
	}
	return decisionNames[d]
}

// Approved reports whether the operation may proceed
func (d Decision) Approved() bool {
	return d == DecisionAuto || d == DecisionSkipped || d == DecisionApproved
}

// MarshalText implements encoding.TextMarshaler
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Decision) UnmarshalText(text []byte) error {
	for i, name := range decisionNames {
		if name == string(text) {
			*d = Decision(i)
			return nil
		}
	}
	return fmt.Errorf("unknown confirmation decision %q", text)
}

// Gate applies the confirmation policy. Its configuration is fixed at
// construction and it is safe for concurrent use as long as the Approver is.
type Gate struct {
	autoConfirm bool
	approver    Approver
	logger      *zap.Logger
}

// NewGate creates a gate. A nil approver denies every request that needs one.
func NewGate(autoConfirm bool, approver Approver, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		autoConfirm: autoConfirm,
		approver:    approver,
		logger:      logger,
	}
}

// AutoConfirm reports whether the gate approves everything without asking
func (g *Gate) AutoConfirm() bool {
	return g.autoConfirm
}

// Authorize settles req. When the decision is DecisionDenied the returned
// error matches fserr.ErrDenied and wraps the approver error, if any.
func (g *Gate) Authorize(ctx context.Context, req Request, confirm bool) (Decision, error) {
	if !req.Op.Mutating() {
		return DecisionNone, nil
	}
	if g.autoConfirm {
		return DecisionAuto, nil
	}
	if !confirm {
		return DecisionSkipped, nil
	}

	if g.approver == nil {
		g.logger.Warn("Confirmation required but no approver configured",
			zap.String("operation", req.Op.String()),
			zap.Strings("paths", req.Paths))
		return DecisionDenied, g.denied(req, nil)
	}
	if err := ctx.Err(); err != nil {
		return DecisionDenied, g.denied(req, err)
	}

	ok, err := g.approver.Approve(ctx, req)
	if err != nil {
		g.logger.Error("Approver failed, denying",
			zap.String("operation", req.Op.String()),
			zap.Strings("paths", req.Paths),
			zap.Error(err))
		return DecisionDenied, g.denied(req, err)
	}
	if !ok {
		g.logger.Info("Operation denied",
			zap.String("operation", req.Op.String()),
			zap.Strings("paths", req.Paths))
		return DecisionDenied, g.denied(req, nil)
	}
	return DecisionApproved, nil
}

func (g *Gate) denied(req Request, cause error) error {
	path := ""
	if len(req.Paths) > 0 {
		path = req.Paths[len(req.Paths)-1]
	}
	return fserr.New(fserr.KindDenied, req.Op.String(), path, cause)
}
