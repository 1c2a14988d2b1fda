package audit

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/confirm"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/types"
)

// Outcome is the result of an attempted operation
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	// OutcomeDenied means the confirmation gate declined; nothing was touched
	OutcomeDenied Outcome = "denied"
	OutcomeFailed Outcome = "failed"
)

// ParseOutcome converts a name such as "denied" into an Outcome
func ParseOutcome(name string) (Outcome, error) {
	switch o := Outcome(name); o {
	case OutcomeSuccess, OutcomeDenied, OutcomeFailed:
		return o, nil
	default:
		return "", fmt.Errorf("unknown outcome %q", name)
	}
}

// Record is one attempted operation. Records are immutable once stored:
// the ledger hands out copies.
type Record struct {
	Seq          uint64           `json:"seq" yaml:"seq"`
	ID           id.ActionID      `json:"id" yaml:"id"`
	Time         time.Time        `json:"time" yaml:"time"`
	Op           types.Operation  `json:"operation" yaml:"operation"`
	Paths        []string         `json:"paths" yaml:"paths"`
	Outcome      Outcome          `json:"outcome" yaml:"outcome"`
	ErrorKind    string           `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error        string           `json:"error,omitempty" yaml:"error,omitempty"`
	Confirmation confirm.Decision `json:"confirmation" yaml:"confirmation"`
	Duration     time.Duration    `json:"duration_ns" yaml:"duration_ns"`
}

func (r Record) clone() Record {
	if r.Paths != nil {
		r.Paths = append([]string(nil), r.Paths...)
	}
	return r
}
