package audit

import (
	"strings"
	"time"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/types"
)

// Filter selects records in Query
type Filter func(Record) bool

// All matches records accepted by every filter. Nil filters are skipped.
func All(filters ...Filter) Filter {
	return func(r Record) bool {
		for _, f := range filters {
			if f != nil && !f(r) {
				return false
			}
		}
		return true
	}
}

// ByOperation matches any of ops
func ByOperation(ops ...types.Operation) Filter {
	return func(r Record) bool {
		for _, op := range ops {
			if r.Op == op {
				return true
			}
		}
		return false
	}
}

// ByOutcome matches any of outcomes
func ByOutcome(outcomes ...Outcome) Filter {
	return func(r Record) bool {
		for _, o := range outcomes {
			if r.Outcome == o {
				return true
			}
		}
		return false
	}
}

// Since matches records at or after t
func Since(t time.Time) Filter {
	return func(r Record) bool {
		return !r.Time.Before(t)
	}
}

// AfterSeq matches records appended after the record numbered seq
func AfterSeq(seq uint64) Filter {
	return func(r Record) bool {
		return r.Seq > seq
	}
}

// PathContains matches records with a path containing substr
func PathContains(substr string) Filter {
	return func(r Record) bool {
		for _, p := range r.Paths {
			if strings.Contains(p, substr) {
				return true
			}
		}
		return false
	}
}

// Criteria is the textual form of a history query shared by the CLI and the
// HTTP API. Empty fields do not filter.
type Criteria struct {
	Operations []string
	Outcomes   []string
	// Since is an RFC 3339 timestamp or a duration such as "15m" counted
	// back from now
	Since        string
	PathContains string
	// Last keeps only the newest N matches when positive
	Last int
}

// Filters parses c into filters for Ledger.Query
func (c Criteria) Filters(now time.Time) ([]Filter, error) {
	var filters []Filter

	if len(c.Operations) > 0 {
		ops := make([]types.Operation, 0, len(c.Operations))
		for _, name := range c.Operations {
			op, err := types.ParseOperation(name)
			if err != nil {
				return nil, fserr.New(fserr.KindValidation, "history", "", err)
			}
			ops = append(ops, op)
		}
		filters = append(filters, ByOperation(ops...))
	}

	if len(c.Outcomes) > 0 {
		outcomes := make([]Outcome, 0, len(c.Outcomes))
		for _, name := range c.Outcomes {
			o, err := ParseOutcome(name)
			if err != nil {
				return nil, fserr.New(fserr.KindValidation, "history", "", err)
			}
			outcomes = append(outcomes, o)
		}
		filters = append(filters, ByOutcome(outcomes...))
	}

	if c.Since != "" {
		t, err := parseSince(c.Since, now)
		if err != nil {
			return nil, err
		}
		filters = append(filters, Since(t))
	}

	if c.PathContains != "" {
		filters = append(filters, PathContains(c.PathContains))
	}

	if c.Last < 0 {
		return nil, fserr.Validationf("history", "", "last must not be negative")
	}
	return filters, nil
}

// Trim applies Last to records matched by Filters
func (c Criteria) Trim(records []Record) []Record {
	if c.Last > 0 && len(records) > c.Last {
		return records[len(records)-c.Last:]
	}
	return records
}

func parseSince(value string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return time.Time{}, fserr.Validationf("history", "", "since %q is neither an RFC 3339 time nor a positive duration", value)
	}
	return now.Add(-d), nil
}
