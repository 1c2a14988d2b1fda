package types

import "fmt"

// Operation identifies the kind of filesystem action being attempted
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
	OpCopy   Operation = "copy"
	OpMove   Operation = "move"
	OpMkdir  Operation = "mkdir"
	OpList   Operation = "list"
	OpExists Operation = "exists"
	OpInfo   Operation = "info"
)

// Operations lists every known operation in declaration order
func Operations() []Operation {
	return []Operation{OpRead, OpWrite, OpDelete, OpCopy, OpMove, OpMkdir, OpList, OpExists, OpInfo}
}

// Mutating reports whether the operation changes filesystem state and must
// pass the confirmation gate
func (o Operation) Mutating() bool {
	switch o {
	case OpWrite, OpDelete, OpCopy, OpMove, OpMkdir:
		return true
	default:
		return false
	}
}

// Valid reports whether o is a known operation
func (o Operation) Valid() bool {
	for _, known := range Operations() {
		if o == known {
			return true
		}
	}
	return false
}

func (o Operation) String() string { return string(o) }

// ParseOperation converts a name such as "write" into an Operation
func ParseOperation(name string) (Operation, error) {
	op := Operation(name)
	if !op.Valid() {
		return "", fmt.Errorf("unknown operation %q", name)
	}
	return op, nil
}
