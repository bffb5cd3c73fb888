package enum

import "strings"

// Operation is the mutation kind carried by a change record.
type Operation uint8

const (
	OperationUnknown Operation = iota
	OperationInsert
	OperationUpdate
	OperationDelete
)

// ParseOperation maps a change-log wire value to an Operation.
func ParseOperation(s string) Operation {
	switch strings.ToLower(s) {
	case "insert", "c", "create":
		return OperationInsert
	case "update", "u":
		return OperationUpdate
	case "delete", "d":
		return OperationDelete
	default:
		return OperationUnknown
	}
}

func (o Operation) String() string {
	switch o {
	case OperationInsert:
		return "insert"
	case OperationUpdate:
		return "update"
	case OperationDelete:
		return "delete"
	default:
		return "unknown"
	}
}
