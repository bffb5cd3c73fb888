package enum

// RejectKind classifies why the normalizer refused a change record.
type RejectKind uint8

const (
	RejectUnknown RejectKind = iota
	// RejectMalformed covers undecodable payloads and missing required fields.
	RejectMalformed
	// RejectNonInsert covers update/delete operations, which never re-enter the live stream.
	RejectNonInsert
	// RejectInvalidValue covers non-positive prices and negative volumes.
	RejectInvalidValue
)

// RejectKindCount is the number of reject kinds, for counter arrays.
const RejectKindCount = int(RejectInvalidValue) + 1

func (k RejectKind) String() string {
	switch k {
	case RejectMalformed:
		return "malformed-schema"
	case RejectNonInsert:
		return "non-insert-operation"
	case RejectInvalidValue:
		return "invalid-value"
	default:
		return "unknown"
	}
}
