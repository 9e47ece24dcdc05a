package blockerrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/colorfulnotion/rollup/common"
)

// Proven block (B) errors
var (
	ErrBAccountWitnessTracking       = errors.New("B1|AccountWitnessTracking: An account witness could not be added to the partial account tree.")
	ErrBNullifierWitnessRootMismatch = errors.New("B2|NullifierWitnessRootMismatch: Nullifier witnesses open against different nullifier tree roots.")
	ErrBStaleAccountTreeRoot         = errors.New("B3|StaleAccountTreeRoot: Account witnesses open against a root other than the previous block's account root.")
	ErrBStaleNullifierTreeRoot       = errors.New("B4|StaleNullifierTreeRoot: Nullifier witnesses open against a root other than the previous block's nullifier root.")
	ErrBAccountIdPrefixDuplicate     = errors.New("B5|AccountIdPrefixDuplicate: Applying account updates would place two account ids under one prefix.")
)

// Merkle tree (M) errors
var (
	ErrMConflictingRoots         = errors.New("M1|ConflictingRoots: A merkle path opens to a root other than the one already tracked.")
	ErrMUntrackedKey             = errors.New("M2|UntrackedKey: The key's leaf is not tracked by the partial tree.")
	ErrMDuplicateValuesForIndex  = errors.New("M3|DuplicateValuesForIndex: Two values were supplied for one leaf index.")
	ErrMIndexOutOfRange          = errors.New("M4|IndexOutOfRange: Leaf index does not fit in the tree depth.")
	ErrMInvalidPathLength        = errors.New("M5|InvalidPathLength: Merkle path length does not match the tree depth.")
	ErrMDuplicateKey             = errors.New("M6|DuplicateKey: A key was supplied twice.")
	ErrMDuplicateIdPrefix        = errors.New("M7|DuplicateIdPrefix: Two account ids share a prefix.")
	ErrMNullifierAlreadySpent    = errors.New("M8|NullifierAlreadySpent: Nullifier is already marked spent.")
	ErrMInvalidMmrProof          = errors.New("M9|InvalidMmrProof: Mmr path does not open to the tracked peak.")
	ErrMMmrPositionOutOfRange    = errors.New("M10|MmrPositionOutOfRange: Mmr position is beyond the forest.")
	ErrMMmrPositionNotTracked    = errors.New("M11|MmrPositionNotTracked: Mmr position is not tracked by the partial mmr.")
	ErrMBlockNotInPartialHistory = errors.New("M12|BlockNotInPartialHistory: Block header is not part of the partial chain history.")
)

// Proposed block (P) errors
var (
	ErrPTooManyBatches           = errors.New("P1|TooManyBatches: Block contains more batches than allowed.")
	ErrPTooManyOutputNotes       = errors.New("P2|TooManyOutputNotes: Batch creates more output notes than allowed.")
	ErrPTimestampNotMonotonic    = errors.New("P3|TimestampNotMonotonic: Block timestamp does not exceed the previous block timestamp.")
	ErrPDuplicateOutputNoteIndex = errors.New("P4|DuplicateOutputNoteIndex: Two output notes share a batch index.")
	ErrPChainLengthMismatch      = errors.New("P5|ChainLengthMismatch: Partial chain does not end right before the previous block.")
	ErrPInvalidHeaderEncoding    = errors.New("P6|InvalidHeaderEncoding: Block header bytes are malformed.")
)

// ProvenBlockError is returned by block construction. Kind is one of the B
// sentinels; the remaining fields are diagnostics.
type ProvenBlockError struct {
	Kind      error
	PrevRoot  common.Word
	StaleRoot common.Word
	Source    error
}

func (e *ProvenBlockError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Kind == ErrBStaleAccountTreeRoot || e.Kind == ErrBStaleNullifierTreeRoot {
		fmt.Fprintf(&b, " prev=%s stale=%s", e.PrevRoot.Hex(), e.StaleRoot.Hex())
	}
	if e.Source != nil {
		fmt.Fprintf(&b, " source: %v", e.Source)
	}
	return b.String()
}

func (e *ProvenBlockError) Unwrap() []error {
	if e.Source == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Source}
}

func AccountWitnessTracking(source error) error {
	return &ProvenBlockError{Kind: ErrBAccountWitnessTracking, Source: source}
}

func NullifierWitnessRootMismatch(source error) error {
	return &ProvenBlockError{Kind: ErrBNullifierWitnessRootMismatch, Source: source}
}

func StaleAccountTreeRoot(prev, stale common.Word) error {
	return &ProvenBlockError{Kind: ErrBStaleAccountTreeRoot, PrevRoot: prev, StaleRoot: stale}
}

func StaleNullifierTreeRoot(prev, stale common.Word) error {
	return &ProvenBlockError{Kind: ErrBStaleNullifierTreeRoot, PrevRoot: prev, StaleRoot: stale}
}

func AccountIdPrefixDuplicate(source error) error {
	return &ProvenBlockError{Kind: ErrBAccountIdPrefixDuplicate, Source: source}
}

// AsProvenBlockError returns the block error carried by err, if any.
func AsProvenBlockError(err error) (*ProvenBlockError, bool) {
	var pbe *ProvenBlockError
	if errors.As(err, &pbe) {
		return pbe, true
	}
	return nil, false
}

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	if pbe, ok := AsProvenBlockError(err); ok {
		err = pbe.Kind
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	nameDesc := strings.SplitN(parts[1], ":", 2)
	return strings.TrimSpace(nameDesc[0])
}

func GetErrorNames(errs []error) []string {
	errStrs := make([]string, len(errs))
	for i, err := range errs {
		errStrs[i] = GetErrorName(err)
	}
	return errStrs
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if pbe, ok := AsProvenBlockError(err); ok {
		err = pbe.Kind
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}

func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}

// GetErrorDesc extracts the error description from the error message.
func GetErrorDesc(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	parts := strings.SplitN(errStr, ":", 2)
	if len(parts) < 2 {
		return "DESC NOT SET"
	}
	return strings.TrimSpace(parts[1])
}
