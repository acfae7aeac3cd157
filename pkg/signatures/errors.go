package signatures

import (
	"errors"
	"fmt"
	"strings"
)

// Fatal errors: the blob cannot be interpreted or violates signer ordering
var (
	ErrSignaturesTooShort  = errors.New("Signatures data too short")
	ErrMalformedSignatures = errors.New("Malformed signatures data")
	ErrSignerOrder         = errors.New("Signers not in strictly increasing order")
	ErrThresholdNotSet     = errors.New("Threshold needs to be defined")
)

// Per-record errors: the record does not count toward the threshold
var (
	ErrInvalidSignature         = errors.New("Invalid signature provided")
	ErrInvalidContractSignature = errors.New("Invalid contract signature provided")
	ErrInvalidOwner             = errors.New("Invalid owner provided")
	ErrHashNotApproved          = errors.New("Hash not approved")
)

// ErrThresholdNotMet is wrapped by every ThresholdError
var ErrThresholdNotMet = errors.New("Threshold not met")

// RecordFailure explains why one record did not count
type RecordFailure struct {
	Index  int
	Kind   Kind
	Signer string
	Err    error
}

// ThresholdError is returned when fewer valid records than required were found
type ThresholdError struct {
	Valid    uint64
	Required uint64
	Failures []RecordFailure
}

// Error leads with the first record failure so callers see the stable
// per-kind message ("Hash not approved", "Invalid signature provided", ...).
func (e *ThresholdError) Error() string {
	var sb strings.Builder
	if len(e.Failures) > 0 {
		sb.WriteString(e.Failures[0].Err.Error())
		sb.WriteString(": ")
	}
	sb.WriteString(fmt.Sprintf("%s (%d of %d)", ErrThresholdNotMet.Error(), e.Valid, e.Required))
	return sb.String()
}

// Unwrap exposes ErrThresholdNotMet and every record failure to errors.Is
func (e *ThresholdError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, ErrThresholdNotMet)
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Reason returns the single stable string to surface to external callers
func Reason(err error) string {
	var te *ThresholdError
	if errors.As(err, &te) {
		if len(te.Failures) > 0 {
			return te.Failures[0].Err.Error()
		}
		return ErrThresholdNotMet.Error()
	}
	for _, sentinel := range []error{
		ErrSignaturesTooShort,
		ErrMalformedSignatures,
		ErrSignerOrder,
		ErrThresholdNotSet,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
