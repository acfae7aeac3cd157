package execution

import (
	"errors"
	"fmt"

	"github.com/Layr-Labs/multisig-account-go/pkg/util"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrIntrinsicGas is returned when a message cannot even pay for its calldata
var ErrIntrinsicGas = errors.New("intrinsic gas too low")

// RevertError aborts the current frame. Data is handed verbatim to the caller
// and every state change of the frame is rolled back.
type RevertError struct {
	Data     []byte
	OutOfGas bool
}

func (e *RevertError) Error() string {
	if e.OutOfGas {
		return "execution reverted: out of gas"
	}
	if reason, ok := e.Reason(); ok {
		return fmt.Sprintf("execution reverted: %s", reason)
	}
	if len(e.Data) == 0 {
		return "execution reverted"
	}
	return fmt.Sprintf("execution reverted: %s", hexutil.Encode(e.Data))
}

// Reason decodes an Error(string) payload
func (e *RevertError) Reason() (string, bool) {
	reason, err := util.DecodeRevert(e.Data)
	if err != nil {
		return "", false
	}
	return reason, true
}

// Revert aborts with an Error(string) payload
func Revert(reason string) error {
	return &RevertError{Data: util.EncodeRevert(reason)}
}

// Revertf is Revert with formatting
func Revertf(format string, args ...interface{}) error {
	return Revert(fmt.Sprintf(format, args...))
}

// RevertWithData aborts with raw return data, e.g. a custom error
func RevertWithData(data []byte) error {
	out := make([]byte, len(data))
	copy(out, data)
	return &RevertError{Data: out}
}

// AsRevert extracts a RevertError from err
func AsRevert(err error) (*RevertError, bool) {
	var re *RevertError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsRevert reports whether err is a frame abort rather than a host failure
func IsRevert(err error) bool {
	_, ok := AsRevert(err)
	return ok
}

// RevertReason returns the Error(string) reason carried by err, if any
func RevertReason(err error) string {
	re, ok := AsRevert(err)
	if !ok {
		return ""
	}
	reason, _ := re.Reason()
	return reason
}
