package execution

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Handler serves one ABI method. args are the unpacked inputs; the returned
// values are packed with the method's outputs.
type Handler func(frame *Frame, args []interface{}) ([]interface{}, error)

// FallbackHandler serves calldata matching no method, including empty calldata
type FallbackHandler func(frame *Frame, input []byte) ([]byte, error)

// Dispatcher routes calldata to handlers by 4-byte selector
type Dispatcher struct {
	abi      abi.ABI
	handlers map[string]Handler
	fallback FallbackHandler
}

// NewDispatcher parses an ABI definition
func NewDispatcher(abiJSON string) (*Dispatcher, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return &Dispatcher{
		abi:      parsed,
		handlers: make(map[string]Handler),
	}, nil
}

// MustNewDispatcher is NewDispatcher for ABI definitions compiled into the binary
func MustNewDispatcher(abiJSON string) *Dispatcher {
	d, err := NewDispatcher(abiJSON)
	if err != nil {
		panic(err)
	}
	return d
}

// ABI returns the parsed definition
func (d *Dispatcher) ABI() abi.ABI {
	return d.abi
}

// Handle binds a handler to the method with the given name (overloads use
// go-ethereum's suffixed names, e.g. "isValidSignature0").
func (d *Dispatcher) Handle(name string, h Handler) *Dispatcher {
	if _, ok := d.abi.Methods[name]; !ok {
		panic(fmt.Sprintf("method %q is not part of the ABI", name))
	}
	d.handlers[name] = h
	return d
}

// Fallback sets the handler for unmatched calldata
func (d *Dispatcher) Fallback(h FallbackHandler) *Dispatcher {
	d.fallback = h
	return d
}

// Run implements Contract
func (d *Dispatcher) Run(frame *Frame, input []byte) ([]byte, error) {
	if len(input) < 4 {
		return d.runFallback(frame, input)
	}

	method, err := d.abi.MethodById(input[:4])
	if err != nil {
		return d.runFallback(frame, input)
	}
	handler, ok := d.handlers[method.Name]
	if !ok {
		return d.runFallback(frame, input)
	}

	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, &RevertError{}
	}

	outputs, err := handler(frame, args)
	if err != nil {
		return nil, err
	}

	ret, err := method.Outputs.Pack(outputs...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s outputs: %w", method.Name, err)
	}
	return ret, nil
}

func (d *Dispatcher) runFallback(frame *Frame, input []byte) ([]byte, error) {
	if d.fallback == nil {
		return nil, &RevertError{}
	}
	return d.fallback(frame, input)
}

// Pack encodes a call to the named method
func (d *Dispatcher) Pack(name string, args ...interface{}) ([]byte, error) {
	return d.abi.Pack(name, args...)
}

// Unpack decodes the named method's return data
func (d *Dispatcher) Unpack(name string, data []byte) ([]interface{}, error) {
	return d.abi.Unpack(name, data)
}

// PackError encodes a custom error declared in the ABI
func (d *Dispatcher) PackError(name string, args ...interface{}) ([]byte, error) {
	e, ok := d.abi.Errors[name]
	if !ok {
		return nil, fmt.Errorf("error %q is not part of the ABI", name)
	}
	return PackCustomError(e, args...)
}

// PackCustomError encodes selector ‖ abi.encode(args)
func PackCustomError(e abi.Error, args ...interface{}) ([]byte, error) {
	encoded, err := e.Inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack error %s: %w", e.Name, err)
	}
	return append(append([]byte{}, e.ID[:4]...), encoded...), nil
}

// UnpackCustomError decodes data as e, failing when the selector differs
func UnpackCustomError(e abi.Error, data []byte) ([]interface{}, error) {
	if len(data) < 4 || string(data[:4]) != string(e.ID[:4]) {
		return nil, fmt.Errorf("data is not a %s error", e.Name)
	}
	return e.Inputs.Unpack(data[4:])
}
