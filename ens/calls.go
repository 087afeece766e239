package ens

import (
	"bytes"
	"errors"
	"fmt"
)

var ErrUnknownCall = errors.New("unknown resolver call")

// Call is one of the resolver calls this package knows how to encode:
// SetTextCall, TextCall or MulticallCall. The set is closed.
type Call interface {
	Encode() ([]byte, error)
	Method() string
	isCall()
}

type SetTextCall struct {
	Node  Node
	Key   string
	Value string
}

func (c SetTextCall) Method() string { return "setText" }

func (c SetTextCall) Encode() ([]byte, error) {
	return resolverABI.Pack("setText", [32]byte(c.Node), c.Key, c.Value)
}

func (SetTextCall) isCall() {}

type TextCall struct {
	Node Node
	Key  string
}

func (c TextCall) Method() string { return "text" }

func (c TextCall) Encode() ([]byte, error) {
	return resolverABI.Pack("text", [32]byte(c.Node), c.Key)
}

func (TextCall) isCall() {}

// MulticallCall bundles other calls so the resolver executes them in one
// state transition. Nested multicalls are rejected.
type MulticallCall struct {
	Calls []Call
}

func (c MulticallCall) Method() string { return "multicall" }

func (c MulticallCall) Encode() ([]byte, error) {
	encoded := make([][]byte, 0, len(c.Calls))
	for i, call := range c.Calls {
		if _, nested := call.(MulticallCall); nested {
			return nil, fmt.Errorf("call %d: nested multicall", i)
		}
		data, err := call.Encode()
		if err != nil {
			return nil, fmt.Errorf("encoding call %d (%s): %w", i, call.Method(), err)
		}
		encoded = append(encoded, data)
	}
	return resolverABI.Pack("multicall", encoded)
}

func (MulticallCall) isCall() {}

// DecodeCall is the inverse of Encode for every Call variant.
func DecodeCall(data []byte) (Call, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: calldata too short", ErrUnknownCall)
	}
	method, err := resolverABI.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCall, err)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", method.Name, err)
	}

	switch method.Name {
	case "setText":
		return SetTextCall{
			Node:  Node(args[0].([32]byte)),
			Key:   args[1].(string),
			Value: args[2].(string),
		}, nil
	case "text":
		return TextCall{
			Node: Node(args[0].([32]byte)),
			Key:  args[1].(string),
		}, nil
	case "multicall":
		raw := args[0].([][]byte)
		calls := make([]Call, 0, len(raw))
		for i, inner := range raw {
			if bytes.Equal(inner[:min(4, len(inner))], resolverABI.Methods["multicall"].ID) {
				return nil, fmt.Errorf("call %d: nested multicall", i)
			}
			call, err := DecodeCall(inner)
			if err != nil {
				return nil, fmt.Errorf("call %d: %w", i, err)
			}
			calls = append(calls, call)
		}
		return MulticallCall{Calls: calls}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCall, method.Name)
}

// DecodeText unpacks the return data of a text call.
func DecodeText(data []byte) (string, error) {
	out, err := resolverABI.Unpack("text", data)
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

// DecodeMulticall unpacks the per-call return data of a multicall.
func DecodeMulticall(data []byte) ([][]byte, error) {
	out, err := resolverABI.Unpack("multicall", data)
	if err != nil {
		return nil, err
	}
	return out[0].([][]byte), nil
}
