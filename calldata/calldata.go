// Package calldata encodes and decodes resolver calls.
//
// A call is a 4-byte method selector followed by ABI-encoded arguments, the
// layout used by ENS resolvers. Encoding and decoding of argument values go
// through go-ethereum's accounts/abi. Every resolver method takes the node it
// operates on as its first argument, so the node always occupies bytes
// [NodeOffset, NodeOffset+32) of a call. Split and WithNode rely only on that
// convention and never interpret the rest of the payload.
package calldata

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"

	"xdao.co/ensbridge/model"
)

const (
	SelectorSize = 4
	WordSize     = 32
	NodeOffset   = SelectorSize

	// MinCallSize is the shortest call that carries a node argument.
	MinCallSize = SelectorSize + WordSize
)

var ErrShortCall = errors.New("calldata: call too short to carry a node argument")

// Selector identifies a resolver method.
type Selector [SelectorSize]byte

// SelectorOf returns the first four bytes of keccak256(signature),
// e.g. SelectorOf("addr(bytes32)").
func SelectorOf(signature string) Selector {
	var sum [32]byte
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(signature))
	h.Sum(sum[:0])
	var s Selector
	copy(s[:], sum[:SelectorSize])
	return s
}

func (s Selector) Hex() string { return "0x" + hex.EncodeToString(s[:]) }

func (s Selector) String() string { return s.Hex() }

// ParseSelector parses a selector from 8 hex digits, with or without 0x.
func ParseSelector(s string) (Selector, error) {
	var sel Selector
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return sel, fmt.Errorf("calldata: selector: %w", err)
	}
	if len(b) != SelectorSize {
		return sel, fmt.Errorf("calldata: selector must be %d bytes, got %d", SelectorSize, len(b))
	}
	copy(sel[:], b)
	return sel, nil
}

// SelectorFromCall returns the selector of a call. ok is false for calls
// shorter than a selector.
func SelectorFromCall(data []byte) (Selector, bool) {
	var s Selector
	if len(data) < SelectorSize {
		return s, false
	}
	copy(s[:], data[:SelectorSize])
	return s, true
}

// Split returns the selector, the leading node argument and the remaining
// argument bytes of a call. rest aliases data.
func Split(data []byte) (sel Selector, node model.Node, rest []byte, err error) {
	if len(data) < MinCallSize {
		return sel, node, nil, fmt.Errorf("%w (%d bytes)", ErrShortCall, len(data))
	}
	copy(sel[:], data[:SelectorSize])
	copy(node[:], data[NodeOffset:NodeOffset+WordSize])
	return sel, node, data[MinCallSize:], nil
}

// WithNode returns a copy of data with its leading node argument replaced.
// Every other byte is preserved.
func WithNode(data []byte, node model.Node) ([]byte, error) {
	if len(data) < MinCallSize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrShortCall, len(data))
	}
	out := make([]byte, len(data))
	copy(out, data)
	copy(out[NodeOffset:NodeOffset+WordSize], node[:])
	return out, nil
}
