package model

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// NodeSize is the width of an identifier in bytes.
const NodeSize = 32

// Node is a fixed-width identifier derived from a hierarchical name.
//
// Nodes are opaque: a Node from one naming authority is never comparable to
// a Node from another, even when the bytes happen to match.
type Node [NodeSize]byte

// ZeroNode is the "none" value. The root of a registry also hashes to it.
var ZeroNode Node

func (n Node) IsZero() bool { return n == ZeroNode }

// Hex returns the 0x-prefixed lowercase hex form.
func (n Node) Hex() string { return "0x" + hex.EncodeToString(n[:]) }

func (n Node) String() string { return n.Hex() }

func (n Node) Bytes() []byte {
	out := make([]byte, NodeSize)
	copy(out, n[:])
	return out
}

func (n Node) MarshalText() ([]byte, error) { return []byte(n.Hex()), nil }

func (n *Node) UnmarshalText(b []byte) error {
	parsed, err := ParseNode(string(b))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// ParseNode parses a 0x-prefixed (or bare) 64 hex character identifier.
func ParseNode(s string) (Node, error) {
	var n Node
	b, err := decodeHex(s)
	if err != nil {
		return n, fmt.Errorf("model: invalid node %q: %w", s, err)
	}
	if len(b) != NodeSize {
		return n, fmt.Errorf("model: node must be %d bytes, got %d", NodeSize, len(b))
	}
	copy(n[:], b)
	return n, nil
}

// NodeFromBytes copies exactly NodeSize bytes into a Node.
func NodeFromBytes(b []byte) (Node, error) {
	var n Node
	if len(b) != NodeSize {
		return n, fmt.Errorf("model: node must be %d bytes, got %d", NodeSize, len(b))
	}
	copy(n[:], b)
	return n, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}
