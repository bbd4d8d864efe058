package model

import (
	"strings"
	"testing"
)

func TestParseNodeRoundTrip(t *testing.T) {
	const s = "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"
	n, err := ParseNode(s)
	if err != nil {
		t.Fatalf("ParseNode: %v", err)
	}
	if n.Hex() != s {
		t.Fatalf("Hex mismatch: got %s want %s", n.Hex(), s)
	}
	bare, err := ParseNode(strings.TrimPrefix(s, "0x"))
	if err != nil {
		t.Fatalf("ParseNode(bare): %v", err)
	}
	if bare != n {
		t.Fatalf("expected prefix to be optional")
	}
}

func TestParseNodeRejectsWrongWidth(t *testing.T) {
	for _, in := range []string{"", "0x", "0x1234", "zz" + strings.Repeat("00", 31)} {
		if _, err := ParseNode(in); err == nil {
			t.Fatalf("ParseNode(%q): expected error", in)
		}
	}
}

func TestAddressTextRoundTrip(t *testing.T) {
	a, err := ParseAddress("0x00000000000000000000000000000000DeaDBeef")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	text, err := a.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "0x00000000000000000000000000000000deadbeef" {
		t.Fatalf("unexpected text form %s", text)
	}
	var back Address
	if err := back.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if back != a {
		t.Fatalf("round trip mismatch")
	}
	if a.IsZero() || !ZeroAddress.IsZero() {
		t.Fatalf("IsZero misreports")
	}
}

func TestBytesReturnsCopy(t *testing.T) {
	var n Node
	n[0] = 1
	b := n.Bytes()
	b[0] = 9
	if n[0] != 1 {
		t.Fatalf("Bytes must not alias the node")
	}
}
