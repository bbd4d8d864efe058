package model

import (
	"encoding/hex"
	"fmt"
)

// AddressSize is the width of an Address in bytes.
const AddressSize = 20

// Address names a party or an endpoint: a registry owner, a caller, or a
// resolver reachable through a resolver.Dialer.
type Address [AddressSize]byte

// ZeroAddress means "unset" wherever an address is looked up.
var ZeroAddress Address

func (a Address) IsZero() bool { return a == ZeroAddress }

func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

func (a Address) Bytes() []byte {
	out := make([]byte, AddressSize)
	copy(out, a[:])
	return out
}

func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a 0x-prefixed (or bare) 40 hex character address.
// Mixed-case input is accepted; checksums are not verified.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := decodeHex(s)
	if err != nil {
		return a, fmt.Errorf("model: invalid address %q: %w", s, err)
	}
	if len(b) != AddressSize {
		return a, fmt.Errorf("model: address must be %d bytes, got %d", AddressSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// AddressFromBytes copies exactly AddressSize bytes into an Address.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressSize {
		return a, fmt.Errorf("model: address must be %d bytes, got %d", AddressSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}
