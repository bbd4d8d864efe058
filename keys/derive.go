package keys

import (
	"crypto/sha256"
	"fmt"
)

// DeriveRoleSeed deterministically derives a role-specific seed from a root
// seed, so one root key can back several caller identities (for example a
// daemon's forwarder identity).
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", SeedSize)
	}
	if err := CheckName(role); err != nil {
		return nil, fmt.Errorf("role: %w", err)
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("xdao-ensbridge-role-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(role))
	return h.Sum(nil)[:SeedSize], nil
}
