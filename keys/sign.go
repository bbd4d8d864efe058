package keys

import (
	"crypto/ed25519"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// SeedSize is the seed length for every supported scheme.
const SeedSize = 32

// Signer signs call envelopes on behalf of one identity.
type Signer interface {
	Public() PublicKey
	Sign(message []byte) ([]byte, error)
}

func digest(message []byte) []byte {
	s := sha3.Sum256(message)
	return s[:]
}

// NewSigner derives a signer for scheme from a 32-byte seed.
func NewSigner(scheme Scheme, seed []byte) (Signer, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("keys: seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	switch scheme {
	case Ed25519, "":
		priv := ed25519.NewKeyFromSeed(seed)
		return ed25519Signer{priv: priv}, nil
	case Dilithium3:
		var s [mode3.SeedSize]byte
		copy(s[:], seed)
		pk, sk := mode3.NewKeyFromSeed(&s)
		return dilithium3Signer{pub: pk, priv: sk}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}

type ed25519Signer struct {
	priv ed25519.PrivateKey
}

func (s ed25519Signer) Public() PublicKey {
	return PublicKey{Scheme: Ed25519, Key: []byte(s.priv.Public().(ed25519.PublicKey))}
}

func (s ed25519Signer) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, digest(message)), nil
}

type dilithium3Signer struct {
	pub  *mode3.PublicKey
	priv *mode3.PrivateKey
}

func (s dilithium3Signer) Public() PublicKey {
	return PublicKey{Scheme: Dilithium3, Key: s.pub.Bytes()}
}

func (s dilithium3Signer) Sign(message []byte) ([]byte, error) {
	if s.priv == nil {
		return nil, fmt.Errorf("keys: missing private key")
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.priv, digest(message), sig)
	return sig, nil
}
