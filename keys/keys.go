package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"

	"xdao.co/ensbridge/model"
)

// Scheme names a signature scheme.
type Scheme string

const (
	Ed25519    Scheme = "ed25519"
	Dilithium3 Scheme = "dilithium3"
)

var (
	ErrUnknownScheme = errors.New("keys: unknown signature scheme")
	ErrBadSignature  = errors.New("keys: signature invalid")
)

// PublicKey is a scheme-tagged public key. Its text form is
// "<scheme>:<base64(key)>".
type PublicKey struct {
	Scheme Scheme
	Key    []byte
}

func (p PublicKey) String() string {
	return string(p.Scheme) + ":" + base64.StdEncoding.EncodeToString(p.Key)
}

// Address is the caller address of p: the last 20 bytes of keccak256(key).
func (p PublicKey) Address() model.Address {
	return AddressOf(p.Key)
}

// AddressOf derives an address from raw public key bytes.
func AddressOf(pub []byte) model.Address {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(pub)
	sum := h.Sum(nil)
	var a model.Address
	copy(a[:], sum[len(sum)-len(a):])
	return a
}

// ParsePublicKey parses the text form produced by PublicKey.String.
func ParsePublicKey(s string) (PublicKey, error) {
	alg, enc, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return PublicKey{}, fmt.Errorf("keys: invalid public key encoding %q", s)
	}
	raw, err := decodeBase64(enc)
	if err != nil {
		return PublicKey{}, fmt.Errorf("keys: invalid public key base64: %w", err)
	}
	pub := PublicKey{Scheme: Scheme(alg), Key: raw}
	if err := pub.check(); err != nil {
		return PublicKey{}, err
	}
	return pub, nil
}

func (p PublicKey) check() error {
	switch p.Scheme {
	case Ed25519:
		if len(p.Key) != ed25519.PublicKeySize {
			return fmt.Errorf("keys: ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(p.Key))
		}
		return nil
	case Dilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(p.Key); err != nil {
			return fmt.Errorf("keys: invalid dilithium3 public key: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScheme, p.Scheme)
	}
}

// Verify checks sig over sha3-256(message).
func Verify(pub PublicKey, message, sig []byte) error {
	if err := pub.check(); err != nil {
		return err
	}
	digest := digest(message)
	switch pub.Scheme {
	case Ed25519:
		if !ed25519.Verify(ed25519.PublicKey(pub.Key), digest, sig) {
			return ErrBadSignature
		}
	case Dilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub.Key); err != nil {
			return fmt.Errorf("keys: invalid dilithium3 public key: %w", err)
		}
		if !mode3.Verify(&pk, digest, sig) {
			return ErrBadSignature
		}
	}
	return nil
}

func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
