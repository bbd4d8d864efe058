package keys

import (
	"encoding/binary"

	"xdao.co/ensbridge/model"
)

const envelopeDomain = "xdao-ensbridge-call-v1"

// Envelope is the signed part of a remote call. Origin is the caller on
// whose behalf a trusted forwarder relays the call; it is zero for direct
// calls. Anonymous marks a call relayed for a caller with no identity, so the
// receiver must not attribute it to the signer.
type Envelope struct {
	Method    string
	Data      []byte
	ReadOnly  bool
	Origin    model.Address
	Anonymous bool
	IssuedAt  int64 // unix seconds
	Nonce     string
}

// SigningBytes is the unambiguous byte string signed for e.
func (e Envelope) SigningBytes() []byte {
	out := make([]byte, 0, len(envelopeDomain)+len(e.Method)+len(e.Data)+len(e.Nonce)+64)
	out = appendField(out, []byte(envelopeDomain))
	out = appendField(out, []byte(e.Method))
	out = appendField(out, e.Data)
	out = appendFlag(out, e.ReadOnly)
	out = append(out, e.Origin[:]...)
	out = appendFlag(out, e.Anonymous)
	out = binary.BigEndian.AppendUint64(out, uint64(e.IssuedAt))
	out = appendField(out, []byte(e.Nonce))
	return out
}

// Sign signs e with s.
func (e Envelope) Sign(s Signer) ([]byte, error) {
	return s.Sign(e.SigningBytes())
}

func appendField(out, b []byte) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(b)))
	return append(out, b...)
}

func appendFlag(out []byte, b bool) []byte {
	if b {
		return append(out, 1)
	}
	return append(out, 0)
}
