package grpcbridge

import (
	"context"
	"encoding/base64"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"xdao.co/ensbridge/keys"
	"xdao.co/ensbridge/model"
)

// Metadata keys of a signed call.
const (
	HeaderPublicKey = "x-bridge-pubkey"
	HeaderSignature = "x-bridge-signature"
	HeaderIssuedAt  = "x-bridge-issued-at"
	HeaderNonce     = "x-bridge-nonce"
	HeaderOrigin    = "x-bridge-origin"
)

// DefaultMaxSkew bounds how far a call's timestamp may be from the server clock.
const DefaultMaxSkew = 2 * time.Minute

// OriginAnonymous is the HeaderOrigin value of a call relayed for a caller
// with no identity.
const OriginAnonymous = "anonymous"

// signCall signs env and attaches it to ctx. IssuedAt and Nonce are filled in.
func signCall(ctx context.Context, signer keys.Signer, env keys.Envelope, now time.Time) (context.Context, error) {
	env.IssuedAt = now.Unix()
	env.Nonce = uuid.NewString()
	sig, err := env.Sign(signer)
	if err != nil {
		return nil, err
	}
	pairs := []string{
		HeaderPublicKey, signer.Public().String(),
		HeaderSignature, base64.StdEncoding.EncodeToString(sig),
		HeaderIssuedAt, strconv.FormatInt(env.IssuedAt, 10),
		HeaderNonce, env.Nonce,
	}
	switch {
	case env.Anonymous:
		pairs = append(pairs, HeaderOrigin, OriginAnonymous)
	case !env.Origin.IsZero():
		pairs = append(pairs, HeaderOrigin, env.Origin.Hex())
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...), nil
}

// authenticator establishes the caller of an incoming call from its signed
// metadata. A signer listed as a trusted forwarder may act for the origin
// it names; anyone else acts for itself. Any signer may relay an anonymous
// call, which then runs as the zero address.
type authenticator struct {
	trusted        map[model.Address]bool
	allowAnonymous bool
	maxSkew        time.Duration
	now            func() time.Time

	mu        sync.Mutex
	seen      map[string]time.Time
	nextSweep time.Time
}

func (a *authenticator) caller(ctx context.Context, method string, data []byte, readOnly bool) (model.Address, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	pubText := first(md, HeaderPublicKey)
	if pubText == "" {
		if a.allowAnonymous {
			return model.ZeroAddress, nil
		}
		return model.ZeroAddress, status.Error(codes.Unauthenticated, "missing "+HeaderPublicKey)
	}

	pub, err := keys.ParsePublicKey(pubText)
	if err != nil {
		return model.ZeroAddress, status.Error(codes.Unauthenticated, err.Error())
	}
	sig, err := base64.StdEncoding.DecodeString(first(md, HeaderSignature))
	if err != nil || len(sig) == 0 {
		return model.ZeroAddress, status.Error(codes.Unauthenticated, "invalid "+HeaderSignature)
	}
	issuedAt, err := strconv.ParseInt(first(md, HeaderIssuedAt), 10, 64)
	if err != nil {
		return model.ZeroAddress, status.Error(codes.Unauthenticated, "invalid "+HeaderIssuedAt)
	}
	nonce := first(md, HeaderNonce)
	if nonce == "" {
		return model.ZeroAddress, status.Error(codes.Unauthenticated, "missing "+HeaderNonce)
	}
	var origin model.Address
	anonymous := false
	switch o := first(md, HeaderOrigin); o {
	case "":
	case OriginAnonymous:
		anonymous = true
	default:
		if origin, err = model.ParseAddress(o); err != nil {
			return model.ZeroAddress, status.Error(codes.Unauthenticated, "invalid "+HeaderOrigin)
		}
	}

	now := a.now()
	issued := time.Unix(issuedAt, 0)
	if issued.Before(now.Add(-a.maxSkew)) || issued.After(now.Add(a.maxSkew)) {
		return model.ZeroAddress, status.Error(codes.Unauthenticated, "call timestamp outside allowed skew")
	}

	env := keys.Envelope{Method: method, Data: data, ReadOnly: readOnly, Origin: origin, Anonymous: anonymous, IssuedAt: issuedAt, Nonce: nonce}
	if err := keys.Verify(pub, env.SigningBytes(), sig); err != nil {
		return model.ZeroAddress, status.Error(codes.Unauthenticated, err.Error())
	}
	if !a.remember(pub.Address().Hex()+"/"+nonce, issued, now) {
		return model.ZeroAddress, status.Error(codes.Unauthenticated, "replayed call")
	}

	if anonymous {
		return model.ZeroAddress, nil
	}
	signer := pub.Address()
	if origin.IsZero() || origin == signer {
		return signer, nil
	}
	if !a.trusted[signer] {
		return model.ZeroAddress, status.Error(codes.PermissionDenied, signer.Hex()+" is not a trusted forwarder")
	}
	return origin, nil
}

// remember records a nonce and reports whether it was new. Entries expire
// once their timestamp leaves the skew window, after which the timestamp
// check rejects them anyway. Expired entries are swept at most once per
// skew window.
func (a *authenticator) remember(key string, issued, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seen == nil {
		a.seen = map[string]time.Time{}
	}
	if !now.Before(a.nextSweep) {
		for k, t := range a.seen {
			if t.Before(now.Add(-a.maxSkew)) {
				delete(a.seen, k)
			}
		}
		a.nextSweep = now.Add(a.maxSkew)
	}
	if _, dup := a.seen[key]; dup {
		return false
	}
	a.seen[key] = issued
	return true
}

func first(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}
