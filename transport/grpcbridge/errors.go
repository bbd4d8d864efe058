package grpcbridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/ensbridge/bridge"
	"xdao.co/ensbridge/resolver"
)

// ErrUnauthenticated is returned when the server cannot establish the caller.
var ErrUnauthenticated = errors.New("grpcbridge: caller not authenticated")

// Errors cross the wire as a status code plus a "[tag] " message prefix, so a
// client can rebuild the bridge kind or resolver sentinel the server saw.

var sentinels = []struct {
	tag  string
	err  error
	code codes.Code
}{
	{"ErrUnauthorized", resolver.ErrUnauthorized, codes.PermissionDenied},
	{"ErrReadOnly", resolver.ErrReadOnly, codes.FailedPrecondition},
	{"ErrUnknownMethod", resolver.ErrUnknownMethod, codes.Unimplemented},
	{"ErrBadArguments", resolver.ErrBadArguments, codes.InvalidArgument},
	{"ErrNoEndpoint", resolver.ErrNoEndpoint, codes.Unavailable},
}

var kindCodes = map[bridge.Kind]codes.Code{
	bridge.KindUnauthorized:     codes.PermissionDenied,
	bridge.KindNoDelegation:     codes.FailedPrecondition,
	bridge.KindNoResolver:       codes.FailedPrecondition,
	bridge.KindMalformedCall:    codes.InvalidArgument,
	bridge.KindForwardingFailed: codes.Aborted,
	bridge.KindInternal:         codes.Internal,
}

func sentinelOf(err error) (tag string, sentinel error, code codes.Code, ok bool) {
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.tag, s.err, s.code, true
		}
	}
	return "", nil, codes.Unknown, false
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if kind := bridge.KindOf(err); kind != "" {
		tag := string(kind)
		if kind == bridge.KindForwardingFailed {
			if inner, _, _, ok := sentinelOf(err); ok {
				tag += ":" + inner
			}
		}
		code, ok := kindCodes[kind]
		if !ok {
			code = codes.Internal
		}
		return status.Error(code, "["+tag+"] "+err.Error())
	}
	if tag, _, code, ok := sentinelOf(err); ok {
		return status.Error(code, "["+tag+"] "+err.Error())
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, err.Error())
}

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthenticated, st.Message())
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}

	msg := st.Message()
	if !strings.HasPrefix(msg, "[") {
		return err
	}
	tag, text, ok := strings.Cut(msg[1:], "] ")
	if !ok {
		return err
	}
	for _, s := range sentinels {
		if s.tag == tag {
			return s.err
		}
	}

	kindTag, innerTag, _ := strings.Cut(tag, ":")
	kind := bridge.Kind(kindTag)
	if _, known := kindCodes[kind]; !known {
		return err
	}
	out := &bridge.Error{Kind: kind, Message: strings.TrimPrefix(text, "bridge: ")}
	for _, s := range sentinels {
		if s.tag == innerTag {
			out.Cause = s.err
			out.Message = strings.TrimSuffix(out.Message, ": "+s.err.Error())
		}
	}
	return out
}
