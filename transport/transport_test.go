package transport

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestUnaryServerLoggerReusesIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	icpt := UnaryServerLogger(log)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "req-1"))
	var seen string
	_, err := icpt(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/M"}, func(ctx context.Context, req any) (any, error) {
		seen = RequestID(ctx)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-1", seen)
	assert.Contains(t, buf.String(), "request_id=req-1")
	assert.Contains(t, buf.String(), "code=OK")
}

func TestUnaryServerLoggerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	icpt := UnaryServerLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	var seen string
	_, err := icpt(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/M"}, func(ctx context.Context, req any) (any, error) {
		seen = RequestID(ctx)
		return nil, status.Error(codes.PermissionDenied, "no")
	})
	require.Error(t, err)
	assert.Len(t, seen, 36)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "code=PermissionDenied")
}

func TestOutgoingRequestID(t *testing.T) {
	ctx := OutgoingRequestID(WithRequestID(context.Background(), "abc"))
	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"abc"}, md.Get(RequestIDHeader))

	plain := OutgoingRequestID(context.Background())
	_, ok = metadata.FromOutgoingContext(plain)
	assert.False(t, ok)
}
