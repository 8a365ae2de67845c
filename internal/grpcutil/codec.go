// Package grpcutil provides the wire codec and interceptors shared by gRPC servers and clients.
package grpcutil

import (
	"bytes"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/chrissnell/deepcut/internal/profile"
	"github.com/chrissnell/deepcut/pkg/responseformat"
)

// CodecName is the content-subtype under which the MessagePack codec is registered
const CodecName = "msgpack"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec marshals gRPC messages as MessagePack using their json field names
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := responseformat.EncodeMsgPack(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	return responseformat.DecodeMsgPack(bytes.NewReader(data), v)
}

func (Codec) Name() string {
	return CodecName
}

// StatusFromError maps detection errors onto gRPC status codes
func StatusFromError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, profile.ErrInvalidInput), errors.Is(err, profile.ErrInvalidParameter):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// LoggingInterceptor logs every unary call with its duration and status code
func LoggingInterceptor(logger *zap.SugaredLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []interface{}{
			"method", info.FullMethod,
			"code", code.String(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil && code != codes.InvalidArgument && code != codes.NotFound {
			logger.Errorw("grpc request failed", append(fields, "error", err)...)
		} else {
			logger.Infow("grpc request", fields...)
		}
		return resp, err
	}
}
