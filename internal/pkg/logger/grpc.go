package logger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const grpcRequestIDKey = "x-request-id"

// UnaryServerInterceptor logs each unary call. Methods listed in skip are
// passed through untouched (health probes are noisy).
func UnaryServerInterceptor(l *Logger, skip ...string) grpc.UnaryServerInterceptor {
	skipped := toSet(skip)

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if _, ok := skipped[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		requestID := incomingRequestID(ctx)
		ctx = WithRequestID(ctx, requestID)

		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(l, "gRPC call", requestID, info.FullMethod, time.Since(start), err)
		return resp, err
	}
}

// StreamServerInterceptor logs each streaming call
func StreamServerInterceptor(l *Logger, skip ...string) grpc.StreamServerInterceptor {
	skipped := toSet(skip)

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if _, ok := skipped[info.FullMethod]; ok {
			return handler(srv, ss)
		}

		requestID := incomingRequestID(ss.Context())
		wrapped := &wrappedServerStream{ServerStream: ss, ctx: WithRequestID(ss.Context(), requestID)}

		start := time.Now()
		err := handler(srv, wrapped)
		logCall(l, "gRPC stream", requestID, info.FullMethod, time.Since(start), err)
		return err
	}
}

func logCall(l *Logger, msg, requestID, method string, latency time.Duration, err error) {
	st, _ := status.FromError(err)
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.Duration("latency", latency),
		zap.String("code", st.Code().String()),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}

	switch st.Code() {
	case codes.OK:
		l.Info(msg, fields...)
	case codes.Canceled, codes.DeadlineExceeded, codes.NotFound:
		l.Warn(msg, fields...)
	default:
		l.Error(msg, fields...)
	}
}

// incomingRequestID returns the caller's request id or a fresh one
func incomingRequestID(ctx context.Context) string {
	if id := GetRequestID(ctx); id != "" {
		return id
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(grpcRequestIDKey); len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return uuid.New().String()
}

type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

func toSet(items []string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}
