package gateway

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/intentgate-dev/intentgate/internal/interpreter"
	"github.com/intentgate-dev/intentgate/pkg/observability"
	pb "github.com/intentgate-dev/intentgate/proto"
)

// Server exposes the interpretation pipeline over gRPC.
type Server struct {
	pb.UnimplementedIntelligenceServiceServer

	interp         *interpreter.Interpreter
	requestTimeout time.Duration
}

// NewServer creates a Server around an interpreter.
func NewServer(interp *interpreter.Interpreter, requestTimeout time.Duration) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Server{
		interp:         interp,
		requestTimeout: requestTimeout,
	}
}

// InterpretText resolves the intent behind one utterance.
func (s *Server) InterpretText(ctx context.Context, req *pb.InterpretRequest) (*pb.InterpretResponse, error) {
	start := time.Now()
	requestID := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	result, err := s.interp.Interpret(ctx, req.SessionID, req.UserText)
	if err != nil {
		st := toStatus(err)
		log.Printf("[Gateway] request %s session %q failed: %v", requestID, req.SessionID, err)
		observability.RecordGRPCRequest("InterpretText", st.Code().String(), time.Since(start))
		observability.RecordInterpretRequest(st.Code().String(), time.Since(start))
		return nil, st.Err()
	}

	log.Printf("[Gateway] request %s session %s intent=%s cached=%t in %s",
		requestID, result.SessionID, result.Intent, result.Cached, result.Latency)
	observability.RecordGRPCRequest("InterpretText", codes.OK.String(), time.Since(start))
	observability.RecordInterpretRequest(codes.OK.String(), time.Since(start))

	return &pb.InterpretResponse{
		Intent:             result.Intent,
		StructuredDataJson: result.StructuredDataJSON,
	}, nil
}

func toStatus(err error) *status.Status {
	switch {
	case errors.Is(err, interpreter.ErrEmptyInput):
		return status.New(codes.InvalidArgument, "User text cannot be empty")
	case errors.Is(err, interpreter.ErrInputTooLong):
		return status.New(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.New(codes.DeadlineExceeded, "request deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.New(codes.Canceled, "request canceled")
	default:
		return status.New(codes.Internal, err.Error())
	}
}
