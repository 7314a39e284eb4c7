package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/intentgate-dev/intentgate/internal/interpreter"
	"github.com/intentgate-dev/intentgate/pkg/cache"
	"github.com/intentgate-dev/intentgate/pkg/conversation"
	pb "github.com/intentgate-dev/intentgate/proto"
)

func newTestServer(t *testing.T, mock interpreter.OpenAIClient) *Server {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := conversation.NewRedisStoreFromClient(rdb, "test:", 30*time.Minute, 20)
	t.Cleanup(func() { _ = store.Close() })

	respCache := cache.New(cache.Config{MaxSize: 10, TTL: time.Minute})
	interp := interpreter.New(mock, store, respCache, interpreter.Options{})
	return NewServer(interp, 5*time.Second)
}

func functionResponse(name, arguments string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{
				Message: openai.ChatCompletionMessage{
					Role: openai.ChatMessageRoleAssistant,
					ToolCalls: []openai.ToolCall{
						{
							Type: openai.ToolTypeFunction,
							Function: openai.FunctionCall{
								Name:      name,
								Arguments: arguments,
							},
						},
					},
				},
			},
		},
	}
}

func TestInterpretText_Success(t *testing.T) {
	mock := interpreter.NewMockOpenAIClient()
	mock.AddResponse(functionResponse("list_employees", `{"department":"sales"}`), nil)

	srv := newTestServer(t, mock)
	resp, err := srv.InterpretText(context.Background(), &pb.InterpretRequest{
		UserText:  "who works in sales?",
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Intent != "list_employees" {
		t.Errorf("expected intent list_employees, got %s", resp.Intent)
	}
	if resp.StructuredDataJson != `{"department":"sales"}` {
		t.Errorf("unexpected arguments: %s", resp.StructuredDataJson)
	}
}

func TestInterpretText_EmptyInput(t *testing.T) {
	srv := newTestServer(t, interpreter.NewMockOpenAIClient())

	_, err := srv.InterpretText(context.Background(), &pb.InterpretRequest{UserText: ""})
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected gRPC status, got %v", err)
	}
	if st.Code() != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %s", st.Code())
	}
	if st.Message() != "User text cannot be empty" {
		t.Errorf("unexpected message: %s", st.Message())
	}
}

func TestInterpretText_OversizedInput(t *testing.T) {
	srv := newTestServer(t, interpreter.NewMockOpenAIClient())

	_, err := srv.InterpretText(context.Background(), &pb.InterpretRequest{
		UserText: strings.Repeat("x", 5001),
	})
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected gRPC status, got %v", err)
	}
	if st.Code() != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %s", st.Code())
	}
}

func TestInterpretText_InferenceFailure(t *testing.T) {
	mock := interpreter.NewMockOpenAIClient()
	mock.AddResponse(openai.ChatCompletionResponse{}, context.DeadlineExceeded)

	srv := newTestServer(t, mock)
	// An inference transport failure surfaces; here the wrapped deadline error
	// maps to DeadlineExceeded.
	_, err := srv.InterpretText(context.Background(), &pb.InterpretRequest{UserText: "hello"})
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected gRPC status, got %v", err)
	}
	if st.Code() != codes.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %s", st.Code())
	}
}

func TestInterpretText_InternalError(t *testing.T) {
	mock := interpreter.NewMockOpenAIClient()
	mock.AddResponse(openai.ChatCompletionResponse{}, errors.New("provider unreachable"))

	srv := newTestServer(t, mock)
	_, err := srv.InterpretText(context.Background(), &pb.InterpretRequest{UserText: "hello"})
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected gRPC status, got %v", err)
	}
	if st.Code() != codes.Internal {
		t.Errorf("expected Internal, got %s", st.Code())
	}
}

func TestGateway_CheckStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := conversation.NewRedisStoreFromClient(rdb, "test:", 30*time.Minute, 20)
	t.Cleanup(func() { _ = store.Close() })

	respCache := cache.New(cache.Config{MaxSize: 10, TTL: time.Minute})
	interp := interpreter.New(interpreter.NewMockOpenAIClient(), store, respCache, interpreter.Options{})
	g := New(Config{}, interp, store)

	if err := g.checkStore(context.Background()); err != nil {
		t.Fatalf("expected healthy store, got %v", err)
	}

	mr.Close()
	if err := g.checkStore(context.Background()); err == nil {
		t.Error("expected check failure with store down")
	}
}
