package interpreter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/intentgate-dev/intentgate/pkg/cache"
	"github.com/intentgate-dev/intentgate/pkg/conversation"
	"github.com/intentgate-dev/intentgate/pkg/observability"
)

// NoIntentDetected is returned when the model declines to select a function.
const NoIntentDetected = "no_intent_detected"

var (
	ErrEmptyInput   = errors.New("user text cannot be empty")
	ErrInputTooLong = errors.New("user text exceeds maximum length")
)

// OpenAIClient interface for testability
type OpenAIClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Result is the outcome of one interpretation request.
type Result struct {
	Intent             string
	StructuredDataJSON string
	SessionID          string
	Cached             bool
	Latency            time.Duration
}

// Options configures an Interpreter. Zero values fall back to defaults.
type Options struct {
	Model          string
	SystemPrompt   string
	Functions      []Function
	MaxInputChars  int
	HistoryWindow  int
	StoreTimeout   time.Duration
	MaxConcurrent  int64
	InferenceRPS   float64
	InferenceBurst int
}

const defaultSystemPrompt = "You are an intent interpreter for an HR assistant. " +
	"Map the user's request onto one of the available functions when it clearly matches; " +
	"otherwise reply in plain text without calling a function."

// Interpreter runs the per-request pipeline: validate, resolve session,
// load history, probe the cache, call the model, persist the turn.
type Interpreter struct {
	client OpenAIClient
	store  conversation.Store
	cache  *cache.ResponseCache

	functions []Function
	tools     []openai.Tool

	model         string
	systemPrompt  string
	maxInputChars int
	historyWindow int
	storeTimeout  time.Duration

	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

func New(client OpenAIClient, store conversation.Store, respCache *cache.ResponseCache, opts Options) *Interpreter {
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}
	if len(opts.Functions) == 0 {
		opts.Functions = DefaultFunctions()
	}
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = 5000
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 10
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 2 * time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 20
	}
	if opts.InferenceRPS <= 0 {
		opts.InferenceRPS = 50
	}
	if opts.InferenceBurst <= 0 {
		opts.InferenceBurst = 10
	}

	return &Interpreter{
		client:        client,
		store:         store,
		cache:         respCache,
		functions:     opts.Functions,
		tools:         toOpenAITools(opts.Functions),
		model:         opts.Model,
		systemPrompt:  opts.SystemPrompt,
		maxInputChars: opts.MaxInputChars,
		historyWindow: opts.HistoryWindow,
		storeTimeout:  opts.StoreTimeout,
		sem:           semaphore.NewWeighted(opts.MaxConcurrent),
		limiter:       rate.NewLimiter(rate.Limit(opts.InferenceRPS), opts.InferenceBurst),
	}
}

// Interpret resolves the intent behind userText. A blank sessionID starts a
// new session. Store failures degrade to stateless behavior; only validation
// and inference failures surface as errors.
func (it *Interpreter) Interpret(ctx context.Context, sessionID, userText string) (*Result, error) {
	start := time.Now()

	if strings.TrimSpace(userText) == "" {
		return nil, ErrEmptyInput
	}
	if utf8.RuneCountInString(userText) > it.maxInputChars {
		return nil, fmt.Errorf("%w: %d > %d characters", ErrInputTooLong, utf8.RuneCountInString(userText), it.maxInputChars)
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if err := it.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire worker slot: %w", err)
	}
	defer it.sem.Release(1)

	degraded := false
	if err := it.ensureSession(ctx, sessionID); err != nil {
		log.Printf("[Interpreter] session %s: create failed, degraded mode: %v", sessionID, err)
		observability.RecordStoreFailure("create_session")
		degraded = true
	}

	history := it.loadHistory(ctx, sessionID, &degraded)

	contextFree := len(history) == 0
	if contextFree && it.cache != nil {
		if resp, ok := it.cache.Get(userText); ok {
			observability.RecordCacheEvent("hit")
			observability.RecordIntent(resp.Intent)
			return &Result{
				Intent:             resp.Intent,
				StructuredDataJSON: resp.StructuredDataJSON,
				SessionID:          sessionID,
				Cached:             true,
				Latency:            time.Since(start),
			}, nil
		}
		observability.RecordCacheEvent("miss")
	}

	intent, args, err := it.infer(ctx, history, userText)
	if err != nil {
		return nil, err
	}

	latency := time.Since(start)
	if !degraded {
		it.persistTurn(ctx, sessionID, userText, intent, latency)
	}

	if contextFree && it.cache != nil {
		it.cache.Put(userText, cache.Response{Intent: intent, StructuredDataJSON: args})
		observability.RecordCacheEvent("store")
		observability.SetCacheSize(it.cache.Len())
	}

	observability.RecordIntent(intent)
	return &Result{
		Intent:             intent,
		StructuredDataJSON: args,
		SessionID:          sessionID,
		Latency:            latency,
	}, nil
}

func (it *Interpreter) ensureSession(ctx context.Context, sessionID string) error {
	sctx, cancel := context.WithTimeout(ctx, it.storeTimeout)
	defer cancel()
	return it.store.CreateSession(sctx, sessionID, "", "")
}

func (it *Interpreter) loadHistory(ctx context.Context, sessionID string, degraded *bool) []conversation.Message {
	sctx, cancel := context.WithTimeout(ctx, it.storeTimeout)
	defer cancel()

	history, err := it.store.History(sctx, sessionID, it.historyWindow)
	if err != nil {
		log.Printf("[Interpreter] session %s: history read failed, degraded mode: %v", sessionID, err)
		observability.RecordStoreFailure("history")
		*degraded = true
		return nil
	}
	return history
}

func (it *Interpreter) infer(ctx context.Context, history []conversation.Message, userText string) (intent, args string, err error) {
	if err := it.limiter.Wait(ctx); err != nil {
		return "", "", fmt.Errorf("inference rate limit: %w", err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: it.systemPrompt,
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})

	req := openai.ChatCompletionRequest{
		Model:      it.model,
		Messages:   messages,
		Tools:      it.tools,
		ToolChoice: "auto",
	}

	inferStart := time.Now()
	resp, err := it.client.CreateChatCompletion(ctx, req)
	observability.RecordInference(time.Since(inferStart))
	if err != nil {
		return "", "", fmt.Errorf("inference call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", "", fmt.Errorf("inference returned no choices")
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		return NoIntentDetected, "{}", nil
	}

	call := msg.ToolCalls[0]
	args = call.Function.Arguments
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	return call.Function.Name, args, nil
}

func (it *Interpreter) persistTurn(ctx context.Context, sessionID, userText, intent string, latency time.Duration) {
	sctx, cancel := context.WithTimeout(ctx, it.storeTimeout)
	defer cancel()

	now := time.Now().Unix()
	userMsg := conversation.Message{
		Role:      conversation.RoleUser,
		Content:   userText,
		Timestamp: now,
	}
	assistantMsg := conversation.Message{
		Role:      conversation.RoleAssistant,
		Content:   fmt.Sprintf("Recognized intent: %s", intent),
		Timestamp: now,
		Intent:    intent,
	}
	updates := map[string]string{
		"last_intent":   intent,
		"processing_ms": strconv.FormatInt(latency.Milliseconds(), 10),
	}

	if err := it.store.SaveTurn(sctx, sessionID, userMsg, assistantMsg, updates); err != nil {
		log.Printf("[Interpreter] session %s: persist failed: %v", sessionID, err)
		observability.RecordStoreFailure("save_turn")
	}
}
