package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"chat-relay/internal/llm"
	"chat-relay/internal/models"
)

// ErrEmptyPrompt rejects empty or whitespace-only prompt content before
// any collaborator is called.
var ErrEmptyPrompt = errors.New("relay: prompt content is required")

const defaultSystemPrompt = "You are a helpful assistant."

// TurnAppender persists one immutable chat turn.
type TurnAppender interface {
	Append(ctx context.Context, ownerID, role, content string) (*models.Turn, error)
}

// Completer produces the assistant reply for a transcript.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// Service sequences one relay invocation: write the user turn, call the
// completion provider, write the assistant turn, return the reply. The two
// writes are independent; a completion failure leaves the already-written
// user turn in place.
type Service struct {
	turns        TurnAppender
	completer    Completer
	systemPrompt string
	logger       *zap.SugaredLogger
}

func NewService(turns TurnAppender, completer Completer, systemPrompt string, logger *zap.SugaredLogger) (*Service, error) {
	if turns == nil {
		return nil, errors.New("relay: turn store must not be nil")
	}
	if completer == nil {
		return nil, errors.New("relay: completer must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}

	return &Service{
		turns:        turns,
		completer:    completer,
		systemPrompt: systemPrompt,
		logger:       logger,
	}, nil
}

// Handle relays one prompt for ownerID and returns the assistant reply.
//
// The transcript sent upstream is the fixed system instruction plus the
// single trimmed user message; prior turns are not included, so each
// invocation is context-free from the model's perspective. If the assistant
// turn cannot be persisted the reply is still returned and the failure is
// logged, since the response does not depend on that write.
func (s *Service) Handle(ctx context.Context, ownerID, rawContent string) (string, error) {
	content := strings.TrimSpace(rawContent)
	if content == "" {
		return "", ErrEmptyPrompt
	}

	if _, err := s.turns.Append(ctx, ownerID, models.RoleUser, content); err != nil {
		return "", fmt.Errorf("persist user turn: %w", err)
	}

	reply, err := s.completer.Complete(ctx, []llm.Message{
		{Role: "system", Content: s.systemPrompt},
		{Role: models.RoleUser, Content: content},
	})
	if err != nil {
		return "", fmt.Errorf("complete prompt: %w", err)
	}

	if _, err := s.turns.Append(ctx, ownerID, models.RoleAssistant, reply); err != nil {
		s.logger.Warnw("assistant turn not persisted", "owner_id", ownerID, "error", err)
	}

	return reply, nil
}
