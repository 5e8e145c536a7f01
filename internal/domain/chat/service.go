package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/symptoseek/symptoseek/internal/platform/llm"
)

var (
	ErrNotFound  = errors.New("conversation not found")
	ErrForbidden = errors.New("conversation belongs to another user")
)

// systemPrompt frames every completion. The assistant triages symptoms and
// always defers to professional care.
const systemPrompt = `You are SymptoSeek, a friendly health assistant. Help the
user reason about their symptoms, suggest which medical speciality fits them,
and remind them that you are not a substitute for a doctor. Keep answers
short and plain. If symptoms sound urgent, tell the user to seek emergency
care immediately.`

// maxHistory caps how many prior messages are replayed to the model.
const maxHistory = 20

type Service struct {
	chats ChatRepository
	model llm.Client
}

func NewService(chats ChatRepository, model llm.Client) *Service {
	return &Service{chats: chats, model: model}
}

// StartConversation creates an empty conversation for the user.
func (s *Service) StartConversation(ctx context.Context, userID uuid.UUID, title string) (*Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New conversation"
	}
	c := &Conversation{UserID: userID, Title: title}
	if err := s.chats.CreateConversation(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListConversations returns the user's conversations, most recent first.
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Conversation, int, error) {
	return s.chats.ListConversations(ctx, userID, limit, offset)
}

func (s *Service) getOwned(ctx context.Context, id, userID uuid.UUID) (*Conversation, error) {
	c, err := s.chats.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

// Messages returns the conversation history, enforcing ownership.
func (s *Service) Messages(ctx context.Context, conversationID, userID uuid.UUID) ([]*Message, error) {
	if _, err := s.getOwned(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return s.chats.ListMessages(ctx, conversationID)
}

// DeleteConversation removes the conversation and its messages.
func (s *Service) DeleteConversation(ctx context.Context, conversationID, userID uuid.UUID) error {
	if _, err := s.getOwned(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.chats.DeleteConversation(ctx, conversationID)
}

// SendMessage stores the user's message, asks the model for a reply fed with
// the conversation history, stores the reply, and returns it.
func (s *Service) SendMessage(ctx context.Context, conversationID, userID uuid.UUID, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content is required")
	}
	if s.model == nil {
		return nil, fmt.Errorf("assistant is not configured")
	}
	if _, err := s.getOwned(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	userMsg := &Message{ConversationID: conversationID, Role: "user", Content: content}
	if err := s.chats.CreateMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	history, err := s.chats.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	prompt := make([]llm.Message, 0, len(history)+1)
	prompt = append(prompt, llm.Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		prompt = append(prompt, llm.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := s.model.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("assistant reply: %w", err)
	}

	assistantMsg := &Message{ConversationID: conversationID, Role: "assistant", Content: reply}
	if err := s.chats.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}
	return assistantMsg, nil
}
