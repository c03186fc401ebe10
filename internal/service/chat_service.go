package service

import (
	"context"
	"strings"

	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/domain"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

// ChatService reads and answers support conversations.
type ChatService struct{ base }

func (s *ChatService) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	return read[[]domain.Conversation](ctx, s.base, ConversationsKey(), "/chat/conversations", nil)
}

func (s *ChatService) Messages(ctx context.Context, conversationID string, params apiclient.Params) ([]domain.ChatMessage, error) {
	return read[[]domain.ChatMessage](ctx, s.base, withParams(MessagesKey(conversationID), params),
		apiclient.Path("/chat/conversations/%s/messages", conversationID), params)
}

// Send posts a message, with an optional attachment, to a conversation.
func (s *ChatService) Send(ctx context.Context, conversationID, body string, attachment *apiclient.File) (domain.ChatMessage, error) {
	if strings.TrimSpace(body) == "" && attachment == nil {
		return domain.ChatMessage{}, apperrors.NewValidationError("message is empty", nil)
	}
	path := apiclient.Path("/chat/conversations/%s/messages", conversationID)
	return write(ctx, s.base, func(ctx context.Context) (domain.ChatMessage, error) {
		if attachment != nil {
			file := *attachment
			if file.Field == "" {
				file.Field = "attachment"
			}
			return apiclient.Upload[domain.ChatMessage](ctx, s.api, path, map[string]string{"body": body}, file)
		}
		return apiclient.Post[domain.ChatMessage](ctx, s.api, path, map[string]string{"body": body})
	}, MessagesKey(conversationID), ConversationsKey())
}
