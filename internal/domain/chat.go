package domain

import "time"

// Conversation is a chat thread between platform users.
type Conversation struct {
	ID            string    `json:"id"`
	Participants  []string  `json:"participants"`
	LastMessage   string    `json:"lastMessage,omitempty"`
	LastMessageAt time.Time `json:"lastMessageAt,omitempty"`
	UnreadCount   int       `json:"unreadCount,omitempty"`
}

// ChatMessage is one message in a conversation.
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Body           string    `json:"body"`
	AttachmentURL  string    `json:"attachmentUrl,omitempty"`
	SentAt         time.Time `json:"sentAt"`
}
