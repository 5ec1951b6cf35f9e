package http

import "time"

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ContactItem struct {
	UserID       string     `json:"user_id"`
	DisplayName  *string    `json:"display_name"`
	AvatarURL    *string    `json:"avatar_url"`
	LastActiveAt *time.Time `json:"last_active_at"`
	Online       bool       `json:"online"`
}

type ContactsResponse struct {
	Items []ContactItem `json:"items"`
}

type MessageItem struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	ClientID       string    `json:"client_id,omitempty"`
	Content        *string   `json:"content"`
	MediaURL       *string   `json:"media_url,omitempty"`
	MediaKind      *string   `json:"media_kind,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type MessagesResponse struct {
	Items      []MessageItem `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type ConversationSummaryItem struct {
	ID          string       `json:"id"`
	CreatedAt   time.Time    `json:"created_at"`
	Peer        ContactItem  `json:"peer"`
	LastMessage *MessageItem `json:"last_message"`
	UnreadCount int64        `json:"unread_count"`
}

type ConversationsListResponse struct {
	Items []ConversationSummaryItem `json:"items"`
}

type SendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	ClientID    string `json:"client_id,omitempty"`
	Content     string `json:"content,omitempty"`
	MediaURL    string `json:"media_url,omitempty"`
	MediaKind   string `json:"media_kind,omitempty"`
}

type TypingRequest struct {
	IsTyping bool `json:"is_typing"`
}

type TypingResponse struct {
	UserIDs []string `json:"user_ids"`
}
