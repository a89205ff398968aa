// Package messages implements direct messages between users: sending,
// the per-counterpart conversation list and the read-marking history view.
package messages

import "time"

// Message is a messages row.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	JobID      *int64    `json:"job_id"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sent_at"`
	IsRead     bool      `json:"is_read"`
}

// HistoryEntry is a message with both participants' display fields.
type HistoryEntry struct {
	Message
	SenderName     string  `json:"sender_name"`
	SenderAvatar   *string `json:"sender_avatar"`
	ReceiverName   string  `json:"receiver_name"`
	ReceiverAvatar *string `json:"receiver_avatar"`
}

// Conversation summarises the latest message exchanged with one counterpart.
type Conversation struct {
	ParticipantID       int64     `json:"participant_id"`
	ParticipantName     string    `json:"participant_name"`
	ParticipantAvatar   *string   `json:"participant_avatar"`
	LastMessageContent  string    `json:"last_message_content"`
	LastMessageSentAt   time.Time `json:"last_message_sent_at"`
	LastMessageSenderID int64     `json:"last_message_sender_id"`
	UnreadCount         int64     `json:"unread_count"`
}

// Outgoing is the body of POST /messages.
type Outgoing struct {
	ReceiverID int64  `json:"receiverId" validate:"required,gt=0"`
	Content    string `json:"content" validate:"required"`
	JobID      *int64 `json:"jobId" validate:"omitempty,gt=0"`
}
