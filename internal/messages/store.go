package messages

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hirely/api-service/internal/apperr"
	"hirely/api-service/internal/db"
)

// Store persists messages.
type Store interface {
	// Insert returns an apperr NotFound when the receiver or job does not exist.
	Insert(ctx context.Context, senderID int64, m Outgoing) (Message, error)
	Conversations(ctx context.Context, userID int64) ([]Conversation, error)
	// History returns the exchange between userID and otherID oldest first
	// and marks otherID's messages to userID as read.
	History(ctx context.Context, userID, otherID int64) ([]HistoryEntry, error)
}

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Insert(ctx context.Context, senderID int64, m Outgoing) (Message, error) {
	var out Message
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, content, job_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, sender_id, receiver_id, job_id, content, sent_at, is_read`,
		senderID, m.ReceiverID, m.Content, m.JobID,
	).Scan(&out.ID, &out.SenderID, &out.ReceiverID, &out.JobID, &out.Content, &out.SentAt, &out.IsRead)
	if db.IsForeignKeyViolation(err) {
		return Message{}, apperr.Wrap(apperr.KindNotFound, "Receiver or job not found.", err)
	}
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	return out, nil
}

// counterpart is the other side of m relative to $1.
const counterpart = `CASE WHEN m.sender_id = $1 THEN m.receiver_id ELSE m.sender_id END`

func (s *PostgresStore) Conversations(ctx context.Context, userID int64) ([]Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT * FROM (
			SELECT DISTINCT ON (`+counterpart+`)
			       `+counterpart+` AS participant_id,
			       u.name, u.avatar_url,
			       m.content, m.sent_at, m.sender_id,
			       (SELECT COUNT(*) FROM messages um
			         WHERE um.receiver_id = $1
			           AND um.sender_id = `+counterpart+`
			           AND um.is_read = FALSE) AS unread_count
			  FROM messages m
			  JOIN users u ON u.id = `+counterpart+`
			 WHERE m.sender_id = $1 OR m.receiver_id = $1
			 ORDER BY `+counterpart+`, m.sent_at DESC, m.id DESC
		) c
		ORDER BY c.sent_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Conversation, error) {
		var c Conversation
		err := row.Scan(&c.ParticipantID, &c.ParticipantName, &c.ParticipantAvatar,
			&c.LastMessageContent, &c.LastMessageSentAt, &c.LastMessageSenderID, &c.UnreadCount)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan conversations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) History(ctx context.Context, userID, otherID int64) ([]HistoryEntry, error) {
	var out []HistoryEntry
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT m.id, m.sender_id, m.receiver_id, m.job_id, m.content, m.sent_at, m.is_read,
			       s.name, s.avatar_url, r.name, r.avatar_url
			  FROM messages m
			  JOIN users s ON s.id = m.sender_id
			  JOIN users r ON r.id = m.receiver_id
			 WHERE (m.sender_id = $1 AND m.receiver_id = $2)
			    OR (m.sender_id = $2 AND m.receiver_id = $1)
			 ORDER BY m.sent_at ASC, m.id ASC`, userID, otherID)
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (HistoryEntry, error) {
			var h HistoryEntry
			err := row.Scan(&h.ID, &h.SenderID, &h.ReceiverID, &h.JobID, &h.Content, &h.SentAt, &h.IsRead,
				&h.SenderName, &h.SenderAvatar, &h.ReceiverName, &h.ReceiverAvatar)
			return h, err
		})
		if err != nil {
			return fmt.Errorf("scan history: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE messages SET is_read = TRUE
			 WHERE sender_id = $2 AND receiver_id = $1 AND is_read = FALSE`,
			userID, otherID); err != nil {
			return fmt.Errorf("mark read: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
