package messages

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"hirely/api-service/internal/apperr"
	"hirely/api-service/internal/logging"
)

const (
	msgAuthRequired  = "Authentication required to access this resource."
	msgMissingFields = "Receiver ID and message content are required."
	msgSelfMessage   = "You cannot send a message to yourself."
	msgInvalidUserID = "Invalid User ID."
)

var validate = validator.New()

// Service holds the messaging use cases.
type Service struct {
	store Store
	log   *logrus.Entry
}

// NewService returns a configured Service.
func NewService(store Store, log logrus.FieldLogger) *Service {
	return &Service{store: store, log: logging.Component(log, "messages")}
}

// Send stores a message from senderID.
func (s *Service) Send(ctx context.Context, senderID int64, m Outgoing) (Message, error) {
	if senderID == 0 {
		return Message{}, apperr.Unauthenticated(msgAuthRequired)
	}
	m.Content = strings.TrimSpace(m.Content)
	if err := validate.Struct(m); err != nil {
		return Message{}, apperr.Wrap(apperr.KindValidation, msgMissingFields, err)
	}
	if m.ReceiverID == senderID {
		return Message{}, apperr.Validation(msgSelfMessage)
	}
	msg, err := s.store.Insert(ctx, senderID, m)
	if err != nil {
		return Message{}, err
	}
	s.log.WithFields(logrus.Fields{"message_id": msg.ID, "sender_id": senderID, "receiver_id": m.ReceiverID}).Debug("message sent")
	return msg, nil
}

// Conversations lists userID's conversations, most recent first.
func (s *Service) Conversations(ctx context.Context, userID int64) ([]Conversation, error) {
	if userID == 0 {
		return nil, apperr.Unauthenticated(msgAuthRequired)
	}
	return s.store.Conversations(ctx, userID)
}

// History returns the exchange with otherID and marks it read for userID.
func (s *Service) History(ctx context.Context, userID, otherID int64) ([]HistoryEntry, error) {
	if userID == 0 {
		return nil, apperr.Unauthenticated(msgAuthRequired)
	}
	if otherID <= 0 {
		return nil, apperr.Validation(msgInvalidUserID)
	}
	return s.store.History(ctx, userID, otherID)
}
