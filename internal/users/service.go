package users

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"hirely/api-service/internal/apperr"
	"hirely/api-service/internal/auth"
	"hirely/api-service/internal/logging"
)

const (
	msgAuthRequired       = "Authentication required to access this resource."
	msgInvalidCredentials = "Invalid Credentials"
	msgBadDistance        = "Preferred distance must be a non-negative number."
)

var validate = validator.New()

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates the account and profile logic. It has no dependency
// on net/http.
type Service struct {
	store  Store
	tokens *auth.Tokens
	log    *logrus.Entry
}

// NewService returns a configured Service.
func NewService(store Store, tokens *auth.Tokens, log logrus.FieldLogger) *Service {
	return &Service{store: store, tokens: tokens, log: logging.Component(log, "users")}
}

// ─── Sessions ────────────────────────────────────────────────────────────────

// Register creates an account and signs the new user in.
func (s *Service) Register(ctx context.Context, req Registration) (Session, error) {
	if err := check(req, "Please enter all required fields: name, email, password, location."); err != nil {
		return Session{}, err
	}

	taken, err := s.store.EmailTaken(ctx, req.Email)
	if err != nil {
		return Session{}, err
	}
	if taken {
		return Session{}, apperr.Conflict("User with this email already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return Session{}, err
	}
	na := NewAccount{
		Name: req.Name, Email: req.Email, PasswordHash: hash, Phone: req.Phone,
		Location: req.Location, Role: req.Role,
	}
	if na.Role == "" {
		na.Role = DefaultRole
	}
	if req.PreferredDistance != nil {
		na.PreferredDistance = *req.PreferredDistance
	}

	acct, err := s.store.Create(ctx, na)
	if err != nil {
		return Session{}, err
	}
	s.log.WithField("user_id", acct.ID).Info("user registered")
	return s.session(acct)
}

// Login checks the credentials and issues a token. Unknown emails and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, req Credentials) (Session, error) {
	if err := check(req, "Please enter email and password."); err != nil {
		return Session{}, err
	}

	acct, hash, err := s.store.Credentials(ctx, req.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		return Session{}, apperr.Validation(msgInvalidCredentials)
	}
	if err != nil {
		return Session{}, err
	}
	ok, err := auth.CheckPassword(hash, req.Password)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, apperr.Validation(msgInvalidCredentials)
	}
	return s.session(acct)
}

func (s *Service) session(a Account) (Session, error) {
	tok, err := s.tokens.Issue(auth.Identity{ID: a.ID, Email: a.Email, Role: a.Role})
	if err != nil {
		return Session{}, err
	}
	return Session{Token: tok, User: a.session()}, nil
}

// ─── Profiles ────────────────────────────────────────────────────────────────

// UpdateProfile replaces the caller's editable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, callerID, userID int64, req ProfileUpdate) (Account, error) {
	if callerID == 0 {
		return Account{}, apperr.Unauthenticated(msgAuthRequired)
	}
	if callerID != userID {
		return Account{}, apperr.Forbidden("Unauthorized: You can only update your own profile.")
	}
	if err := check(req, "Name, email, and location are required fields."); err != nil {
		return Account{}, err
	}
	return s.store.Update(ctx, userID, req)
}

// ByEmail returns the public profile for email.
func (s *Service) ByEmail(ctx context.Context, email string) (Profile, error) {
	return s.store.ProfileByEmail(ctx, email)
}

// ByID returns the public profile for id, including viewerID's own rating
// of them.
func (s *Service) ByID(ctx context.Context, viewerID, id int64) (Profile, error) {
	return s.store.ProfileByID(ctx, id, viewerID)
}

// Search lists users matching f by name.
func (s *Service) Search(ctx context.Context, f SearchFilter) ([]Profile, error) {
	return s.store.Search(ctx, f)
}

// ─── Ratings & reports ───────────────────────────────────────────────────────

// Rate records (or replaces) raterID's rating of ratedID.
func (s *Service) Rate(ctx context.Context, raterID, ratedID int64, r Rating) (RatingSummary, error) {
	if raterID == 0 {
		return RatingSummary{}, apperr.Unauthenticated(msgAuthRequired)
	}
	if err := validate.Struct(r); err != nil {
		return RatingSummary{}, apperr.Wrap(apperr.KindValidation, "Invalid user ID or rating (must be 1-5).", err)
	}
	if raterID == ratedID {
		return RatingSummary{}, apperr.Validation("You cannot rate yourself.")
	}
	return s.store.UpsertRating(ctx, ratedID, raterID, r)
}

// Report files a report against reportedID.
func (s *Service) Report(ctx context.Context, reporterID, reportedID int64, r Report) error {
	if reporterID == 0 {
		return apperr.Unauthenticated(msgAuthRequired)
	}
	reason := strings.TrimSpace(r.Reason)
	if reason == "" {
		return apperr.Validation("Invalid user ID or missing report reason.")
	}
	if reporterID == reportedID {
		return apperr.Validation("You cannot report yourself.")
	}
	if err := s.store.InsertReport(ctx, reportedID, reporterID, reason, r.Details); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"reported_id": reportedID, "reporter_id": reporterID}).Info("user reported")
	return nil
}

// check validates req, reporting a bad preferred distance separately from
// missing fields.
func check(req any, missing string) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 && ves[0].Field() == "PreferredDistance" {
		return apperr.Wrap(apperr.KindValidation, msgBadDistance, err)
	}
	return apperr.Wrap(apperr.KindValidation, missing, err)
}
