package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

// AuthService handles registration, login and session resolution. It is the
// only component that turns a bearer token into a user identity; everything
// downstream receives the resolved user and never re-derives it.
type AuthService struct {
	userRepo    *repository.UserRepository
	sessionRepo *repository.SessionRepository
	mail        *MailService
	secret      []byte
	sessionTTL  time.Duration
}

func NewAuthService(userRepo *repository.UserRepository, sessionRepo *repository.SessionRepository, mail *MailService, secret []byte, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		mail:        mail,
		secret:      secret,
		sessionTTL:  sessionTTL,
	}
}

// RegisterInput is the data required to open an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates the account, provisions the default categories atomically
// with it, and logs the new user in. The welcome mail is fire-and-forget.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, string, error) {
	v := newValidator()
	v.check(input.Username != "", "username", "must be provided")
	v.check(len(input.Username) <= 64, "username", "must be at most 64 characters")
	v.check(input.Email != "", "email", "must be provided")
	v.check(input.Email == "" || emailRegexp.MatchString(input.Email), "email", "must be a valid email address")
	v.check(input.Password != "", "password", "must be provided")
	v.check(input.Password == "" || len(input.Password) >= 8, "password", "must be at least 8 characters")
	v.check(len(input.Password) <= 72, "password", "must be at most 72 characters")
	if err := v.err(); err != nil {
		return nil, "", err
	}

	if existing, err := s.userRepo.FindByUsername(ctx, input.Username); err != nil {
		return nil, "", err
	} else if existing != nil {
		return nil, "", ErrDuplicateUsername
	}
	if existing, err := s.userRepo.FindByEmail(ctx, input.Email); err != nil {
		return nil, "", err
	} else if existing != nil {
		return nil, "", ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
	}
	if err := s.userRepo.CreateWithCategories(ctx, user, DefaultCategories()); err != nil {
		return nil, "", err
	}

	token, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	s.mail.SendWelcome(user)
	return user, token, nil
}

// Login verifies credentials and opens a session. An unknown username and a
// wrong password produce the same error, so usernames cannot be probed.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	v := newValidator()
	v.check(username != "", "username", "must be provided")
	v.check(password != "", "password", "must be provided")
	if err := v.err(); err != nil {
		return nil, "", err
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to its user. Every failure mode, from
// a malformed token to a deleted or expired session, collapses into
// ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	session, err := s.sessionRepo.Find(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if session == nil || time.Now().After(session.ExpiresAt) {
		return nil, ErrUnauthenticated
	}
	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// Logout deletes the session behind the token. The token is dead from this
// point even though its embedded expiry may still be in the future.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return ErrUnauthenticated
	}
	return s.sessionRepo.Delete(ctx, claims.ID)
}

// PurgeExpiredSessions removes sessions past their expiry. Run periodically.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx, time.Now())
}

func (s *AuthService) startSession(ctx context.Context, userID uint) (string, error) {
	now := time.Now().UTC()
	session := &model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", err
	}

	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (s *AuthService) parseToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
