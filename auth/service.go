// Package auth registers users, checks their passwords and issues and
// verifies the bearer tokens that gate every protected route.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recipehub/models"
	"recipehub/store"
	"recipehub/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
)

const (
	HeaderName     = "authorization_r"
	fallbackHeader = "Authorization"
	bearerPrefix   = "Bearer "
)

// Identity is the authenticated caller, handed explicitly to gated handlers.
type Identity struct {
	UserID primitive.ObjectID
}

type RegisterInput struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName"  validate:"required,max=50"`
	Username  string `json:"username"  validate:"required,min=3,max=15"`
	Password  string `json:"password"  validate:"required"`
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type Service struct {
	users  store.Users
	issuer *Issuer
}

func NewService(users store.Users, issuer *Issuer) *Service {
	return &Service{users: users, issuer: issuer}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.users.UserByUsername(ctx, in.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Username:  in.Username,
		Password:  hash,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.users.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.issuer.Issue(u.ID.Hex())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// Verify checks a raw header value of the form "Bearer <token>".
func (s *Service) Verify(header string) (Identity, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return Identity{}, ErrUnauthorized
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return Identity{}, ErrUnauthorized
	}
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return Identity{}, err
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: id}, nil
}

// BearerHeader returns the credential header, preferring authorization_r.
func BearerHeader(r *http.Request) string {
	if h := r.Header.Get(HeaderName); h != "" {
		return h
	}
	return r.Header.Get(fallbackHeader)
}
