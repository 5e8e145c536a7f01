package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/symptoseek/symptoseek/internal/platform/auth"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("user not found")
)

type Service struct {
	users  UserRepository
	secret []byte
	ttl    time.Duration
}

func NewService(users UserRepository, secret []byte, ttl time.Duration) *Service {
	return &Service{users: users, secret: secret, ttl: ttl}
}

// Signup registers a new user with the default role and returns the user and
// a signed token.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, "", fmt.Errorf("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", fmt.Errorf("invalid email address")
	}
	if len(password) < 8 {
		return nil, "", fmt.Errorf("password must be at least 8 characters")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) && !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	u := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         "user",
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := auth.GenerateToken(s.secret, u.ID.String(), u.Role, s.ttl)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials and returns the user and a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(s.secret, u.ID.String(), u.Role, s.ttl)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Profile returns the user for the given id.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name       *string `json:"name"`
	Gender     *string `json:"gender"`
	Age        *int    `json:"age"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	ProfilePic *string `json:"profile_pic"`
}

var validGenders = map[string]bool{
	"male":   true,
	"female": true,
	"other":  true,
}

// UpdateProfile applies the non-nil fields of upd to the user's profile.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*User, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		u.Name = name
	}
	if upd.Gender != nil {
		if !validGenders[*upd.Gender] {
			return nil, fmt.Errorf("invalid gender: %s", *upd.Gender)
		}
		u.Gender = upd.Gender
	}
	if upd.Age != nil {
		if *upd.Age < 0 || *upd.Age > 150 {
			return nil, fmt.Errorf("invalid age: %d", *upd.Age)
		}
		u.Age = upd.Age
	}
	if upd.Phone != nil {
		u.Phone = upd.Phone
	}
	if upd.Address != nil {
		u.Address = upd.Address
	}
	if upd.ProfilePic != nil {
		u.ProfilePic = upd.ProfilePic
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ContactByID resolves a user id to their name and email. Used by the
// reminder scheduler and the notification sweep.
func (s *Service) ContactByID(ctx context.Context, userID string) (string, string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", "", fmt.Errorf("invalid user id: %s", userID)
	}
	u, err := s.Profile(ctx, id)
	if err != nil {
		return "", "", err
	}
	return u.Name, u.Email, nil
}

// RoleByID resolves a user id to their stored role, so privileged routes
// check current permissions rather than the role minted into the token.
func (s *Service) RoleByID(ctx context.Context, userID string) (string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", fmt.Errorf("invalid user id: %s", userID)
	}
	u, err := s.Profile(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}
