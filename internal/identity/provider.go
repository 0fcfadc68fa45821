// Package identity resolves the acting user for every core operation.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatcore/internal/domain"
	"chatcore/internal/security"
)

// Provider verifies credentials and maps bearer tokens to users.
type Provider struct {
	users  domain.UserRepository
	tokens *security.TokenService
	hash   *security.PasswordHasher
}

func NewProvider(users domain.UserRepository, tokens *security.TokenService, hash *security.PasswordHasher) *Provider {
	return &Provider{
		users:  users,
		tokens: tokens,
		hash:   hash,
	}
}

type Session struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *domain.User
}

type NewUser struct {
	Username  string
	Password  string
	FullName  string
	Email     *string
	AvatarURL string
}

// CurrentUser resolves the user a token was issued for. Any failure,
// including an inactive account, is reported as ErrUnauthenticated.
func (p *Provider) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("missing token: %w", domain.ErrUnauthenticated)
	}
	id, err := p.tokens.Subject(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	user, err := p.users.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("user %d gone: %w", id, domain.ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.Status != domain.UserStatusActive {
		return nil, fmt.Errorf("user %d is %s: %w", id, user.Status, domain.ErrUnauthenticated)
	}
	return user, nil
}

func (p *Provider) VerifyCredentials(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := p.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("incorrect username or password: %w", domain.ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := p.hash.Verify(password, user.HashedPassword); err != nil {
		return nil, fmt.Errorf("incorrect username or password: %w", domain.ErrUnauthenticated)
	}
	if user.Status != domain.UserStatusActive {
		return nil, fmt.Errorf("user account is %s: %w", strings.ToLower(string(user.Status)), domain.ErrUnauthenticated)
	}
	return user, nil
}

func (p *Provider) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := p.VerifyCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}
	token, exp, err := p.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return &Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   exp,
		User:        user,
	}, nil
}

// CreateUser provisions an active account. It backs the CLI only.
func (p *Provider) CreateUser(ctx context.Context, in NewUser) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", domain.ErrInvalidArgument)
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) == "" {
		in.Email = nil
	}

	hashed, err := p.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Username:       in.Username,
		Email:          in.Email,
		FullName:       strings.TrimSpace(in.FullName),
		AvatarURL:      in.AvatarURL,
		HashedPassword: hashed,
		Status:         domain.UserStatusActive,
	}
	if err := p.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
