package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/renewly/renewly/internal/auth/domain"
	"github.com/renewly/renewly/internal/auth/password"
	"github.com/renewly/renewly/internal/auth/token"
	"github.com/renewly/renewly/internal/clock"
	"github.com/renewly/renewly/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   authdomain.Repository
	issuer *token.Issuer
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   authdomain.Repository
	Issuer *token.Issuer
}

func NewService(p ServiceParam) authdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("auth.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		issuer: p.Issuer,
	}
}

func (s *Service) SignUp(ctx context.Context, req authdomain.SignUpRequest) (*authdomain.AuthResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, authdomain.ErrInvalidEmail
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, authdomain.ErrWeakPassword
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &authdomain.User{
		ID:           s.genID.Generate(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Existence check and insert share one transaction so two concurrent
	// sign-ups for the same address cannot both pass the check.
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return authdomain.ErrUserExists
		}
		return s.repo.Insert(ctx, tx, user)
	}); err != nil {
		// Losing the unique-index race is the same outcome as failing
		// the existence check.
		if db.IsDuplicateKeyErr(err) {
			return nil, authdomain.ErrUserExists
		}
		return nil, err
	}

	signed, expiresAt, err := s.issuer.Issue(user.ID, now)
	if err != nil {
		return nil, err
	}

	s.log.Info("user signed up", zap.String("user_id", user.ID.String()))

	return &authdomain.AuthResult{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func (s *Service) SignIn(ctx context.Context, req authdomain.SignInRequest) (*authdomain.AuthResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, authdomain.ErrInvalidEmail
	}

	user, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, authdomain.ErrUserNotFound
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		return nil, authdomain.ErrInvalidCredentials
	}

	signed, expiresAt, err := s.issuer.Issue(user.ID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	return &authdomain.AuthResult{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*authdomain.User, error) {
	raw := strings.TrimSpace(rawToken)
	if raw == "" {
		return nil, authdomain.ErrInvalidToken
	}

	userID, err := s.issuer.Parse(raw)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, authdomain.ErrInvalidToken
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id snowflake.ID) (*authdomain.User, error) {
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, authdomain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]authdomain.User, error) {
	return s.repo.List(ctx, s.db)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", authdomain.ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", authdomain.ErrInvalidEmail
	}
	return email, nil
}
