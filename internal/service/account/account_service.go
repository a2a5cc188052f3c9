package account

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/Domenick1991/tourbooking/config"
	"github.com/Domenick1991/tourbooking/internal/auth"
	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/repository"
	"github.com/Domenick1991/tourbooking/internal/tasks"
	"go.uber.org/zap"
)

type AccountUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	CheckAuth(ctx context.Context, actor domain.Principal) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type TokenIssuer interface {
	Issue(userID int64, role domain.Role) (string, error)
}

type ResetQueue interface {
	EnqueuePasswordReset(ctx context.Context, p tasks.PasswordResetPayload, ttl time.Duration) error
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string             `json:"token"`
	User  domain.UserSummary `json:"user"`
}

type AccountService struct {
	users    repository.UserRepository
	tokens   TokenIssuer
	resets   ResetQueue
	cfg      config.AuthConfig
	logger   *zap.Logger
	now      func() time.Time
	nextCode func() (string, error)
}

func NewAccountService(users repository.UserRepository, tokens TokenIssuer, resets ResetQueue, cfg config.AuthConfig, logger *zap.Logger) *AccountService {
	return &AccountService{
		users:    users,
		tokens:   tokens,
		resets:   resets,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		nextCode: resetCode,
	}
}

func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, domain.Validationf("name, email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Validationf("invalid email address")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.Conflictf("email already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.cfg.PasswordCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Name: name, Email: email, PasswordHash: hash, Role: domain.RoleUser}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorizedf("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, domain.Unauthorizedf("invalid email or password")
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token: token,
		User:  domain.UserSummary{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role},
	}, nil
}

func (s *AccountService) CheckAuth(ctx context.Context, actor domain.Principal) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorizedf("account no longer exists")
	}
	return user, err
}

// ForgotPassword stores a fresh six digit code and queues the e-mail that
// carries it. A previous code stops working.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	code, err := s.nextCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	if err := s.users.SetResetCode(ctx, user.ID, code, s.now().Add(s.cfg.ResetCodeTTL)); err != nil {
		return err
	}

	err = s.resets.EnqueuePasswordReset(ctx, tasks.PasswordResetPayload{
		Email:    user.Email,
		Name:     user.Name,
		Code:     code,
		ResetURL: s.cfg.ClientResetURL,
	}, s.cfg.ResetCodeTTL)
	if err != nil {
		return err
	}

	s.logger.Info("password reset requested", zap.Int64("user_id", user.ID))
	return nil
}

func (s *AccountService) VerifyResetCode(ctx context.Context, email, code string) error {
	_, err := s.userWithValidCode(ctx, email, code)
	return err
}

func (s *AccountService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return domain.Validationf("new password is required")
	}
	user, err := s.userWithValidCode(ctx, email, code)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.cfg.PasswordCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	s.logger.Info("password reset completed", zap.Int64("user_id", user.ID))
	return nil
}

func (s *AccountService) userWithValidCode(ctx context.Context, email, code string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user.ResetCode == "" || code == "" ||
		subtle.ConstantTimeCompare([]byte(user.ResetCode), []byte(strings.TrimSpace(code))) != 1 {
		return nil, domain.Validationf("invalid reset code")
	}
	if user.ResetCodeExpiry == nil || s.now().After(*user.ResetCodeExpiry) {
		return nil, domain.Validationf("reset code has expired")
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func resetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

var _ AccountUseCase = (*AccountService)(nil)
