// Package auth manages profile sign-up and sign-in: password accounts with
// bcrypt hashes, JWT sessions, emailed reset links and Google OAuth2.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/internal/notify"
	"github.com/abogadosonline/aoe-api/internal/prometheus"
	"github.com/abogadosonline/aoe-api/internal/repository"
	"github.com/abogadosonline/aoe-api/pkg/jwtutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("credenciales invalidas, verifica tu email y contrasena")
	ErrEmailTaken         = errors.New("este email ya esta registrado, intenta iniciar sesion")
	ErrPasswordMismatch   = errors.New("las contrasenas no coinciden")
	ErrInvalidResetToken  = errors.New("el enlace de recuperacion es invalido o ha expirado")
	ErrGoogleAccount      = errors.New("esta cuenta usa Google para iniciar sesion")
)

// Validator checks request payloads against their struct tags
type Validator interface {
	Validate(i interface{}) error
}

// RegisterInput is the sign-up form
type RegisterInput struct {
	FullName        string `json:"fullName" validate:"required,min=3,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// LoginInput is the sign-in form
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// ResetInput completes a password reset
type ResetInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Session is returned after a successful sign-in
type Session struct {
	Token   string         `json:"token"`
	Profile *model.Profile `json:"user"`
}

// Service implements the auth flows
type Service struct {
	profiles *repository.ProfileRepository
	jwt      *jwtutil.JWTUtil
	mailer   notify.Mailer
	validate Validator
	appURL   string
	google   *Google
	log      *zap.Logger
	cost     int
}

func NewService(profiles *repository.ProfileRepository, jwt *jwtutil.JWTUtil, mailer notify.Mailer,
	v Validator, appURL string, google *Google, log *zap.Logger) *Service {
	return &Service{
		profiles: profiles,
		jwt:      jwt,
		mailer:   mailer,
		validate: v,
		appURL:   strings.TrimRight(appURL, "/"),
		google:   google,
		log:      log,
		cost:     bcrypt.DefaultCost,
	}
}

// Google returns the OAuth provider, or nil when sign-in with Google is off
func (s *Service) Google() *Google { return s.google }

// Register creates a password profile with its FREE subscription and signs
// it in
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := s.validate.Validate(&in); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return nil, err
	}
	if in.Password != in.ConfirmPassword {
		prometheus.RecordAuthError("password_mismatch")
		return nil, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		prometheus.RecordAuthError("password_hash_failed")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	p := &model.Profile{
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		AuthProvider: model.ProviderPassword,
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			prometheus.RecordAuthError("email_already_exists")
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info("Profile registered", zap.String("user_id", p.ID))
	return s.session(p)
}

// Login checks a password and issues a session token
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := s.validate.Validate(&in); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return nil, err
	}

	p, err := s.profiles.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrProfileNotFound) {
		prometheus.RecordAuthError("user_not_found")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if p.PasswordHash == "" {
		prometheus.RecordAuthError("oauth_only_account")
		return nil, ErrGoogleAccount
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(in.Password)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return nil, ErrInvalidCredentials
	}

	s.log.Info("Profile logged in", zap.String("user_id", p.ID))
	return s.session(p)
}

func (s *Service) session(p *model.Profile) (*Session, error) {
	token, err := s.jwt.GenerateToken(p.ID, p.Email, string(p.Role))
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Session{Token: token, Profile: p}, nil
}

// ResetURL is the page that consumes a reset token
func (s *Service) ResetURL(token string) string {
	return s.appURL + "/auth/reset-password?token=" + url.QueryEscape(token)
}

// ForgotPassword emails a reset link when email belongs to a password
// profile. Unknown emails succeed silently so the endpoint cannot be used
// to enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	p, err := s.profiles.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrProfileNotFound) {
		s.log.Debug("Password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	if p.PasswordHash == "" {
		return nil
	}

	token, err := s.jwt.GenerateResetToken(p.ID, p.Email)
	if err != nil {
		return fmt.Errorf("failed to sign reset token: %w", err)
	}
	msg, err := notify.PasswordReset(p.Email, s.ResetURL(token))
	if err != nil {
		return err
	}
	if _, err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Warn("Failed to send password reset email", zap.String("user_id", p.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword stores a new password for the profile named by a valid
// reset token
func (s *Service) ResetPassword(ctx context.Context, in ResetInput) error {
	if err := s.validate.Validate(&in); err != nil {
		return err
	}
	claims, err := s.jwt.ValidateResetToken(in.Token)
	if err != nil {
		prometheus.RecordAuthError("invalid_reset_token")
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.profiles.UpdatePassword(ctx, claims.UserID, string(hash)); err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	s.log.Info("Password reset", zap.String("user_id", claims.UserID))
	return nil
}

// GoogleSignIn exchanges an authorization code and signs the Google
// account in, creating its profile on first use
func (s *Service) GoogleSignIn(ctx context.Context, code string) (*Session, error) {
	if s.google == nil {
		return nil, ErrGoogleDisabled
	}
	info, err := s.google.Exchange(ctx, code)
	if err != nil {
		prometheus.RecordAuthError("oauth_exchange_failed")
		return nil, err
	}

	p, err := s.profiles.GetByEmail(ctx, info.Email)
	if errors.Is(err, repository.ErrProfileNotFound) {
		p = &model.Profile{Email: info.Email, FullName: info.Name, AuthProvider: model.ProviderGoogle}
		if err := s.profiles.Create(ctx, p); err != nil {
			return nil, err
		}
		s.log.Info("Profile registered", zap.String("user_id", p.ID), zap.String("provider", model.ProviderGoogle))
	} else if err != nil {
		return nil, err
	}
	return s.session(p)
}
