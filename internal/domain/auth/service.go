package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pquerna/otp/totp"

	"absensi/internal/domain/access"
	cryptoutil "absensi/internal/platform/crypto"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMFARequired        = errors.New("mfa code required")
	ErrMFAInvalid         = errors.New("invalid mfa code")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNoSession          = errors.New("no session")
)

type Service struct {
	store    *Store
	verifier *Verifier
	hub      *Hub
	crypto   *cryptoutil.Service
	secret   string
	ttl      time.Duration
}

func NewService(store *Store, verifier *Verifier, hub *Hub, crypto *cryptoutil.Service, secret string, ttl time.Duration) *Service {
	return &Service{store: store, verifier: verifier, hub: hub, crypto: crypto, secret: secret, ttl: ttl}
}

func (s *Service) Hub() *Hub {
	return s.hub
}

type LoginResult struct {
	Token   string
	Session access.Session
}

type Registration struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

func (s *Service) Login(ctx context.Context, email, password, mfaCode, deviceID string) (LoginResult, error) {
	creds, err := s.store.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}
	if creds.Status != UserStatusActive {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := CheckPassword(creds.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if creds.MFAEnabled {
		if strings.TrimSpace(mfaCode) == "" {
			return LoginResult{}, ErrMFARequired
		}
		secret, err := s.crypto.DecryptString(creds.MFASecretEnc)
		if err != nil || secret == "" || !totp.Validate(strings.TrimSpace(mfaCode), secret) {
			return LoginResult{}, ErrMFAInvalid
		}
	}

	result, err := s.startSession(ctx, creds.ID, deviceID)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, creds.ID); err != nil {
		slog.Warn("update last_login failed", "userId", creds.ID, "err", err)
	}
	s.hub.Publish(deviceID, result.Session)
	return result, nil
}

func (s *Service) startSession(ctx context.Context, userID, deviceID string) (LoginResult, error) {
	sessionID, err := NewSessionID()
	if err != nil {
		return LoginResult{}, fmt.Errorf("new session id: %w", err)
	}
	expires := time.Now().Add(s.ttl)
	if err := s.store.CreateSession(ctx, userID, HashToken(sessionID), deviceID, expires); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}
	token, err := GenerateToken(s.secret, Claims{UserID: userID, SessionID: sessionID}, s.ttl)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	return LoginResult{
		Token:   token,
		Session: access.Session{PrincipalID: userID, SessionID: sessionID, ExpiresAt: expires},
	}, nil
}

// Register creates an employee account. New accounts always start with the
// employee role; only an administrator can promote them.
func (s *Service) Register(ctx context.Context, reg Registration) (string, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("invalid email: %w", err)
	}
	if strings.TrimSpace(reg.Name) == "" {
		return "", errors.New("name is required")
	}
	if err := ValidatePassword(reg.Password); err != nil {
		return "", err
	}
	exists, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return "", ErrEmailTaken
	}
	hash, err := HashPassword(reg.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return s.store.CreateAccount(ctx, NewAccount{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(reg.Name),
		Phone:        strings.TrimSpace(reg.Phone),
		Role:         string(access.RoleEmployee),
	})
}

// Authenticate turns a bearer token into a session. Any failure is reported
// as an error; callers treat that as no session.
func (s *Service) Authenticate(ctx context.Context, token string) (access.Session, error) {
	if strings.TrimSpace(token) == "" {
		return access.Session{}, nil
	}
	claims, err := s.verifier.Parse(token)
	if err != nil {
		return access.Session{}, fmt.Errorf("parse token: %w", err)
	}

	if claims.Issuer != Issuer {
		var expires time.Time
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.Time
		}
		return access.Session{PrincipalID: claims.Principal(), SessionID: claims.ID, ExpiresAt: expires}, nil
	}

	row, err := s.store.LookupSession(ctx, HashToken(claims.SessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return access.Session{}, ErrNoSession
		}
		return access.Session{}, fmt.Errorf("lookup session: %w", err)
	}
	if row.UserID != claims.UserID {
		return access.Session{}, ErrNoSession
	}
	return access.Session{PrincipalID: row.UserID, SessionID: claims.SessionID, ExpiresAt: row.ExpiresAt}, nil
}

func (s *Service) Logout(ctx context.Context, token, deviceID string) error {
	defer s.hub.Publish(deviceID, access.Session{})
	if token == "" {
		return nil
	}
	claims, err := s.verifier.Parse(token)
	if err != nil || claims.Issuer != Issuer {
		return nil
	}
	revokedDevice, err := s.store.RevokeSession(ctx, HashToken(claims.SessionID))
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if revokedDevice != "" && revokedDevice != deviceID {
		s.hub.Publish(revokedDevice, access.Session{})
	}
	return nil
}

// Refresh rotates a live local session and extends its expiry.
func (s *Service) Refresh(ctx context.Context, token, deviceID string) (LoginResult, error) {
	claims, err := s.verifier.Parse(token)
	if err != nil || claims.Issuer != Issuer {
		return LoginResult{}, ErrNoSession
	}
	sessionID, err := NewSessionID()
	if err != nil {
		return LoginResult{}, fmt.Errorf("new session id: %w", err)
	}
	expires := time.Now().Add(s.ttl)
	if err := s.store.RotateSession(ctx, HashToken(claims.SessionID), HashToken(sessionID), expires); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginResult{}, ErrNoSession
		}
		return LoginResult{}, fmt.Errorf("rotate session: %w", err)
	}
	signed, err := GenerateToken(s.secret, Claims{UserID: claims.UserID, SessionID: sessionID}, s.ttl)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	result := LoginResult{
		Token:   signed,
		Session: access.Session{PrincipalID: claims.UserID, SessionID: sessionID, ExpiresAt: expires},
	}
	s.hub.Publish(deviceID, result.Session)
	return result, nil
}

// RevokeUser signs a user out everywhere, e.g. after deletion or
// deactivation by an administrator.
func (s *Service) RevokeUser(ctx context.Context, userID string) error {
	devices, err := s.store.RevokeUserSessions(ctx, userID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	for _, deviceID := range devices {
		s.hub.Publish(deviceID, access.Session{})
	}
	return nil
}

func (s *Service) SetUserStatus(ctx context.Context, userID, status string) error {
	if err := s.store.SetUserStatus(ctx, userID, status); err != nil {
		return err
	}
	if status != UserStatusActive {
		return s.RevokeUser(ctx, userID)
	}
	return nil
}

type MFASetup struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauthUrl"`
}

func (s *Service) SetupMFA(ctx context.Context, userID, accountName string) (MFASetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "Absensi", AccountName: accountName})
	if err != nil {
		return MFASetup{}, fmt.Errorf("generate totp: %w", err)
	}
	enc, err := s.crypto.EncryptString(key.Secret())
	if err != nil {
		return MFASetup{}, fmt.Errorf("encrypt secret: %w", err)
	}
	if err := s.store.UpdateMFASecret(ctx, userID, enc); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: key.Secret(), URL: key.URL()}, nil
}

func (s *Service) EnableMFA(ctx context.Context, userID, code string) error {
	enc, err := s.store.GetMFASecret(ctx, userID)
	if err != nil {
		return err
	}
	secret, err := s.crypto.DecryptString(enc)
	if err != nil || secret == "" {
		return ErrMFAInvalid
	}
	if !totp.Validate(strings.TrimSpace(code), secret) {
		return ErrMFAInvalid
	}
	return s.store.SetMFAEnabled(ctx, userID, true)
}
