// src/services/account_service.go
package services

import (
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/username/tradeops/backend/src/logger"
	"github.com/username/tradeops/backend/src/security"
)

// AccountService signs in the operator account configured for the console.
// The password is only kept as a bcrypt hash.
type AccountService struct {
	username     string
	passwordHash string
	auth         *security.AuthService
	mfa          *MFAService

	mu            sync.RWMutex
	mfaSecret     string
	pendingSecret string
}

// Session is what a successful login hands back to the client.
type Session struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
}

func NewAccountService(username, password, mfaSecret string, auth *security.AuthService, mfa *MFAService) (*AccountService, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("admin username and password are required")
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}
	return &AccountService{
		username:     username,
		passwordHash: hash,
		auth:         auth,
		mfa:          mfa,
		mfaSecret:    mfaSecret,
	}, nil
}

func (s *AccountService) MFAEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mfaSecret != ""
}

// Login checks the credentials and, once MFA is enabled, the TOTP code.
func (s *AccountService) Login(username, password, code string) (*Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	if err := security.CheckPassword(s.passwordHash, password); err != nil || !userOK {
		logger.L.Warn("Login failed", "username", username)
		return nil, ErrInvalidCredentials
	}

	s.mu.RLock()
	secret := s.mfaSecret
	s.mu.RUnlock()
	if secret != "" {
		if code == "" {
			return nil, ErrMFARequired
		}
		if !s.mfa.Verify(secret, code) {
			logger.L.Warn("Invalid MFA code on login", "username", username)
			return nil, ErrInvalidMFACode
		}
	}

	token, expires, err := s.auth.GenerateToken(s.username, security.RoleSuperAdmin)
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}
	logger.L.Info("Admin logged in", "username", s.username)
	return &Session{AccessToken: token, ExpiresAt: expires, Username: s.username, Role: security.RoleSuperAdmin}, nil
}

// SetupMFA creates a secret that becomes active once EnableMFA confirms it.
func (s *AccountService) SetupMFA() (secret, qrCodeBase64 string, err error) {
	enrollment, err := s.mfa.Enroll(s.username)
	if err != nil {
		return "", "", fmt.Errorf("generating mfa secret: %w", err)
	}
	s.mu.Lock()
	s.pendingSecret = enrollment.Secret
	s.mu.Unlock()
	return enrollment.Secret, enrollment.QRCode, nil
}

// EnableMFA activates the pending secret when code matches it.
func (s *AccountService) EnableMFA(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingSecret == "" || !s.mfa.Verify(s.pendingSecret, code) {
		return ErrInvalidMFACode
	}
	s.mfaSecret, s.pendingSecret = s.pendingSecret, ""
	logger.L.Info("MFA enabled", "username", s.username)
	return nil
}
