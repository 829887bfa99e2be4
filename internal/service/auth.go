package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/repository"
	"clan-rental-backend/internal/security"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minNicknameLength = 3
	minPasswordLength = 6
)

// localCredentials keeps bcrypt password hashes in the users table.
type localCredentials struct{}

func NewLocalCredentials() CredentialProvider {
	return localCredentials{}
}

func (localCredentials) CreateCredential(ctx context.Context, email, password string) (string, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return uuid.NewString(), string(hash), nil
}

// DeleteCredential has nothing to undo; the hash lives on the profile row.
func (localCredentials) DeleteCredential(ctx context.Context, uid string) error {
	return nil
}

type authService struct {
	tx       repository.Transactor
	userRepo repository.UserRepository
	creds    CredentialProvider
	verifier IDTokenVerifier
	tokens   security.TokenManager
}

// NewAuthService wires signup and login. verifier is nil unless Firebase
// login is enabled.
func NewAuthService(
	tx repository.Transactor,
	userRepo repository.UserRepository,
	creds CredentialProvider,
	verifier IDTokenVerifier,
	tokens security.TokenManager,
) AuthService {
	return &authService{
		tx:       tx,
		userRepo: userRepo,
		creds:    creds,
		verifier: verifier,
		tokens:   tokens,
	}
}

func normalizeNickname(nickname string) string {
	return strings.ToLower(strings.TrimSpace(nickname))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates the credential first, then reserves the nickname and stores
// the profile and role in one transaction. When that transaction fails the
// credential is removed again.
func (s *authService) Signup(ctx context.Context, in SignupInput) (*domain.User, *TokenPair, error) {
	logger.EnterMethod("authService.Signup", "nickname", in.Nickname)

	in.Email = normalizeEmail(in.Email)
	in.Nickname = normalizeNickname(in.Nickname)
	in.GameID = strings.TrimSpace(in.GameID)
	switch {
	case !strings.Contains(in.Email, "@"):
		return nil, nil, invalid("a valid email is required")
	case len(in.Password) < minPasswordLength:
		return nil, nil, invalid("password must be at least %d characters", minPasswordLength)
	case len(in.Nickname) < minNicknameLength:
		return nil, nil, invalid("nickname must be at least %d characters", minNicknameLength)
	case in.GameID == "":
		return nil, nil, invalid("game id is required")
	}

	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, nil, invalid("email is already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, err
	}

	uid, hash, err := s.creds.CreateCredential(ctx, in.Email, in.Password)
	if err != nil {
		logger.ExitMethodWithError("authService.Signup", err)
		return nil, nil, fmt.Errorf("create credential: %w", err)
	}

	user := &domain.User{
		UID:          uid,
		Email:        in.Email,
		PasswordHash: hash,
		GameNickname: in.Nickname,
		GameID:       in.GameID,
		ProfileURL:   strings.TrimSpace(in.ProfileURL),
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.userRepo.ReserveNickname(ctx, &domain.Nickname{Nickname: in.Nickname, UID: uid})
		if err != nil {
			return err
		}
		if !ok {
			return ErrNicknameTaken
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
		return s.userRepo.SetRole(ctx, uid, domain.RoleUser)
	})
	if err != nil {
		if delErr := s.creds.DeleteCredential(ctx, uid); delErr != nil {
			logger.ErrorContext(ctx, "Failed to roll back credential after signup failure", "uid", uid, "error", delErr)
		}
		logger.ExitMethodWithError("authService.Signup", err, "nickname", in.Nickname)
		return nil, nil, err
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	logger.ExitMethod("authService.Signup", "uid", uid)
	return user, pair, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if user.PasswordHash == "" {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// LoginWithFirebase exchanges a Firebase ID token for our own token pair.
func (s *authService) LoginWithFirebase(ctx context.Context, idToken string) (*domain.User, *TokenPair, error) {
	if s.verifier == nil {
		return nil, nil, invalid("firebase login is disabled")
	}
	uid, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		logger.WarnContext(ctx, "Firebase ID token rejected", "error", err)
		return nil, nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, nil, mapRepoErr(err, "profile")
	}
	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != security.TokenTypeRefresh {
		return nil, security.ErrWrongTokenType
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, security.ErrInvalidToken
		}
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

func (s *authService) NicknameAvailable(ctx context.Context, nickname string) (bool, error) {
	nickname = normalizeNickname(nickname)
	if len(nickname) < minNicknameLength {
		return false, invalid("nickname must be at least %d characters", minNicknameLength)
	}
	exists, err := s.userRepo.NicknameExists(ctx, nickname)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *authService) issueTokens(ctx context.Context, user *domain.User) (*TokenPair, error) {
	role, err := s.userRepo.GetRole(ctx, user.UID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		role = domain.RoleUser
	}
	access, err := s.tokens.GenerateAccessToken(user.UID, user.Email, user.GameNickname, []string{string(role)})
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.UID, user.Email)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
