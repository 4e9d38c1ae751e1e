package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"go-label-ws/internal/apperror"
	"go-label-ws/internal/model"
	"go-label-ws/internal/repository"
	"go-label-ws/internal/ws"
	"go-label-ws/pkg/jwt"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "invalid email or password")
	ErrUserNotFound       = apperror.NotFound("user not found")
	ErrWrongPassword      = apperror.Validation("current password is incorrect")
	ErrEmailTaken         = apperror.Validation("email already registered")
	ErrWeakPassword       = apperror.Validation("password must be at least 6 characters")
	ErrInvalidEmail       = apperror.Validation("a valid email is required")
	ErrSessionExpired     = apperror.New(apperror.KindUnauthorized, "session expired")
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error
	// Authenticate checks a bearer token against the stored session version.
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type LoginResponse struct {
	Token string            `json:"token"`
	User  model.UserProfile `json:"user"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type authService struct {
	userRepo repository.UserRepository
	wsHub    *ws.Hub
}

func NewAuthService(userRepo repository.UserRepository, hub *ws.Hub) AuthService {
	return &authService{
		userRepo: userRepo,
		wsHub:    hub,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validCredentials(email, password string) error {
	if _, _, ok := strings.Cut(email, "@"); !ok || len(email) < 3 {
		return ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// startSession rotates the token version, so any earlier token stops working.
func (s *authService) startSession(ctx context.Context, user *model.User) (*LoginResponse, error) {
	version := uuid.NewString()
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, version); err != nil {
		return nil, storeErr("start session", err, nil)
	}
	user.TokenVersion = version

	token, err := jwt.GenerateToken(user.ID, user.Email, user.Name, string(user.Role), version)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}
	return &LoginResponse{Token: token, User: user.ToProfile()}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr("find user", err, nil)
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

// Register creates the profile. The very first account becomes admin.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if err := validCredentials(email, req.Password); err != nil {
		return nil, err
	}

	user := &model.User{Email: email, Name: strings.TrimSpace(req.Name)}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}
	if err := s.userRepo.Register(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, storeErr("register user", err, nil)
	}

	s.wsHub.Publish(ws.Event{Type: ws.TopicUsers, Action: "created", Data: user.ToProfile()})
	return s.startSession(ctx, user)
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr("find user", err, ErrUserNotFound)
	}
	p := user.ToProfile()
	return &p, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.UpdateTokenVersion(ctx, userID, uuid.NewString()); err != nil {
		return storeErr("end session", err, nil)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return storeErr("find user", err, ErrUserNotFound)
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return storeErr("update password", err, nil)
	}
	return s.Logout(ctx, user.ID)
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := jwt.ValidateToken(token)
	if err != nil {
		return nil, apperror.New(apperror.KindUnauthorized, err.Error())
	}
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, storeErr("find user", err, nil)
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionExpired
	}
	return user, nil
}
