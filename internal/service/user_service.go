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
)

var ErrSelfModification = apperror.Validation("you cannot change or delete your own account here")

type CreateUserRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
}

// UserService is the admin-only user management. Every method checks the
// caller's role itself.
type UserService interface {
	GetAll(ctx context.Context, by Caller) ([]model.UserProfile, error)
	Create(ctx context.Context, req CreateUserRequest, by Caller) (*model.UserProfile, error)
	ToggleRole(ctx context.Context, id uuid.UUID, by Caller) (*model.UserProfile, error)
	Delete(ctx context.Context, id uuid.UUID, by Caller) error
}

type userService struct {
	userRepo repository.UserRepository
	wsHub    *ws.Hub
}

func NewUserService(userRepo repository.UserRepository, hub *ws.Hub) UserService {
	return &userService{userRepo: userRepo, wsHub: hub}
}

func (s *userService) GetAll(ctx context.Context, by Caller) ([]model.UserProfile, error) {
	if !by.IsAdmin() {
		return nil, ErrForbidden
	}
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, storeErr("list users", err, nil)
	}
	out := make([]model.UserProfile, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToProfile())
	}
	return out, nil
}

func (s *userService) Create(ctx context.Context, req CreateUserRequest, by Caller) (*model.UserProfile, error) {
	if !by.IsAdmin() {
		return nil, ErrForbidden
	}
	email := normalizeEmail(req.Email)
	if err := validCredentials(email, req.Password); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if !req.Role.Valid() {
		return nil, apperror.Validation("role must be admin or user")
	}

	user := &model.User{Email: email, Name: strings.TrimSpace(req.Name), Role: req.Role}
	user.CreatedBy = by.UserID
	user.UpdatedBy = by.UserID
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, storeErr("create user", err, nil)
	}

	p := user.ToProfile()
	s.wsHub.Publish(ws.Event{Type: ws.TopicUsers, Action: "created", Data: p, User: by.wsUser()})
	return &p, nil
}

func (s *userService) ToggleRole(ctx context.Context, id uuid.UUID, by Caller) (*model.UserProfile, error) {
	if !by.IsAdmin() {
		return nil, ErrForbidden
	}
	if id.String() == by.UserID {
		return nil, ErrSelfModification
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find user", err, ErrUserNotFound)
	}
	user.Role = user.Role.Toggled()
	if err := s.userRepo.UpdateRole(ctx, id, user.Role); err != nil {
		return nil, storeErr("update role", err, ErrUserNotFound)
	}

	p := user.ToProfile()
	s.wsHub.Publish(ws.Event{Type: ws.TopicUsers, Action: "role_changed", Data: p, User: by.wsUser()})
	return &p, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID, by Caller) error {
	if !by.IsAdmin() {
		return ErrForbidden
	}
	if id.String() == by.UserID {
		return ErrSelfModification
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return storeErr("delete user", err, ErrUserNotFound)
	}
	s.wsHub.Publish(ws.Event{Type: ws.TopicUsers, Action: "deleted", Data: map[string]string{"uid": id.String()}, User: by.wsUser()})
	return nil
}
