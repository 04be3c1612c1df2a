package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vocab-manager/internal/domain"
	"vocab-manager/internal/repository"
)

// PasswordHasher is the credential primitive used by UserService.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(plain, hash string) bool
}

// RegisterInput carries the fields accepted on registration.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	Firstname string
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Username  *string
	Email     *string
	Firstname *string
	Avatar    *string
	Role      *domain.Role
	IsActive  *bool
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, actor *domain.User, id int64, upd UserUpdate) (*domain.User, error)
	SetActive(ctx context.Context, actor *domain.User, id int64, active bool) (*domain.User, error)
	Delete(ctx context.Context, actor *domain.User, id int64) error
	ChangePassword(ctx context.Context, actor *domain.User, id int64, current, next string) error
	SetRole(ctx context.Context, username string, role domain.Role) (*domain.User, error)
	EnsureAdmin(ctx context.Context, username, password, email string) (*domain.User, bool, error)
}

type userService struct {
	users  repository.UserRepository
	hasher PasswordHasher
}

func NewUserService(users repository.UserRepository, hasher PasswordHasher) UserService {
	return &userService{
		users:  users,
		hasher: hasher,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		Firstname:    strings.TrimSpace(in.Firstname),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		IsActive:     true,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) Update(ctx context.Context, actor *domain.User, id int64, upd UserUpdate) (*domain.User, error) {
	if !actor.IsAdmin() && actor.ID != id {
		return nil, domain.ErrForbidden
	}
	if (upd.Role != nil || upd.IsActive != nil) && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if upd.Role != nil && actor.ID == id && *upd.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: admins cannot remove their own admin role", domain.ErrForbidden)
	}
	if upd.IsActive != nil && actor.ID == id && !*upd.IsActive {
		return nil, fmt.Errorf("%w: admins cannot deactivate themselves", domain.ErrForbidden)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username must not be empty", domain.ErrInvalidInput)
		}
		user.Username = username
	}
	if upd.Email != nil {
		user.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.Firstname != nil {
		user.Firstname = strings.TrimSpace(*upd.Firstname)
	}
	if upd.Avatar != nil {
		user.Avatar = strings.TrimSpace(*upd.Avatar)
	}
	if upd.Role != nil {
		user.Role = *upd.Role
	}
	if upd.IsActive != nil {
		user.IsActive = *upd.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) SetActive(ctx context.Context, actor *domain.User, id int64, active bool) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if actor.ID == id && !active {
		return nil, fmt.Errorf("%w: admins cannot deactivate themselves", domain.ErrForbidden)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case active && user.IsActive:
		return nil, domain.ErrAlreadyActive
	case !active && !user.IsActive:
		return nil, domain.ErrAlreadyInactive
	}

	user.IsActive = active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if actor.ID == id {
		return fmt.Errorf("%w: admins cannot delete themselves", domain.ErrForbidden)
	}
	return s.users.Delete(ctx, id)
}

// ChangePassword requires the current password unless an Admin resets
// another user's password.
func (s *userService) ChangePassword(ctx context.Context, actor *domain.User, id int64, current, next string) error {
	if !actor.IsAdmin() && actor.ID != id {
		return domain.ErrForbidden
	}
	if next == "" {
		return fmt.Errorf("%w: new password is required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if actor.ID == id && !s.hasher.Verify(current, user.PasswordHash) {
		return fmt.Errorf("%w: current password is incorrect", domain.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

func (s *userService) SetRole(ctx context.Context, username string, role domain.Role) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// EnsureAdmin creates the account as Admin, or promotes and reactivates it
// when the username already exists. The boolean reports creation.
func (s *userService) EnsureAdmin(ctx context.Context, username, password, email string) (*domain.User, bool, error) {
	existing, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}
	if existing != nil {
		if existing.IsAdmin() && existing.IsActive {
			return sanitizeUser(existing), false, nil
		}
		existing.Role = domain.RoleAdmin
		existing.IsActive = true
		if err := s.users.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return sanitizeUser(existing), false, nil
	}

	user, err := s.Register(ctx, RegisterInput{Username: username, Password: password, Email: email})
	if err != nil {
		return nil, false, err
	}
	admin, err := s.SetRole(ctx, user.Username, domain.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	return admin, true, nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	return &clean
}
