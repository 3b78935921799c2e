package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/accountd/apiserver/internal/store"
	"github.com/accountd/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultPasswordCost = bcrypt.DefaultCost
	// bcrypt only consumes the first 72 bytes of its input.
	maxPasswordBytes = 72
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByID(ctx context.Context, id int) (types.User, error)
	FindByEmail(ctx context.Context, email string) (types.User, error)
	FindByEmailExcludingID(ctx context.Context, email string, id int) (types.User, error)
	ListAll(ctx context.Context) ([]types.User, error)
	Insert(ctx context.Context, user types.User) (types.User, error)
	UpdateByID(ctx context.Context, id int, changes types.UserChanges) error
	DeleteByID(ctx context.Context, id int) error
}

// CreateUserInput holds the plaintext fields of a registration.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateUserInput holds the fields of an account update.
// A nil Name keeps the stored name.
type UpdateUserInput struct {
	Name        *string
	Email       string
	OldPassword string
	NewPassword string
}

// UserService encapsulates user account use-cases.
type UserService struct {
	repo         UserRepository
	events       EventPublisher
	logger       *slog.Logger
	passwordCost int
}

// Option customizes a UserService.
type Option func(*UserService)

// WithPasswordCost sets the bcrypt cost. Values outside bcrypt's range are ignored.
func WithPasswordCost(cost int) Option {
	return func(s *UserService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.passwordCost = cost
		}
	}
}

// WithEventPublisher installs a publisher notified after each successful mutation.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *UserService) {
		s.events = p
	}
}

// WithLogger sets the logger used for best-effort event failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *UserService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewUserService builds a UserService with bcrypt.DefaultCost and slog.Default.
func NewUserService(repo UserRepository, opts ...Option) *UserService {
	s := &UserService{
		repo:         repo,
		logger:       slog.Default(),
		passwordCost: defaultPasswordCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new user. The email uniqueness check runs before the
// presence checks so that error messages stay deterministic.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (types.User, error) {
	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return types.User{}, ErrEmailInUse
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, storeError("find user by email", err)
	}

	switch {
	case in.Name == "":
		return types.User{}, ErrNameRequired
	case in.Email == "":
		return types.User{}, ErrEmailRequired
	case in.Password == "":
		return types.User{}, ErrPasswordRequired
	case len(in.Password) > maxPasswordBytes:
		return types.User{}, ErrPasswordTooLong
	}

	hashed, err := s.hashPassword(in.Password)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Insert(ctx, types.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return types.User{}, ErrEmailInUse
		}
		return types.User{}, storeError("insert user", err)
	}

	s.publish(ctx, newUserEvent(EventUserCreated, user.ID, user.Name, user.Email))
	return user, nil
}

// List returns every registered user. An empty table is reported as ErrNoUsers.
func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	users, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, storeError("list users", err)
	}
	if len(users) == 0 {
		return nil, ErrNoUsers
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int) (types.User, error) {
	return s.findByID(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	user, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return storeError("delete user", err)
	}

	s.publish(ctx, newUserEvent(EventUserDeleted, user.ID, user.Name, user.Email))
	return nil
}

// Update changes a user's name and email and rotates the password.
// The old password must match the stored hash and the new one must differ from it.
func (s *UserService) Update(ctx context.Context, id int, in UpdateUserInput) error {
	user, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}

	if in.Email == "" {
		return ErrEmailRequired
	}

	if _, err := s.repo.FindByEmailExcludingID(ctx, in.Email, id); err == nil {
		return ErrEmailInUse
	} else if !errors.Is(err, store.ErrNotFound) {
		return storeError("find user by email", err)
	}

	if in.OldPassword == "" {
		return ErrOldPasswordRequired
	}
	if in.NewPassword == "" {
		return ErrNewPasswordRequired
	}
	if len(in.NewPassword) > maxPasswordBytes {
		return ErrPasswordTooLong
	}

	oldMatches, err := passwordMatches(user.PasswordHash, in.OldPassword)
	if err != nil {
		return err
	}
	if !oldMatches {
		return ErrIncorrectPassword
	}

	newMatches, err := passwordMatches(user.PasswordHash, in.NewPassword)
	if err != nil {
		return err
	}
	if newMatches {
		return ErrPasswordUnchanged
	}

	hashed, err := s.hashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	changes := types.UserChanges{
		Name:         user.Name,
		Email:        in.Email,
		PasswordHash: hashed,
	}
	if in.Name != nil {
		changes.Name = *in.Name
	}

	if err := s.repo.UpdateByID(ctx, id, changes); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return ErrUserNotFound
		case errors.Is(err, store.ErrEmailTaken):
			return ErrEmailInUse
		}
		return storeError("update user", err)
	}

	s.publish(ctx, newUserEvent(EventUserUpdated, id, changes.Name, changes.Email))
	return nil
}

func (s *UserService) findByID(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUserNotFound
		}
		return types.User{}, storeError("find user by id", err)
	}
	return user, nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func passwordMatches(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}

func (s *UserService) publish(ctx context.Context, event UserEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishUserEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish user event failed",
			slog.String("type", event.Type),
			slog.Int("user_id", event.Data.ID),
			slog.Any("error", err),
		)
	}
}
