package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages accounts allowed to read contact messages.
type UserService interface {
	// Create stores a new user with a bcrypt-hashed password.
	// A duplicate username yields repository.ErrUsernameTaken.
	Create(ctx context.Context, username, password string) (*model.User, error)
	// Get and GetByUsername return repository.ErrNotFound when absent.
	Get(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// CheckCredentials returns the user id or ErrInvalidCredentials.
	CheckCredentials(ctx context.Context, username, password string) (int64, error)
}

type userServiceImpl struct {
	repo repository.UserRepository
	cost int
}

// NewUserService creates a UserService backed by repo.
func NewUserService(repo repository.UserRepository) UserService {
	return &userServiceImpl{repo: repo, cost: bcrypt.DefaultCost}
}

// ErrEmptyCredentials is returned by Create when username or password is blank.
var ErrEmptyCredentials = errors.New("username and password are required")

func (s *userServiceImpl) Create(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	u := &model.User{Username: username, Password: string(hash)}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userServiceImpl) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *userServiceImpl) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.FindByUsername(ctx, strings.TrimSpace(username))
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// CheckCredentials compares against a dummy hash when the user is unknown so
// both failure paths cost one bcrypt comparison.
func (s *userServiceImpl) CheckCredentials(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, ErrInvalidCredentials
	}

	u, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		dummyHashOnce.Do(func() {
			dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), s.cost)
		})
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return 0, ErrInvalidCredentials
	}
	if err != nil {
		return 0, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}
	return u.ID, nil
}
