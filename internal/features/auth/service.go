package auth

import (
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/forumhub/forum-server-go/internal/features/user"
	"github.com/forumhub/forum-server-go/pkg/types"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service implements registration and credential checks.
type Service struct {
	db *gorm.DB
}

// NewService constructs an auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Register validates the submission and creates the account.
func (s *Service) Register(name, email, password string) (*user.User, error) {
	fieldErrors := types.FieldErrors{}

	if strings.TrimSpace(name) == "" {
		fieldErrors["name"] = "Name can't be blank"
	}

	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		fieldErrors["email"] = "Email is invalid"
	}

	if len(password) < minPasswordLength {
		fieldErrors["password"] = "Password is too short (minimum is 8 characters)"
	}

	if len(fieldErrors) > 0 {
		return nil, fieldErrors
	}

	created, err := user.Create(s.db, name, email, password)
	if err != nil {
		if err == user.ErrEmailExists {
			return nil, types.FieldErrors{"email": "Email has already been taken"}
		}
		return nil, err
	}

	return created, nil
}

// Authenticate checks the credentials and returns the account. A missing
// account and a wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(email, password string) (*user.User, error) {
	account, err := user.GetByEmail(s.db, email)
	if err != nil {
		if err == user.ErrUserNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !account.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}
