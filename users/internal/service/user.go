package service

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/compass-ms/usernotify/shared/domain"
	internal_errors "github.com/compass-ms/usernotify/shared/errors"
	"github.com/compass-ms/usernotify/shared/events"
	"github.com/compass-ms/usernotify/shared/logger"
)

type UserService interface {
	Register(username, email, password string, address domain.Address) (domain.User, error)
	Login(email, password string) (string, error)
	UpdatePassword(actor *domain.User, username, oldPassword, newPassword string) error
	Users() ([]domain.User, error)
	UserByEmail(email string) (domain.User, error)
}

type UserStorage interface {
	SaveUser(user domain.User) (domain.UserId, error)
	UserByEmail(email string) (domain.User, error)
	UserByUsername(username string) (domain.User, error)
	Users() ([]domain.User, error)
	UpdatePassword(username, newPassHash string) error
}

type Jwt interface {
	NewToken(subject string) (string, error)
}

// Publisher announces lifecycle events. Delivery is best-effort; the
// implementation absorbs failures, so there is no error to handle here.
type Publisher interface {
	Publish(e events.UserEvent)
}

type User struct {
	storage   UserStorage
	jwt       Jwt
	publisher Publisher
}

func NewUser(storage UserStorage, jwt Jwt, publisher Publisher) *User {
	return &User{storage: storage, jwt: jwt, publisher: publisher}
}

// Register stores a new account with a bcrypt credential hash and announces a
// CREATE event. The account is created even if the announcement fails.
func (s *User) Register(username, email, password string, address domain.Address) (domain.User, error) {
	email = strings.ToLower(email)

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return domain.User{}, err
	}

	user := domain.User{
		Username: username,
		Email:    email,
		PassHash: string(passHash),
		Address:  address,
	}
	id, err := s.storage.SaveUser(user)
	if err != nil {
		return domain.User{}, err
	}
	user.Id = id

	s.publisher.Publish(events.NewCreated(username))
	return user, nil
}

// Login verifies credentials and returns a signed token bound to the account
// email. Unknown email and wrong password are indistinguishable to the caller.
func (s *User) Login(email, password string) (string, error) {
	email = strings.ToLower(email)

	user, err := s.storage.UserByEmail(email)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return "", internal_errors.Unauthorized()
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(password)); err != nil {
		return "", internal_errors.Unauthorized()
	}

	token, err := s.jwt.NewToken(user.Email)
	if err != nil {
		logger.Log.Error("failed to create token", "user_id", user.Id, "error", err)
		return "", err
	}
	return token, nil
}

// UpdatePassword lets the authenticated owner of an account change its
// password after re-proving the old one. Checks short-circuit in order:
// authentication, target existence, ownership, old credential.
func (s *User) UpdatePassword(actor *domain.User, username, oldPassword, newPassword string) error {
	if actor == nil {
		return &internal_errors.ErrorWithStatusCode{Message: "Access denied", StatusCode: http.StatusForbidden}
	}

	target, err := s.storage.UserByUsername(username)
	if err != nil {
		return err
	}

	if actor.Email != target.Email {
		return &internal_errors.ErrorWithStatusCode{Message: "You can only change your own password", StatusCode: http.StatusForbidden}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(target.PassHash), []byte(oldPassword)); err != nil {
		return &internal_errors.ErrorWithStatusCode{Message: "Old password incorrect", StatusCode: http.StatusBadRequest}
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return err
	}
	if err := s.storage.UpdatePassword(username, string(newHash)); err != nil {
		return err
	}

	s.publisher.Publish(events.NewUpdated(username, actor.Email))
	return nil
}

func (s *User) Users() ([]domain.User, error) {
	return s.storage.Users()
}

func (s *User) UserByEmail(email string) (domain.User, error) {
	return s.storage.UserByEmail(strings.ToLower(email))
}
