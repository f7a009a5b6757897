package service

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/compass-ms/usernotify/shared/domain"
	internal_errors "github.com/compass-ms/usernotify/shared/errors"
	"github.com/compass-ms/usernotify/shared/events"
)

// --- Mocks ---

type MockUserStorage struct {
	SaveUserFunc       func(user domain.User) (domain.UserId, error)
	UserByEmailFunc    func(email string) (domain.User, error)
	UserByUsernameFunc func(username string) (domain.User, error)
	UsersFunc          func() ([]domain.User, error)
	UpdatePasswordFunc func(username, newPassHash string) error
}

func (m *MockUserStorage) SaveUser(user domain.User) (domain.UserId, error) {
	if m.SaveUserFunc != nil {
		return m.SaveUserFunc(user)
	}
	return 1, nil
}

func (m *MockUserStorage) UserByEmail(email string) (domain.User, error) {
	if m.UserByEmailFunc != nil {
		return m.UserByEmailFunc(email)
	}
	passHash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	return domain.User{Id: 1, Username: "alice", Email: email, PassHash: string(passHash)}, nil
}

func (m *MockUserStorage) UserByUsername(username string) (domain.User, error) {
	if m.UserByUsernameFunc != nil {
		return m.UserByUsernameFunc(username)
	}
	passHash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	return domain.User{Id: 1, Username: username, Email: "alice@example.com", PassHash: string(passHash)}, nil
}

func (m *MockUserStorage) Users() ([]domain.User, error) {
	if m.UsersFunc != nil {
		return m.UsersFunc()
	}
	return nil, nil
}

func (m *MockUserStorage) UpdatePassword(username, newPassHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(username, newPassHash)
	}
	return nil
}

type MockJwt struct {
	NewTokenFunc func(subject string) (string, error)
}

func (m *MockJwt) NewToken(subject string) (string, error) {
	if m.NewTokenFunc != nil {
		return m.NewTokenFunc(subject)
	}
	return "token", nil
}

type MockPublisher struct {
	published []events.UserEvent
}

func (m *MockPublisher) Publish(e events.UserEvent) {
	m.published = append(m.published, e)
}

func notFound() error {
	return &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
}

// --- Register ---

func TestRegister(t *testing.T) {
	t.Run("hashes the password and publishes CREATE", func(t *testing.T) {
		var saved domain.User
		storage := &MockUserStorage{
			SaveUserFunc: func(user domain.User) (domain.UserId, error) {
				saved = user
				return 42, nil
			},
		}
		publisher := &MockPublisher{}
		s := NewUser(storage, &MockJwt{}, publisher)

		user, err := s.Register("alice", "A@X.com", "pw1", domain.Address{City: "São Paulo"})
		require.NoError(t, err)

		assert.Equal(t, int64(42), user.Id)
		assert.Equal(t, "a@x.com", saved.Email, "email must be stored lowercased")
		assert.NotEqual(t, "pw1", saved.PassHash, "plaintext password must never be stored")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.PassHash), []byte("pw1")))

		require.Len(t, publisher.published, 1)
		assert.Equal(t, events.OpCreate, publisher.published[0].Operation)
		assert.Equal(t, "alice", publisher.published[0].Username)
		assert.Empty(t, publisher.published[0].PerformedBy)
	})

	t.Run("storage conflict propagates, no event published", func(t *testing.T) {
		storage := &MockUserStorage{
			SaveUserFunc: func(user domain.User) (domain.UserId, error) {
				return -1, &internal_errors.ErrorWithStatusCode{Message: "taken", StatusCode: http.StatusConflict}
			},
		}
		publisher := &MockPublisher{}
		s := NewUser(storage, &MockJwt{}, publisher)

		_, err := s.Register("alice", "a@x.com", "pw1", domain.Address{})
		require.Error(t, err)
		assert.Empty(t, publisher.published)
	})
}

// --- Login ---

func TestLogin(t *testing.T) {
	t.Run("valid credentials return a token bound to the email", func(t *testing.T) {
		var subject string
		jwt := &MockJwt{NewTokenFunc: func(s string) (string, error) {
			subject = s
			return "signed", nil
		}}
		s := NewUser(&MockUserStorage{}, jwt, &MockPublisher{})

		token, err := s.Login("Alice@Example.com", "password")
		require.NoError(t, err)
		assert.Equal(t, "signed", token)
		assert.Equal(t, "alice@example.com", subject)
	})

	t.Run("unknown email and wrong password are the same 401", func(t *testing.T) {
		unknown := &MockUserStorage{
			UserByEmailFunc: func(string) (domain.User, error) { return domain.User{}, notFound() },
		}
		s := NewUser(unknown, &MockJwt{}, &MockPublisher{})
		_, errUnknown := s.Login("nobody@example.com", "password")

		s = NewUser(&MockUserStorage{}, &MockJwt{}, &MockPublisher{})
		_, errWrongPw := s.Login("alice@example.com", "wrong")

		for _, err := range []error{errUnknown, errWrongPw} {
			require.Error(t, err)
			e, ok := err.(*internal_errors.ErrorWithStatusCode)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, e.StatusCode)
			assert.Equal(t, "Invalid credentials", e.Message)
		}
	})

	t.Run("storage failure is not masked as unauthorized", func(t *testing.T) {
		broken := &MockUserStorage{
			UserByEmailFunc: func(string) (domain.User, error) { return domain.User{}, errors.New("db down") },
		}
		s := NewUser(broken, &MockJwt{}, &MockPublisher{})

		_, err := s.Login("alice@example.com", "password")
		require.Error(t, err)
		_, ok := err.(*internal_errors.ErrorWithStatusCode)
		assert.False(t, ok)
	})
}

// --- UpdatePassword ---

func TestUpdatePassword(t *testing.T) {
	owner := &domain.User{Id: 1, Username: "alice", Email: "alice@example.com"}

	t.Run("unauthenticated caller is denied", func(t *testing.T) {
		s := NewUser(&MockUserStorage{}, &MockJwt{}, &MockPublisher{})

		err := s.UpdatePassword(nil, "alice", "password", "new")
		require.Error(t, err)
		e, ok := err.(*internal_errors.ErrorWithStatusCode)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, e.StatusCode)
	})

	t.Run("unknown target is 404", func(t *testing.T) {
		storage := &MockUserStorage{
			UserByUsernameFunc: func(string) (domain.User, error) { return domain.User{}, notFound() },
		}
		s := NewUser(storage, &MockJwt{}, &MockPublisher{})

		err := s.UpdatePassword(owner, "ghost", "password", "new")
		require.Error(t, err)
		assert.True(t, internal_errors.IsNotFound(err))
	})

	t.Run("changing someone else's password is denied even with their password", func(t *testing.T) {
		intruder := &domain.User{Id: 2, Username: "mallory", Email: "mallory@example.com"}
		publisher := &MockPublisher{}
		s := NewUser(&MockUserStorage{}, &MockJwt{}, publisher)

		err := s.UpdatePassword(intruder, "alice", "password", "new")
		require.Error(t, err)
		e, ok := err.(*internal_errors.ErrorWithStatusCode)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, e.StatusCode)
		assert.Empty(t, publisher.published)
	})

	t.Run("wrong old password is a 400", func(t *testing.T) {
		s := NewUser(&MockUserStorage{}, &MockJwt{}, &MockPublisher{})

		err := s.UpdatePassword(owner, "alice", "wrong", "new")
		require.Error(t, err)
		e, ok := err.(*internal_errors.ErrorWithStatusCode)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, e.StatusCode)
	})

	t.Run("owner with correct old password updates the hash and publishes UPDATE", func(t *testing.T) {
		var storedHash string
		storage := &MockUserStorage{
			UpdatePasswordFunc: func(username, newPassHash string) error {
				storedHash = newPassHash
				return nil
			},
		}
		publisher := &MockPublisher{}
		s := NewUser(storage, &MockJwt{}, publisher)

		require.NoError(t, s.UpdatePassword(owner, "alice", "password", "X"))

		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("X")))
		assert.Error(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("password")))

		require.Len(t, publisher.published, 1)
		assert.Equal(t, events.OpUpdate, publisher.published[0].Operation)
		assert.Equal(t, "alice", publisher.published[0].Username)
		assert.Equal(t, "alice@example.com", publisher.published[0].PerformedBy)
	})

	t.Run("persistence failure suppresses the event", func(t *testing.T) {
		storage := &MockUserStorage{
			UpdatePasswordFunc: func(string, string) error { return errors.New("db down") },
		}
		publisher := &MockPublisher{}
		s := NewUser(storage, &MockJwt{}, publisher)

		err := s.UpdatePassword(owner, "alice", "password", "new")
		require.Error(t, err)
		assert.Empty(t, publisher.published)
	})
}
