package directors

import (
	"errors"

	"shopfront/src/auth"

	"go.uber.org/zap"
)

type UserService struct {
	store   *auth.UserStore
	factory auth.UserFactory
	logger  *zap.SugaredLogger
}

func NewUserService(store *auth.UserStore, factory auth.UserFactory, logger *zap.SugaredLogger) *UserService {
	service := &UserService{
		store:   store,
		factory: factory,
		logger:  logger,
	}

	logger.Infof("User service loaded %d users", store.Count())
	return service
}

func (s *UserService) AddUser(userName string, password string) error {
	return s.store.AddUser(*s.factory.NewUserStruct(userName, password))
}

// EnsureUser adds the user, or resets its password when it already exists.
func (s *UserService) EnsureUser(userName string, password string) error {
	err := s.AddUser(userName, password)
	if errors.Is(err, auth.ErrUserAlreadyExists) {
		return s.UpdateUser(userName, password)
	}
	return err
}

func (s *UserService) GetUserByName(userName string) (*auth.User, error) {
	return s.store.GetUser(userName)
}

func (s *UserService) GetAllUsers() []string {
	return s.store.ListUsers()
}

func (s *UserService) UpdateUser(userName string, password string) error {
	return s.store.UpdateUser(*s.factory.NewUserStruct(userName, password))
}

func (s *UserService) DeleteUser(userName string) error {
	return s.store.RemoveUser(userName)
}

// Authenticate reports whether the credentials match a stored user.
func (s *UserService) Authenticate(userName, password string) bool {
	ok, _, err := s.store.VerifyCredentials(userName, password)
	if err != nil {
		s.logger.Warnw("Credential check failed", "user", userName, "error", err)
		return false
	}
	return ok
}
