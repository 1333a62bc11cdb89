package user

import (
	"context"
)

type StubUserRepository struct {
	data map[string]User
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{data: map[string]User{}}
}

func (s *StubUserRepository) CreateUser(ctx context.Context, user User) (string, error) {
	s.data[user.Id] = user
	return user.Id, nil
}

func (s *StubUserRepository) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := s.data[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *StubUserRepository) Reset() {
	s.data = map[string]User{}
}
