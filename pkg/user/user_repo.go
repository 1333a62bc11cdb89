package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")

type Repo interface {
	CreateUser(ctx context.Context, user User) (string, error)
	GetUser(ctx context.Context, id string) (User, error)
}

type RepoImpl struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

func (u *RepoImpl) CreateUser(ctx context.Context, user User) (string, error) {
	query := `INSERT INTO app_user (id, email, display_name, created_at) VALUES ($1, $2, $3, $4)`
	_, err := u.db.ExecContext(ctx, query,
		user.Id,
		user.Email,
		user.DisplayName,
		user.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return "", fmt.Errorf("could not create user: %w", err)
	}
	return user.Id, nil
}

func (u *RepoImpl) GetUser(ctx context.Context, id string) (User, error) {
	query := `SELECT id, email, display_name FROM app_user WHERE id = $1`
	var user User
	err := u.db.QueryRowContext(ctx, query, id).Scan(
		&user.Id,
		&user.Email,
		&user.DisplayName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		log.Infof("user with id %s not found", id)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}
