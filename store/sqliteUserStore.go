package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"civicsync-issues/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SQLiteUserStore struct {
	db   *sql.DB
	opts options
}

func NewSQLiteUserStore(db *sql.DB, opts ...Option) *SQLiteUserStore {
	return &SQLiteUserStore{db: db, opts: newOptions(opts)}
}

func (s *SQLiteUserStore) CreateUser(ctx context.Context, u *models.User) error {
	if _, err := s.FindUserByEmail(ctx, u.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	id := primitive.NewObjectID()
	now := s.opts.stamp()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id.Hex(), u.Username, u.Email, u.Password, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrEmailTaken
		}
		return storageErr("insert user", err)
	}

	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (s *SQLiteUserStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, `WHERE email = ?`, email)
}

func (s *SQLiteUserStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, ErrUserNotFound
	}
	return s.findOne(ctx, `WHERE id = ?`, id)
}

func (s *SQLiteUserStore) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	var (
		user                 models.User
		id                   string
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password, created_at, updated_at FROM users `+where, arg,
	).Scan(&id, &user.Username, &user.Email, &user.Password, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storageErr("find user", err)
	}

	user.ID, err = primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, storageErr("find user", err)
	}
	user.CreatedAt = time.UnixMilli(createdAt).UTC()
	user.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &user, nil
}
