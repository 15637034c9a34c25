package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsuite/campus-core/internal/models"
)

// UserRepository persists the account rows created alongside profiles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateTx inserts the user inside the caller's transaction.
func (r *UserRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO users (id, username, password_hash, email, role, created_at)
        VALUES (:id, :username, :password_hash, :email, :role, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
