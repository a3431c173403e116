package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gtdkeeper/internal/common"
	"github.com/dmitrijs2005/gtdkeeper/internal/dbx"
	"github.com/dmitrijs2005/gtdkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, pinDigest string) (*models.User, error) {
	query := `INSERT INTO users (pin_digest)
	          VALUES ($1)
	          RETURNING id, created_at`

	user := &models.User{PinDigest: pinDigest}
	err := r.db.QueryRowContext(ctx, query, pinDigest).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByPinDigest(ctx context.Context, pinDigest string) (*models.User, error) {
	query := `SELECT id, pin_digest, created_at FROM users
	          WHERE pin_digest = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, pinDigest).Scan(&user.ID, &user.PinDigest, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}
