package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prudhvinik1/storyline/internal/models"
)

var ErrNotFound = errors.New("not found")

type PostgresContactRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresContactRepository(pool *pgxpool.Pool) *PostgresContactRepository {
	return &PostgresContactRepository{pool: pool}
}

func (r *PostgresContactRepository) Lookup(ctx context.Context, id string) (*models.Contact, error) {
	query := `SELECT id, name, avatar_ref, created_at, updated_at FROM contacts WHERE id = $1`

	var contact models.Contact
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&contact.ID, &contact.Name, &contact.AvatarRef, &contact.CreatedAt, &contact.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &contact, nil
}

func (r *PostgresContactRepository) Upsert(ctx context.Context, contact *models.Contact) error {
	query := `INSERT INTO contacts (id, name, avatar_ref)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (id) DO UPDATE
	          SET name = EXCLUDED.name, avatar_ref = EXCLUDED.avatar_ref, updated_at = NOW()
	          RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, contact.ID, contact.Name, contact.AvatarRef).
		Scan(&contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert contact: %w", err)
	}
	return nil
}

func (r *PostgresContactRepository) List(ctx context.Context) ([]*models.Contact, error) {
	query := `SELECT id, name, avatar_ref, created_at, updated_at FROM contacts ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		var contact models.Contact
		if err := rows.Scan(&contact.ID, &contact.Name, &contact.AvatarRef, &contact.CreatedAt, &contact.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, &contact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}

	return contacts, nil
}

func (r *PostgresContactRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM contacts WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
