package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filevault/internal/common"
	"filevault/internal/dbx"
	"filevault/internal/server/models"
)

// PostgresRepository implements the ownership index over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, filename, size_bytes, content_type, object_key, owner_id, owner_email, owner_name, uploaded_at`

// ownerMatcher is one strategy for resolving the files owned by an identity.
type ownerMatcher struct {
	column string
	value  func(models.Identity) string
}

// ownerMatchers is the fallback chain for owner lookup, most precise
// identifier first. The first strategy that yields rows wins; result sets
// are never merged across strategies. Upload-time and list-time identity
// representations are not guaranteed to agree, which is why the looser
// matchers exist at all.
var ownerMatchers = []ownerMatcher{
	{column: "owner_id", value: func(i models.Identity) string { return i.ID }},
	{column: "owner_email", value: func(i models.Identity) string { return i.Email }},
	{column: "owner_name", value: func(i models.Identity) string { return i.Name }},
}

// Create inserts the metadata row for a committed upload. Exactly one row
// must be affected.
func (r *PostgresRepository) Create(ctx context.Context, file *models.StoredFile) error {
	query := `
		INSERT INTO files (id, filename, size_bytes, content_type, object_key, owner_id, owner_email, owner_name, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		file.ID, file.Filename, file.SizeBytes, file.ContentType, file.ObjectKey,
		file.OwnerID, file.OwnerEmail, file.OwnerName, file.UploadedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.StoredFile, error) {
	file := &models.StoredFile{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&file.ID, &file.Filename, &file.SizeBytes, &file.ContentType, &file.ObjectKey,
		&file.OwnerID, &file.OwnerEmail, &file.OwnerName, &file.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

// GetByID returns the metadata row for the given file id, or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.StoredFile, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByFilename returns the most recently uploaded file with the given
// client-supplied name. Filenames are not unique; newest wins.
func (r *PostgresRepository) GetByFilename(ctx context.Context, filename string) (*models.StoredFile, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE filename = $1 ORDER BY uploaded_at DESC LIMIT 1`
	return r.getOne(ctx, query, filename)
}

func (r *PostgresRepository) listByColumn(ctx context.Context, column, value string) ([]*models.StoredFile, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE ` + column + ` = $1 ORDER BY uploaded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.StoredFile
	for rows.Next() {
		file := &models.StoredFile{}
		if err := rows.Scan(
			&file.ID, &file.Filename, &file.SizeBytes, &file.ContentType, &file.ObjectKey,
			&file.OwnerID, &file.OwnerEmail, &file.OwnerName, &file.UploadedAt); err != nil {
			return nil, err
		}
		result = append(result, file)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListByOwner resolves the files owned by identity by trying each matcher
// strategy in order and returning the first non-empty result set. An empty
// result with all strategies exhausted is not an error: the caller decides
// whether that means "new user" or "metadata mismatch".
func (r *PostgresRepository) ListByOwner(ctx context.Context, identity models.Identity) ([]*models.StoredFile, error) {
	for _, m := range ownerMatchers {
		value := m.value(identity)
		if value == "" {
			continue
		}
		result, err := r.listByColumn(ctx, m.column, value)
		if err != nil {
			return nil, err
		}
		if len(result) > 0 {
			return result, nil
		}
	}
	return nil, nil
}

// Delete removes the metadata row for id. Returns common.ErrorNotFound when
// the id does not resolve to a row, so a retried delete reports cleanly.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM files WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}
