package export

import (
	"context"
	"database/sql"
	"errors"
)

// PGArtifactRepo implements ArtifactRepo using Postgres.
type PGArtifactRepo struct {
	DB *sql.DB
}

// Get fetches an artifact by storage key.
func (r *PGArtifactRepo) Get(ctx context.Context, storageKey string) (Artifact, error) {
	const query = `
SELECT storage_key, user_id, entity_kind, entity_id, format, file_name, content_type, size_bytes, created_at
FROM export_artifacts
WHERE storage_key = $1`
	var a Artifact
	var format string
	err := r.DB.QueryRowContext(ctx, query, storageKey).Scan(
		&a.StorageKey,
		&a.UserID,
		&a.EntityKind,
		&a.EntityID,
		&format,
		&a.FileName,
		&a.ContentType,
		&a.SizeBytes,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artifact{}, ErrArtifactNotFound
		}
		return Artifact{}, err
	}
	a.Format = Format(format)
	return a, nil
}

// Save inserts or replaces an artifact record.
func (r *PGArtifactRepo) Save(ctx context.Context, a Artifact) error {
	const query = `
INSERT INTO export_artifacts (
    storage_key,
    user_id,
    entity_kind,
    entity_id,
    format,
    file_name,
    content_type,
    size_bytes,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (storage_key) DO UPDATE SET
    file_name = EXCLUDED.file_name,
    content_type = EXCLUDED.content_type,
    size_bytes = EXCLUDED.size_bytes,
    created_at = EXCLUDED.created_at`
	_, err := r.DB.ExecContext(ctx, query,
		a.StorageKey,
		a.UserID,
		a.EntityKind,
		a.EntityID,
		string(a.Format),
		a.FileName,
		a.ContentType,
		a.SizeBytes,
		a.CreatedAt,
	)
	return err
}

// ListEntity returns every stored artifact of one entity.
func (r *PGArtifactRepo) ListEntity(ctx context.Context, userID, kind, entityID string) ([]Artifact, error) {
	const query = `
SELECT storage_key, user_id, entity_kind, entity_id, format, file_name, content_type, size_bytes, created_at
FROM export_artifacts
WHERE user_id = $1 AND entity_kind = $2 AND entity_id = $3
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID, kind, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		var format string
		if err := rows.Scan(
			&a.StorageKey,
			&a.UserID,
			&a.EntityKind,
			&a.EntityID,
			&format,
			&a.FileName,
			&a.ContentType,
			&a.SizeBytes,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.Format = Format(format)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes an artifact record.
func (r *PGArtifactRepo) Delete(ctx context.Context, storageKey string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM export_artifacts WHERE storage_key = $1`, storageKey)
	return err
}

var _ ArtifactRepo = (*PGArtifactRepo)(nil)
