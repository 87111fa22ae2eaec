package repository

import (
	"context"
	"fmt"

	"smart-schedule/core/database"
	"smart-schedule/modules/calendar/entity"

	"github.com/google/uuid"
)

type CredentialRepository interface {
	// ListByHostID returns the active calendar credentials of a host.
	ListByHostID(ctx context.Context, hostID uuid.UUID) ([]entity.Credential, error)
}

type credentialRepository struct {
	db database.Database
}

func NewCredentialRepository(db database.Database) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) ListByHostID(ctx context.Context, hostID uuid.UUID) ([]entity.Credential, error) {
	query := `
		SELECT id, host_id, provider,
			COALESCE(access_token, '') AS access_token,
			COALESCE(refresh_token, '') AS refresh_token,
			token_expires_at,
			COALESCE(calendar_email, '') AS calendar_email,
			COALESCE(server_url, '') AS server_url,
			COALESCE(calendar_path, '') AS calendar_path,
			COALESCE(username, '') AS username,
			COALESCE(password, '') AS password,
			is_active, created_at, updated_at
		FROM calendar_credentials
		WHERE host_id = $1 AND is_active = true
		ORDER BY created_at, id
	`
	var credentials []entity.Credential
	if err := r.db.SelectContext(ctx, &credentials, query, hostID); err != nil {
		return nil, fmt.Errorf("list credentials for host %s: %w", hostID, err)
	}
	return credentials, nil
}
