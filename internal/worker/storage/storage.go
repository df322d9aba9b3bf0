package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/gigflow-be/internal/worker/domain"
	"github.com/cuongbtq/gigflow-be/shared/database"
)

// Storage runs the read-only audit queries
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(client *database.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     client.GetDB(),
		logger: logger,
	}
}

// ListCandidates returns the IDs of gigs that are assigned or have any bid, oldest first
func (s *Storage) ListCandidates(ctx context.Context) ([]string, error) {
	query := `
		SELECT g.id
		FROM gigs g
		WHERE g.status = 'assigned'
		   OR EXISTS (SELECT 1 FROM bids b WHERE b.gig_id = g.id)
		ORDER BY g.created_at, g.id
	`

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("failed to list audit candidates: %w", err)
	}

	return ids, nil
}

// Snapshot aggregates the bids of one gig by status
func (s *Storage) Snapshot(ctx context.Context, gigID string) (*domain.GigSnapshot, error) {
	query := s.db.Rebind(`
		SELECT
			g.id AS gig_id,
			g.owner_id,
			g.status,
			COALESCE(SUM(CASE WHEN b.status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN b.status = 'hired' THEN 1 ELSE 0 END), 0) AS hired,
			COALESCE(SUM(CASE WHEN b.status = 'rejected' THEN 1 ELSE 0 END), 0) AS rejected,
			COALESCE(SUM(CASE WHEN b.bidder_id = g.owner_id THEN 1 ELSE 0 END), 0) AS self_bids
		FROM gigs g
		LEFT JOIN bids b ON b.gig_id = g.id
		WHERE g.id = ?
		GROUP BY g.id, g.owner_id, g.status
	`)

	var snap domain.GigSnapshot
	if err := s.db.GetContext(ctx, &snap, query, gigID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGigNotFound
		}
		return nil, fmt.Errorf("failed to load gig snapshot: %w", err)
	}

	return &snap, nil
}
