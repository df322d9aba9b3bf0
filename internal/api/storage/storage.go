package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/gigflow-be/internal/api/model"
	"github.com/cuongbtq/gigflow-be/internal/market"
	"github.com/cuongbtq/gigflow-be/shared/database"
)

const (
	gigColumns = `id, owner_id, title, description, budget, status, created_at, updated_at`

	bidSelect = `
		SELECT
			b.id, b.gig_id, g.title AS gig_title, b.bidder_id, b.bidder_name,
			b.message, b.price, b.status, b.created_at, b.updated_at
		FROM bids b
		JOIN gigs g ON g.id = b.gig_id
	`
)

// Storage is the sqlx implementation of market.Store. Queries are written
// with ? placeholders and rebound for the active driver.
type Storage struct {
	db     *sqlx.DB
	driver database.Driver
	logger *slog.Logger
}

var _ market.Store = (*Storage)(nil)

// NewStorage creates a Storage on the client's pool
func NewStorage(client *database.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     client.GetDB(),
		driver: client.Driver(),
		logger: logger,
	}
}

func (s *Storage) CreateGig(ctx context.Context, gig *market.Gig) error {
	query := s.db.Rebind(`
		INSERT INTO gigs (` + gigColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(
		ctx,
		query,
		gig.ID,
		gig.OwnerID,
		gig.Title,
		gig.Description,
		gig.Budget,
		string(gig.Status),
		gig.CreatedAt,
		gig.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create gig: %w", err)
	}
	return nil
}

func (s *Storage) GetGig(ctx context.Context, id string) (*market.Gig, error) {
	return getGig(ctx, s.db, id, "")
}

func (s *Storage) ListGigsByOwner(ctx context.Context, ownerID string) ([]market.Gig, error) {
	query := s.db.Rebind(`
		SELECT ` + gigColumns + `
		FROM gigs
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC
	`)

	var rows []model.Gig
	if err := s.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list gigs: %w", err)
	}
	return model.GigsToDomain(rows)
}

func (s *Storage) GetBid(ctx context.Context, id string) (*market.Bid, error) {
	return getBid(ctx, s.db, id)
}

func (s *Storage) FindBid(ctx context.Context, gigID, bidderID string) (*market.Bid, error) {
	return findBid(ctx, s.db, gigID, bidderID)
}

func (s *Storage) ListBidsForGig(ctx context.Context, gigID string) ([]market.Bid, error) {
	query := s.db.Rebind(bidSelect + `
		WHERE b.gig_id = ?
		ORDER BY b.created_at DESC, b.id DESC
	`)

	var rows []model.Bid
	if err := s.db.SelectContext(ctx, &rows, query, gigID); err != nil {
		return nil, fmt.Errorf("failed to list bids for gig: %w", err)
	}
	return model.BidsToDomain(rows)
}

func (s *Storage) ListBidsByBidder(ctx context.Context, filter market.BidFilter) ([]market.Bid, error) {
	query := bidSelect + ` WHERE b.bidder_id = ?`
	args := []interface{}{filter.BidderID}

	if filter.Cursor != nil {
		query += ` AND (b.created_at, b.id) < (?, ?)`
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.BidID)
	}

	// Fetch one extra to determine if there are more results
	query += ` ORDER BY b.created_at DESC, b.id DESC LIMIT ?`
	args = append(args, filter.PageSize+1)

	var rows []model.Bid
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list bids for bidder: %w", err)
	}
	return model.BidsToDomain(rows)
}

// Transact runs fn inside one transaction
func (s *Storage) Transact(ctx context.Context, fn func(tx market.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txStore{tx: tx, driver: s.driver}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("Failed to roll back transaction",
				slog.Any("error", rbErr),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txStore implements market.Tx on one sqlx transaction
type txStore struct {
	tx     *sqlx.Tx
	driver database.Driver
}

func (t *txStore) LockGig(ctx context.Context, gigID string) (*market.Gig, error) {
	return getGig(ctx, t.tx, gigID, t.driver.ShareLock())
}

func (t *txStore) FindBid(ctx context.Context, gigID, bidderID string) (*market.Bid, error) {
	return findBid(ctx, t.tx, gigID, bidderID)
}

func (t *txStore) InsertBid(ctx context.Context, bid *market.Bid) error {
	query := t.tx.Rebind(`
		INSERT INTO bids (
			id, gig_id, bidder_id, bidder_name, message,
			price, status, created_at, updated_at
		) VALUES (
			?, ?, ?, ?, ?,
			?, ?, ?, ?
		)
	`)

	_, err := t.tx.ExecContext(
		ctx,
		query,
		bid.ID,
		bid.GigID,
		bid.BidderID,
		bid.BidderName,
		bid.Message,
		bid.Price,
		string(bid.Status),
		bid.CreatedAt,
		bid.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return market.ErrDuplicateBid
		}
		return fmt.Errorf("failed to create bid: %w", err)
	}
	return nil
}

func (t *txStore) BidWithGig(ctx context.Context, bidID string) (*market.Bid, *market.Gig, error) {
	bid, err := getBid(ctx, t.tx, bidID)
	if err != nil {
		return nil, nil, err
	}

	gig, err := getGig(ctx, t.tx, bid.GigID, "")
	if err != nil {
		return nil, nil, err
	}
	return bid, gig, nil
}

func (t *txStore) AssignGig(ctx context.Context, gigID string, at time.Time) (bool, error) {
	query := t.tx.Rebind(`
		UPDATE gigs
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`)

	return execAffectsOne(ctx, t.tx, query,
		string(market.GigAssigned), at, gigID, string(market.GigOpen))
}

func (t *txStore) MarkHired(ctx context.Context, bidID string, at time.Time) (bool, error) {
	query := t.tx.Rebind(`
		UPDATE bids
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`)

	return execAffectsOne(ctx, t.tx, query,
		string(market.BidHired), at, bidID, string(market.BidPending))
}

func (t *txStore) RejectPending(ctx context.Context, gigID, keepBidID string, at time.Time) ([]market.Bid, error) {
	query := t.tx.Rebind(`
		UPDATE bids
		SET status = ?, updated_at = ?
		WHERE gig_id = ? AND id <> ? AND status = ?
		RETURNING id, gig_id, bidder_id, bidder_name, message, price, status, created_at, updated_at
	`)

	var rows []model.Bid
	err := t.tx.SelectContext(ctx, &rows, query,
		string(market.BidRejected), at, gigID, keepBidID, string(market.BidPending))
	if err != nil {
		return nil, fmt.Errorf("failed to reject pending bids: %w", err)
	}

	bids, err := model.BidsToDomain(rows)
	if err != nil {
		return nil, err
	}

	// RETURNING order is unspecified; keep listing order
	sort.Slice(bids, func(i, j int) bool {
		if !bids[i].CreatedAt.Equal(bids[j].CreatedAt) {
			return bids[i].CreatedAt.After(bids[j].CreatedAt)
		}
		return bids[i].ID > bids[j].ID
	})
	return bids, nil
}

func getGig(ctx context.Context, q sqlx.QueryerContext, id, lock string) (*market.Gig, error) {
	query := `SELECT ` + gigColumns + ` FROM gigs WHERE id = ?` + lock

	var row model.Gig
	if err := sqlx.GetContext(ctx, q, &row, rebind(q, query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, market.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get gig: %w", err)
	}

	gig, err := row.ToDomain()
	if err != nil {
		return nil, err
	}
	return &gig, nil
}

func getBid(ctx context.Context, q sqlx.QueryerContext, id string) (*market.Bid, error) {
	var row model.Bid
	if err := sqlx.GetContext(ctx, q, &row, rebind(q, bidSelect+` WHERE b.id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, market.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	bid, err := row.ToDomain()
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func findBid(ctx context.Context, q sqlx.QueryerContext, gigID, bidderID string) (*market.Bid, error) {
	query := bidSelect + ` WHERE b.gig_id = ? AND b.bidder_id = ?`

	var row model.Bid
	if err := sqlx.GetContext(ctx, q, &row, rebind(q, query), gigID, bidderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find bid: %w", err)
	}

	bid, err := row.ToDomain()
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func execAffectsOne(ctx context.Context, e sqlx.ExecerContext, query string, args ...interface{}) (bool, error) {
	result, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to execute update: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// rebind converts ? placeholders for whatever driver q is bound to
func rebind(q sqlx.QueryerContext, query string) string {
	if b, ok := q.(interface{ Rebind(string) string }); ok {
		return b.Rebind(query)
	}
	return query
}
