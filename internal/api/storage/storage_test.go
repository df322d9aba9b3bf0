package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/gigflow-be/internal/market"
	"github.com/cuongbtq/gigflow-be/shared/database"
	"github.com/cuongbtq/gigflow-be/shared/logger"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	log := logger.NewNop().Logger
	client, err := database.NewClient(&database.Config{
		Driver: string(database.DriverSQLite),
		Path:   filepath.Join(t.TempDir(), "storage.db"),
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.Migrate(context.Background()))
	return NewStorage(client, log)
}

func seedGig(t *testing.T, s *Storage, owner string, offset time.Duration) *market.Gig {
	t.Helper()

	at := baseTime.Add(offset)
	gig := &market.Gig{
		ID:          uuid.NewString(),
		OwnerID:     owner,
		Title:       "Logo design",
		Description: "Need a new logo",
		Budget:      1000,
		Status:      market.GigOpen,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	require.NoError(t, s.CreateGig(context.Background(), gig))
	return gig
}

func seedBid(t *testing.T, s *Storage, gigID, bidder string, price int64, offset time.Duration) *market.Bid {
	t.Helper()

	at := baseTime.Add(offset)
	bid := &market.Bid{
		ID:         uuid.NewString(),
		GigID:      gigID,
		BidderID:   bidder,
		BidderName: "Name of " + bidder,
		Message:    "I can do it",
		Price:      price,
		Status:     market.BidPending,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	err := s.Transact(context.Background(), func(tx market.Tx) error {
		return tx.InsertBid(context.Background(), bid)
	})
	require.NoError(t, err)
	return bid
}

func TestStorage_GigRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	gig := seedGig(t, s, "owner-1", 0)

	got, err := s.GetGig(ctx, gig.ID)
	require.NoError(t, err)
	assert.Equal(t, *gig, *got)

	_, err = s.GetGig(ctx, uuid.NewString())
	assert.ErrorIs(t, err, market.ErrRecordNotFound)
}

func TestStorage_ListGigsByOwner(t *testing.T) {
	s := newTestStorage(t)

	older := seedGig(t, s, "owner-1", 0)
	newer := seedGig(t, s, "owner-1", time.Minute)
	seedGig(t, s, "owner-2", 2*time.Minute)

	gigs, err := s.ListGigsByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, gigs, 2)
	assert.Equal(t, newer.ID, gigs[0].ID)
	assert.Equal(t, older.ID, gigs[1].ID)
}

func TestStorage_BidReadsCarryGigTitle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	gig := seedGig(t, s, "owner-1", 0)
	bid := seedBid(t, s, gig.ID, "bidder-1", 800, time.Second)

	got, err := s.GetBid(ctx, bid.ID)
	require.NoError(t, err)
	assert.Equal(t, "Logo design", got.GigTitle)
	assert.Equal(t, market.BidPending, got.Status)
	assert.Equal(t, int64(800), got.Price)

	found, err := s.FindBid(ctx, gig.ID, "bidder-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, bid.ID, found.ID)

	missing, err := s.FindBid(ctx, gig.ID, "bidder-2")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = s.GetBid(ctx, uuid.NewString())
	assert.ErrorIs(t, err, market.ErrRecordNotFound)
}

func TestStorage_InsertBidDuplicate(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	gig := seedGig(t, s, "owner-1", 0)
	seedBid(t, s, gig.ID, "bidder-1", 800, time.Second)

	err := s.Transact(ctx, func(tx market.Tx) error {
		return tx.InsertBid(ctx, &market.Bid{
			ID:        uuid.NewString(),
			GigID:     gig.ID,
			BidderID:  "bidder-1",
			Message:   "again",
			Price:     500,
			Status:    market.BidPending,
			CreatedAt: baseTime,
			UpdatedAt: baseTime,
		})
	})
	assert.ErrorIs(t, err, market.ErrDuplicateBid)

	bids, err := s.ListBidsForGig(ctx, gig.ID)
	require.NoError(t, err)
	assert.Len(t, bids, 1)
}

func TestStorage_ListBidsForGigNewestFirst(t *testing.T) {
	s := newTestStorage(t)

	gig := seedGig(t, s, "owner-1", 0)
	first := seedBid(t, s, gig.ID, "a", 800, time.Second)
	second := seedBid(t, s, gig.ID, "b", 700, 2*time.Second)

	bids, err := s.ListBidsForGig(context.Background(), gig.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.Equal(t, second.ID, bids[0].ID)
	assert.Equal(t, first.ID, bids[1].ID)
}

func TestStorage_ListBidsByBidderPaging(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	var want []string
	for i := 0; i < 5; i++ {
		gig := seedGig(t, s, "owner-1", time.Duration(i)*time.Minute)
		bid := seedBid(t, s, gig.ID, "bidder-1", int64(100*i), time.Duration(i)*time.Hour)
		want = append([]string{bid.ID}, want...)
	}
	other := seedGig(t, s, "owner-2", 0)
	seedBid(t, s, other.ID, "bidder-2", 50, 0)

	page, err := s.ListBidsByBidder(ctx, market.BidFilter{BidderID: "bidder-1", PageSize: 2})
	require.NoError(t, err)
	// One extra row signals another page
	require.Len(t, page, 3)
	assert.Equal(t, want[0], page[0].ID)
	assert.Equal(t, want[1], page[1].ID)

	cursor := &market.BidCursor{CreatedAt: page[1].CreatedAt, BidID: page[1].ID}
	page, err = s.ListBidsByBidder(ctx, market.BidFilter{BidderID: "bidder-1", PageSize: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, want[2], page[0].ID)
	assert.Equal(t, want[3], page[1].ID)

	cursor = &market.BidCursor{CreatedAt: page[1].CreatedAt, BidID: page[1].ID}
	page, err = s.ListBidsByBidder(ctx, market.BidFilter{BidderID: "bidder-1", PageSize: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, want[4], page[0].ID)
}

func TestTxStore_AssignGigIsCompareAndSwap(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	gig := seedGig(t, s, "owner-1", 0)
	at := baseTime.Add(time.Hour)

	var first, second bool
	err := s.Transact(ctx, func(tx market.Tx) error {
		var err error
		if first, err = tx.AssignGig(ctx, gig.ID, at); err != nil {
			return err
		}
		second, err = tx.AssignGig(ctx, gig.ID, at)
		return err
	})
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	got, err := s.GetGig(ctx, gig.ID)
	require.NoError(t, err)
	assert.Equal(t, market.GigAssigned, got.Status)
	assert.Equal(t, at, got.UpdatedAt)
}

func TestTxStore_MarkHiredAndRejectPending(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	gig := seedGig(t, s, "owner-1", 0)
	a := seedBid(t, s, gig.ID, "a", 800, time.Second)
	b := seedBid(t, s, gig.ID, "b", 700, 2*time.Second)
	c := seedBid(t, s, gig.ID, "c", 900, 3*time.Second)
	at := baseTime.Add(time.Hour)

	var rejected []market.Bid
	err := s.Transact(ctx, func(tx market.Tx) error {
		hired, err := tx.MarkHired(ctx, b.ID, at)
		if err != nil {
			return err
		}
		require.True(t, hired)

		rejected, err = tx.RejectPending(ctx, gig.ID, b.ID, at)
		return err
	})
	require.NoError(t, err)

	require.Len(t, rejected, 2)
	assert.Equal(t, c.ID, rejected[0].ID)
	assert.Equal(t, a.ID, rejected[1].ID)
	for _, r := range rejected {
		assert.Equal(t, market.BidRejected, r.Status)
		assert.Equal(t, at, r.UpdatedAt)
	}

	bids, err := s.ListBidsForGig(ctx, gig.ID)
	require.NoError(t, err)
	statuses := map[string]market.BidStatus{}
	for _, bid := range bids {
		statuses[bid.ID] = bid.Status
	}
	assert.Equal(t, map[string]market.BidStatus{
		a.ID: market.BidRejected,
		b.ID: market.BidHired,
		c.ID: market.BidRejected,
	}, statuses)

	// Already hired, so the swap must not apply again
	err = s.Transact(ctx, func(tx market.Tx) error {
		hired, err := tx.MarkHired(ctx, b.ID, at)
		require.NoError(t, err)
		assert.False(t, hired)
		return nil
	})
	require.NoError(t, err)
}

func TestStorage_SecondHiredBidViolatesIndex(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	gig := seedGig(t, s, "owner-1", 0)
	a := seedBid(t, s, gig.ID, "a", 800, time.Second)
	b := seedBid(t, s, gig.ID, "b", 700, 2*time.Second)

	err := s.Transact(ctx, func(tx market.Tx) error {
		if _, err := tx.MarkHired(ctx, a.ID, baseTime); err != nil {
			return err
		}
		_, err := tx.MarkHired(ctx, b.ID, baseTime)
		return err
	})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestStorage_TransactRollsBack(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	gig := seedGig(t, s, "owner-1", 0)
	boom := errors.New("boom")

	err := s.Transact(ctx, func(tx market.Tx) error {
		if _, err := tx.AssignGig(ctx, gig.ID, baseTime); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetGig(ctx, gig.ID)
	require.NoError(t, err)
	assert.Equal(t, market.GigOpen, got.Status)
}

func TestTxStore_LockGig(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	gig := seedGig(t, s, "owner-1", 0)

	err := s.Transact(ctx, func(tx market.Tx) error {
		got, err := tx.LockGig(ctx, gig.ID)
		require.NoError(t, err)
		assert.Equal(t, gig.ID, got.ID)

		_, err = tx.LockGig(ctx, uuid.NewString())
		assert.ErrorIs(t, err, market.ErrRecordNotFound)
		return nil
	})
	require.NoError(t, err)
}
