package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func sampleEvent(target string) Event {
	return Event{
		Kind:   KindHired,
		Target: target,
		Payload: Payload{
			GigID:     "gig-1",
			GigTitle:  "Logo design",
			BidID:     "bid-2",
			Price:     700,
			Message:   `You have been hired for "Logo design"!`,
			Timestamp: at,
		},
	}
}

func TestStreamChannel(t *testing.T) {
	ch := NewStreamChannel(1)
	assert.NotEmpty(t, ch.ID())

	require.NoError(t, ch.Send(sampleEvent("a")))
	assert.ErrorIs(t, ch.Send(sampleEvent("a")), ErrChannelFull)

	got := <-ch.Events()
	assert.Equal(t, "a", got.Target)

	ch.Close()
	ch.Close()
	assert.ErrorIs(t, ch.Send(sampleEvent("a")), ErrChannelClosed)

	_, open := <-ch.Events()
	assert.False(t, open)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	phone := NewStreamChannel(1)
	laptop := NewStreamChannel(1)
	other := NewStreamChannel(1)

	r.Register("alice", phone)
	r.Register("alice", laptop)
	r.Register("bob", other)

	assert.Equal(t, 3, r.Count())
	assert.Len(t, r.ChannelsFor("alice"), 2)
	assert.Equal(t, []string{"alice", "bob"}, r.Identities())
	assert.Nil(t, r.ChannelsFor("carol"))

	t.Run("unregister", func(t *testing.T) {
		r.Unregister(phone)
		r.Unregister(phone)
		channels := r.ChannelsFor("alice")
		require.Len(t, channels, 1)
		assert.Equal(t, laptop.ID(), channels[0].ID())
		assert.Equal(t, 2, r.Count())
	})

	t.Run("rejoin under another identity moves the channel", func(t *testing.T) {
		r.Register("carol", laptop)
		assert.Empty(t, r.ChannelsFor("alice"))
		assert.Len(t, r.ChannelsFor("carol"), 1)
		assert.Equal(t, []string{"bob", "carol"}, r.Identities())
		assert.Equal(t, 2, r.Count())
	})

	t.Run("never registered", func(t *testing.T) {
		r.Unregister(NewStreamChannel(1))
		assert.Equal(t, 2, r.Count())
	})
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	bus := NewBus(r, nil, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			ch := NewStreamChannel(4)
			identity := fmt.Sprintf("user-%d", i%5)
			r.Register(identity, ch)
			r.ChannelsFor(identity)
			r.Unregister(ch)
		}(i)
		go func(i int) {
			defer wg.Done()
			bus.Publish(context.Background(), sampleEvent(fmt.Sprintf("user-%d", i%5)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.Identities())
}

func TestBus_DeliversToEveryChannelOfTarget(t *testing.T) {
	r := NewRegistry()
	bus := NewBus(r, nil, discardLogger())

	first := NewStreamChannel(2)
	second := NewStreamChannel(2)
	bystander := NewStreamChannel(2)
	r.Register("bob", first)
	r.Register("bob", second)
	r.Register("alice", bystander)

	bus.Publish(context.Background(), sampleEvent("bob"))

	for _, ch := range []*StreamChannel{first, second} {
		select {
		case e := <-ch.Events():
			assert.Equal(t, KindHired, e.Kind)
		default:
			t.Fatal("expected an event")
		}
	}
	assert.Empty(t, bystander.Events())
}

func TestBus_DropsForSlowAndMissingChannels(t *testing.T) {
	r := NewRegistry()
	bus := NewBus(r, nil, discardLogger())

	assert.Equal(t, 0, bus.Deliver(sampleEvent("nobody")))

	slow := NewStreamChannel(1)
	fast := NewStreamChannel(4)
	r.Register("bob", slow)
	r.Register("bob", fast)

	assert.Equal(t, 2, bus.Deliver(sampleEvent("bob")))
	assert.Equal(t, 1, bus.Deliver(sampleEvent("bob")))

	closed := NewStreamChannel(1)
	closed.Close()
	r.Register("carol", closed)
	assert.Equal(t, 0, bus.Deliver(sampleEvent("carol")))
}

func TestBus_IgnoresInvalidEvents(t *testing.T) {
	r := NewRegistry()
	ch := NewStreamChannel(1)
	r.Register("bob", ch)

	relay := &fakeRelay{}
	bus := NewBus(r, relay, discardLogger())
	bus.Publish(context.Background(), Event{Kind: "gossip", Target: "bob"})
	bus.Publish(context.Background(), Event{Kind: KindHired})

	assert.Empty(t, relay.published())
	assert.Empty(t, ch.Events())
}

type fakeRelay struct {
	mu      sync.Mutex
	events  []Event
	fail    error
	inbound chan Event
}

func (f *fakeRelay) Name() string { return "fake" }

func (f *fakeRelay) Publish(_ context.Context, event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.events = append(f.events, event)
	if f.inbound != nil {
		f.inbound <- event
	}
	return nil
}

func (f *fakeRelay) Listen(ctx context.Context, handle func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-f.inbound:
			handle(e)
		}
	}
}

func (f *fakeRelay) published() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...)
}

func TestBus_RelayRoundTrip(t *testing.T) {
	r := NewRegistry()
	ch := NewStreamChannel(1)
	r.Register("bob", ch)

	relay := &fakeRelay{inbound: make(chan Event, 1)}
	bus := NewBus(r, relay, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Run(ctx) }()

	bus.Publish(ctx, sampleEvent("bob"))

	select {
	case e := <-ch.Events():
		assert.Equal(t, "bob", e.Target)
	case <-time.After(2 * time.Second):
		t.Fatal("relayed event was not delivered")
	}
	assert.Len(t, relay.published(), 1)

	cancel()
	assert.NoError(t, <-done)
}

func TestBus_RelayFailureFallsBackToLocal(t *testing.T) {
	r := NewRegistry()
	ch := NewStreamChannel(1)
	r.Register("bob", ch)

	bus := NewBus(r, &fakeRelay{fail: errors.New("broker down")}, discardLogger())
	bus.Publish(context.Background(), sampleEvent("bob"))

	select {
	case e := <-ch.Events():
		assert.Equal(t, KindHired, e.Kind)
	default:
		t.Fatal("expected local delivery")
	}
}

func TestBus_RunWithoutRelay(t *testing.T) {
	bus := NewBus(NewRegistry(), nil, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, bus.Run(ctx))
}

func TestRedisRelay_UnreachableServerFallsBack(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	relay := NewRedisRelay(client, "", discardLogger())
	assert.Equal(t, DefaultRedisChannel, relay.channel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.Error(t, relay.Publish(ctx, sampleEvent("bob")))

	r := NewRegistry()
	ch := NewStreamChannel(1)
	r.Register("bob", ch)
	NewBus(r, relay, discardLogger()).Publish(ctx, sampleEvent("bob"))
	assert.Len(t, ch.Events(), 1)
}

func TestRedisRelay_Dispatch(t *testing.T) {
	relay := NewRedisRelay(nil, "test", discardLogger())

	data, err := sampleEvent("bob").Marshal()
	require.NoError(t, err)

	var got []Event
	relay.dispatch(data, func(e Event) { got = append(got, e) })
	relay.dispatch([]byte(`{"kind":"hired"}`), func(e Event) { got = append(got, e) })
	relay.dispatch([]byte(`not json`), func(e Event) { got = append(got, e) })

	require.Len(t, got, 1)
	assert.Equal(t, sampleEvent("bob"), got[0])
}

func TestEvent_RoundTrip(t *testing.T) {
	data, err := sampleEvent("bob").Marshal()
	require.NoError(t, err)

	got, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, sampleEvent("bob"), got)

	_, err = UnmarshalEvent([]byte(`{"kind":"nope","target":"x"}`))
	assert.ErrorContains(t, err, "unknown event kind")
}

func TestEvent_ZeroPriceIsEncoded(t *testing.T) {
	for _, kind := range []Kind{KindNewBid, KindHired, KindBidRejected} {
		t.Run(string(kind), func(t *testing.T) {
			e := sampleEvent("bob")
			e.Kind = kind
			e.Payload.Price = 0

			data, err := e.Marshal()
			require.NoError(t, err)
			assert.Contains(t, string(data), `"price":0`)

			got, err := UnmarshalEvent(data)
			require.NoError(t, err)
			assert.Zero(t, got.Payload.Price)
		})
	}
}

func TestFrames(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	newBid := Event{
		Kind:   KindNewBid,
		Target: "owner-1",
		Payload: Payload{
			GigID:      "gig-1",
			GigTitle:   "Logo design",
			BidID:      "bid-1",
			BidderID:   "bidder-a",
			BidderName: "Alice",
			Price:      800,
			Message:    `Alice placed a bid of 800 on "Logo design"`,
			Timestamp:  at,
		},
	}

	freeBid := newBid
	freeBid.Payload.BidID = "bid-3"
	freeBid.Payload.BidderID = "bidder-c"
	freeBid.Payload.BidderName = "Carol"
	freeBid.Payload.Price = 0
	freeBid.Payload.Message = `Carol placed a bid of 0 on "Logo design"`

	tests := []struct {
		name  string
		write func(buf *bytes.Buffer) error
	}{
		{"new_bid", func(buf *bytes.Buffer) error { return WriteEvent(buf, "evt-1", newBid) }},
		{"new_bid_zero_price", func(buf *bytes.Buffer) error { return WriteEvent(buf, "evt-3", freeBid) }},
		{"hired", func(buf *bytes.Buffer) error { return WriteEvent(buf, "evt-2", sampleEvent("bidder-b")) }},
		{"joined", func(buf *bytes.Buffer) error { return WriteJoined(buf, "chan-1", "bidder-a") }},
		{"ping", func(buf *bytes.Buffer) error { return WritePing(buf, at) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.write(&buf))
			g.Assert(t, tt.name, buf.Bytes())
		})
	}
}
