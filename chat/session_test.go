package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusfind/lostfound/client"
	"github.com/campusfind/lostfound/models"
)

type fakeAPI struct {
	mu         sync.Mutex
	msgs       []models.Message
	fetchErr   error
	fetchGate  chan struct{} // when set, fetches block until the channel closes
	fetchCount int
	sent        []client.SendMessageInput
	sendGate    chan struct{}
	sendStarted chan struct{}
	sendErr     error
}

func (f *fakeAPI) Messages(ctx context.Context, userID, chatWith uuid.UUID) ([]models.Message, error) {
	f.mu.Lock()
	gate := f.fetchGate
	f.fetchCount++
	err := f.fetchErr
	msgs := append([]models.Message(nil), f.msgs...)
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, in client.SendMessageInput) (models.Message, error) {
	f.mu.Lock()
	gate := f.sendGate
	started := f.sendStarted
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return models.Message{}, f.sendErr
	}
	f.sent = append(f.sent, in)
	msg := models.Message{
		ID:          uuid.New(),
		SenderID:    in.SenderID,
		RecipientID: in.RecipientID,
		Content:     in.Content,
		Status:      models.StatusDelivered,
		Timestamp:   time.Now(),
	}
	f.msgs = append(f.msgs, msg)
	return msg, nil
}

func (f *fakeAPI) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCount
}

func testUsers() (models.User, models.User) {
	return models.User{ID: uuid.New(), FullName: "Alice Otieno", Email: "alice@campus.edu"},
		models.User{ID: uuid.New(), FullName: "Ben Wanjiku", Email: "ben@campus.edu"}
}

func TestSessionOpenFetchesImmediatelyThenPolls(t *testing.T) {
	self, partner := testUsers()
	api := &fakeAPI{msgs: []models.Message{
		{ID: uuid.New(), SenderID: partner.ID, RecipientID: self.ID, Content: "hello", Timestamp: time.Now()},
	}}

	var mu sync.Mutex
	var snapshots [][]models.Message
	s := NewSession(api, self, partner, Options{
		PollInterval: 10 * time.Millisecond,
		OnThread: func(msgs []models.Message) {
			mu.Lock()
			snapshots = append(snapshots, msgs)
			mu.Unlock()
		},
	})

	require.NoError(t, s.Open())
	defer s.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(snapshots) >= 3
	}, time.Second, 5*time.Millisecond, "expected the immediate fetch plus recurring polls")

	mu.Lock()
	assert.Len(t, snapshots[0], 1)
	assert.Equal(t, "hello", snapshots[0][0].Content)
	mu.Unlock()
}

func TestSessionOpenTwiceFails(t *testing.T) {
	self, partner := testUsers()
	s := NewSession(&fakeAPI{}, self, partner, Options{PollInterval: time.Hour})

	require.NoError(t, s.Open())
	defer s.Close()
	assert.ErrorIs(t, s.Open(), ErrSessionOpen)
}

func TestSessionCloseStopsPolling(t *testing.T) {
	self, partner := testUsers()
	api := &fakeAPI{}

	s := NewSession(api, self, partner, Options{PollInterval: 5 * time.Millisecond})
	require.NoError(t, s.Open())

	require.Eventually(t, func() bool { return api.fetches() >= 2 }, time.Second, time.Millisecond)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Close(), ErrSessionClosed)

	settled := api.fetches()
	time.Sleep(50 * time.Millisecond)
	// One poll may already have been in flight at Close; beyond that the
	// ticker is dead.
	assert.LessOrEqual(t, api.fetches(), settled+1)
}

func TestSessionDiscardsInFlightResponseAfterClose(t *testing.T) {
	self, partner := testUsers()
	gate := make(chan struct{})
	api := &fakeAPI{fetchGate: gate}

	delivered := make(chan struct{}, 8)
	s := NewSession(api, self, partner, Options{
		PollInterval: time.Hour,
		OnThread:     func([]models.Message) { delivered <- struct{}{} },
	})

	require.NoError(t, s.Open())
	// The immediate fetch is now blocked inside the fake. Close, then let the
	// response arrive: it must be discarded.
	require.Eventually(t, func() bool { return api.fetches() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, s.Close())
	close(gate)

	select {
	case <-delivered:
		t.Fatal("snapshot delivered after Close")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSessionSendRejectsEmptyText(t *testing.T) {
	self, partner := testUsers()
	api := &fakeAPI{}
	s := NewSession(api, self, partner, Options{PollInterval: time.Hour})
	require.NoError(t, s.Open())
	defer s.Close()

	assert.ErrorIs(t, s.Send(context.Background(), "   "), ErrEmptyMessage)
	assert.Empty(t, api.sent)
}

func TestSessionSendRejectsWhileInFlight(t *testing.T) {
	self, partner := testUsers()
	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	api := &fakeAPI{sendGate: gate, sendStarted: started}
	s := NewSession(api, self, partner, Options{PollInterval: time.Hour})
	require.NoError(t, s.Open())
	defer s.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- s.Send(context.Background(), "first") }()
	<-started

	assert.ErrorIs(t, s.Send(context.Background(), "second"), ErrSendInFlight)

	close(gate)
	require.NoError(t, <-errCh)

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.sent, 1)
	assert.Equal(t, "first", api.sent[0].Content)
}

func TestSessionSendRefetchesThread(t *testing.T) {
	self, partner := testUsers()
	api := &fakeAPI{}

	var mu sync.Mutex
	var latest []models.Message
	s := NewSession(api, self, partner, Options{
		PollInterval: time.Hour,
		RefetchDelay: time.Millisecond,
		Subject:      "Lost: black umbrella",
		OnThread: func(msgs []models.Message) {
			mu.Lock()
			latest = msgs
			mu.Unlock()
		},
	})
	require.NoError(t, s.Open())
	defer s.Close()

	require.NoError(t, s.Send(context.Background(), "  is this yours?  "))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(latest) == 1
	}, time.Second, time.Millisecond, "send must trigger a follow-up fetch")

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.sent, 1)
	assert.Equal(t, "is this yours?", api.sent[0].Content, "text is trimmed before sending")
	assert.Equal(t, "Lost: black umbrella", api.sent[0].Subject)
	assert.Equal(t, self.ID, api.sent[0].SenderID)
	assert.Equal(t, partner.ID, api.sent[0].RecipientID)
}

func TestSessionSendSurfacesFailure(t *testing.T) {
	self, partner := testUsers()
	api := &fakeAPI{sendErr: errors.New("store down")}
	s := NewSession(api, self, partner, Options{PollInterval: time.Hour})
	require.NoError(t, s.Open())
	defer s.Close()

	err := s.Send(context.Background(), "hello")
	require.Error(t, err)

	// The failed send releases the in-flight slot.
	api.mu.Lock()
	api.sendErr = nil
	api.mu.Unlock()
	assert.NoError(t, s.Send(context.Background(), "hello again"))
}

func TestSessionSendWhenClosed(t *testing.T) {
	self, partner := testUsers()
	s := NewSession(&fakeAPI{}, self, partner, Options{PollInterval: time.Hour})

	assert.ErrorIs(t, s.Send(context.Background(), "hello"), ErrSessionClosed)
}

func TestSessionPollFailureIsSwallowed(t *testing.T) {
	self, partner := testUsers()
	api := &fakeAPI{fetchErr: errors.New("store down")}

	s := NewSession(api, self, partner, Options{PollInterval: 5 * time.Millisecond})
	require.NoError(t, s.Open())
	defer s.Close()

	// Failures never stop the loop: fetch attempts keep accumulating.
	require.Eventually(t, func() bool { return api.fetches() >= 3 }, time.Second, time.Millisecond)
	assert.True(t, s.IsOpen())
}
