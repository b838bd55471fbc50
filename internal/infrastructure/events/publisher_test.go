package events

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"brain2-canvas/internal/domain/shared"
)

type countingObserver struct {
	mu        sync.Mutex
	published []string
	dropped   map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{dropped: map[string]int{}}
}

func (o *countingObserver) EventPublished(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.published = append(o.published, name)
}

func (o *countingObserver) EventDropped(_ string, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped[reason]++
}

func (o *countingObserver) droppedFor(reason string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped[reason]
}

// MockSink is a mock implementation of Sink.
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Deliver(ctx context.Context, event shared.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestAsyncPublisher_SinkErrorIsReported(t *testing.T) {
	sink := new(MockSink)
	sink.On("Deliver", mock.Anything, mock.MatchedBy(func(e shared.Event) bool {
		return e.Name == shared.EventCardMoved
	})).Return(stderrors.New("backend unavailable")).Once()
	sink.On("Deliver", mock.Anything, mock.Anything).Return(nil)

	obs := newCountingObserver()
	p := NewAsyncPublisher(sink, 4, zap.NewNop(), WithObserver(obs))
	p.Publish(context.Background(), shared.NewEvent(shared.EventCardMoved, shared.CardMoved{ID: "a"}))
	p.Publish(context.Background(), shared.NewEvent(shared.EventCardMoved, shared.CardMoved{ID: "b"}))
	require.NoError(t, p.Close(context.Background()))

	sink.AssertNumberOfCalls(t, "Deliver", 2)
	assert.Equal(t, 1, obs.droppedFor("sink_error"))
	assert.Len(t, obs.published, 1)
}

func TestAsyncPublisher_DeliversInOrder(t *testing.T) {
	rec := NewRecorder()
	p := NewAsyncPublisher(rec, 16, zap.NewNop())

	for i := 0; i < 10; i++ {
		p.Publish(context.Background(), shared.NewEvent(shared.EventCardMoved, shared.CardMoved{ID: "a", X: float64(i)}))
	}
	require.NoError(t, p.Close(context.Background()))

	got := rec.Events()
	require.Len(t, got, 10)
	for i, e := range got {
		assert.Equal(t, float64(i), e.Payload.(shared.CardMoved).X)
	}
}

func TestAsyncPublisher_FullBufferDrops(t *testing.T) {
	release := make(chan struct{})
	obs := newCountingObserver()
	blocking := SinkFunc(func(context.Context, shared.Event) error {
		<-release
		return nil
	})
	p := NewAsyncPublisher(blocking, 1, zap.NewNop(), WithObserver(obs))

	for i := 0; i < 5; i++ {
		p.Publish(context.Background(), shared.NewEvent(shared.EventNotice, shared.Notice{}))
	}
	assert.Eventually(t, func() bool { return obs.droppedFor("buffer_full") >= 3 }, time.Second, 5*time.Millisecond)

	close(release)
	require.NoError(t, p.Close(context.Background()))
}

func TestAsyncPublisher_BreakerOpens(t *testing.T) {
	obs := newCountingObserver()
	failing := SinkFunc(func(context.Context, shared.Event) error { return stderrors.New("down") })
	cfg := DefaultBreakerConfig("test")
	cfg.MinRequests = 2
	cfg.Timeout = time.Minute
	p := NewAsyncPublisher(failing, 16, zap.NewNop(), WithObserver(obs), WithBreaker(cfg))

	for i := 0; i < 6; i++ {
		p.Publish(context.Background(), shared.NewEvent(shared.EventDeleteNodes, shared.DeleteNodes{}))
	}
	require.NoError(t, p.Close(context.Background()))

	assert.Equal(t, 2, obs.droppedFor("sink_error"))
	assert.Equal(t, 4, obs.droppedFor("breaker_open"))
}

func TestAsyncPublisher_PublishAfterClose(t *testing.T) {
	obs := newCountingObserver()
	p := NewAsyncPublisher(NewRecorder(), 4, zap.NewNop(), WithObserver(obs))
	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, p.Close(context.Background()))

	p.Publish(context.Background(), shared.NewEvent(shared.EventNotice, shared.Notice{}))
	assert.Equal(t, 1, obs.droppedFor("closed"))
}

func TestWriterSink_WritesNDJSON(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	require.NoError(t, sink.Deliver(context.Background(), shared.NewEvent(shared.EventCardResized, shared.CardResized{ID: "a", Width: 200, Height: 150})))
	require.NoError(t, sink.Deliver(context.Background(), shared.NewEvent(shared.EventCardUngrouped, shared.CardUngrouped{CardID: "a"})))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var decoded struct {
		Event   string `json:"event"`
		Payload struct {
			ID     string  `json:"id"`
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, "card_resized", decoded.Event)
	assert.Equal(t, 200.0, decoded.Payload.Width)
}

func TestFanout_ReturnsFirstError(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	boom := stderrors.New("boom")
	f := Fanout{a, SinkFunc(func(context.Context, shared.Event) error { return boom }), b}

	err := f.Deliver(context.Background(), shared.NewEvent(shared.EventNotice, shared.Notice{}))
	assert.Equal(t, boom, err)
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestRecorder_Named(t *testing.T) {
	r := NewRecorder()
	r.Publish(context.Background(), shared.NewEvent(shared.EventCardMoved, nil))
	r.Publish(context.Background(), shared.NewEvent(shared.EventNotice, nil))
	r.Publish(context.Background(), shared.NewEvent(shared.EventCardMoved, nil))

	assert.Len(t, r.Named(shared.EventCardMoved), 2)
	assert.Equal(t, []shared.EventName{shared.EventCardMoved, shared.EventNotice, shared.EventCardMoved}, r.Names())
	r.Reset()
	assert.Empty(t, r.Events())
}
