package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestDispatcherKeepsPerKeyOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 400})

	var mu sync.Mutex
	got := map[string][]int{}
	for i := 0; i < 50; i++ {
		for _, chat := range []string{"1", "2", "3"} {
			chat, i := chat, i
			require.NoError(t, d.Enqueue(context.Background(), Job{
				Key:    chat,
				Action: "send.text",
				Run: func() error {
					mu.Lock()
					defer mu.Unlock()
					got[chat] = append(got[chat], i)
					return nil
				},
			}))
		}
	}
	d.Close()

	for _, chat := range []string{"1", "2", "3"} {
		require.Len(t, got[chat], 50, chat)
		for i, v := range got[chat] {
			assert.Equal(t, i, v, "chat %s out of order", chat)
		}
	}
	assert.Equal(t, uint64(150), d.Stats().Sent)
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})

	calls := 0
	require.NoError(t, d.Enqueue(context.Background(), Job{Key: "1", Run: func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("post: %w", timeoutErr{})
		}
		return nil
	}}))
	d.Close()

	assert.Equal(t, 3, calls)
	st := d.Stats()
	assert.Equal(t, uint64(1), st.Sent)
	assert.Equal(t, uint64(2), st.Retried)
	assert.Zero(t, st.Failed)
}

func TestDispatcherDoesNotRetryClientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})

	calls := 0
	require.NoError(t, d.Enqueue(context.Background(), Job{Key: "1", Run: func() error {
		calls++
		return &tele.Error{Code: 400, Description: "Bad Request: chat not found"}
	}}))
	d.Close()

	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(1), d.Stats().Failed)
}

func TestDispatcherGivesUpAfterMaxRetries(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 1, RetryBackoff: time.Millisecond})

	calls := 0
	require.NoError(t, d.Enqueue(context.Background(), Job{Run: func() error {
		calls++
		return &tele.Error{Code: 502}
	}}))
	d.Close()

	assert.Equal(t, 2, calls)
	assert.Equal(t, uint64(1), d.Stats().Failed)
}

func TestProcessReportsAttemptsMade(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	defer d.Close()
	ctx := context.Background()

	n := d.process(ctx, Job{Run: func() error {
		return &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}
	}})
	assert.Equal(t, 1, n)

	n = d.process(ctx, Job{Run: func() error { return &tele.Error{Code: 503} }})
	assert.Equal(t, 3, n)

	calls := 0
	n = d.process(ctx, Job{Run: func() error {
		calls++
		if calls == 1 {
			return timeoutErr{}
		}
		return nil
	}})
	assert.Equal(t, 2, n)
}

func TestDispatcherQueueFullAndClosed(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, d.Enqueue(context.Background(), Job{Run: func() error {
		close(started)
		<-release
		return nil
	}}))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), Job{Run: func() error { return nil }}))
	assert.ErrorIs(t, d.Enqueue(context.Background(), Job{Run: func() error { return nil }}), ErrQueueFull)

	close(release)
	d.Close()
	d.Close()
	assert.ErrorIs(t, d.Enqueue(context.Background(), Job{Run: func() error { return nil }}), ErrQueueClosed)
	assert.ErrorIs(t, d.Enqueue(context.Background(), Job{}), errNilRun)
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{context.DeadlineExceeded, "timeout"},
		{timeoutErr{}, "timeout"},
		{&net.OpError{Op: "dial", Err: errors.New("refused")}, "dial"},
		{&net.DNSError{Err: "no such host", Name: "api.telegram.org"}, "dns"},
		{&tele.Error{Code: 503}, "http_5xx"},
		{&tele.Error{Code: 403}, "http_4xx"},
		{errors.New("telegram: Too Many Requests (429)"), "flood"},
		{errors.New("boom"), "unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyError(tc.err), "%v", tc.err)
	}
}

func TestRedactHidesToken(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_CC/sendMessage": EOF`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF`, redact(err))
}
