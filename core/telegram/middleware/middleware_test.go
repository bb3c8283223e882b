package middleware

import (
	"testing"
	"time"

	"github.com/m3rciful/docbot/core/logger"
	tghelpers "github.com/m3rciful/docbot/core/telegram/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func contextFor(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b.NewContext(upd)
}

func message(userID int64) tele.Update {
	return tele.Update{Message: &tele.Message{
		Text:   "hi",
		Chat:   &tele.Chat{ID: userID},
		Sender: &tele.User{ID: userID},
	}}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	rejected, passed := 0, 0
	h := AdminOnlyMiddleware(AdminOptions{
		AdminID: 42,
		OnReject: func(tele.Context) error {
			rejected++
			return nil
		},
	})(func(tele.Context) error {
		passed++
		return nil
	})

	require.NoError(t, h(contextFor(t, message(42))))
	require.NoError(t, h(contextFor(t, message(7))))
	require.NoError(t, h(contextFor(t, tele.Update{})))
	assert.Equal(t, 1, passed)
	assert.Equal(t, 2, rejected)

	open := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error {
		passed++
		return nil
	})
	require.NoError(t, open(contextFor(t, message(42))))
	assert.Equal(t, 1, passed, "no admin configured means nobody passes")
}

func TestReplyMetricsSurviveSecondLoggerPass(t *testing.T) {
	c := contextFor(t, message(1))
	var replies int
	var kb bool
	h := LoggerMiddleware(ReplyMetricsMiddleware(LoggerMiddleware(func(c tele.Context) error {
		ctx := tghelpers.WithHandler(c, "menu")
		tghelpers.CountReply(ctx, false)
		tghelpers.CountReply(tghelpers.BuildContext(c), true)
		replies, kb = tghelpers.RepliesFrom(ctx)
		return nil
	})))
	require.NoError(t, h(c))

	assert.Equal(t, 2, replies)
	assert.True(t, kb)
	ctx, ok := tghelpers.ContextFrom(c)
	require.True(t, ok)
	assert.Equal(t, "0:1:1", logger.RIDFrom(ctx))
	assert.Equal(t, int64(1), logger.ChatIDFrom(ctx))
}

func TestRateLimitExcludesConfiguredKinds(t *testing.T) {
	calls := 0
	h := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"callback": {}},
	})(func(tele.Context) error {
		calls++
		return nil
	})

	cb := tele.Update{Callback: &tele.Callback{Sender: &tele.User{ID: 5}}}
	require.NoError(t, h(contextFor(t, cb)))
	require.NoError(t, h(contextFor(t, cb)))
	assert.Equal(t, 2, calls)
}

func TestRateLimitDropsBurst(t *testing.T) {
	calls, limited := 0, 0
	h := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		OnLimited: func(tele.Context) error {
			limited++
			return nil
		},
	})(func(tele.Context) error {
		calls++
		return nil
	})

	require.NoError(t, h(contextFor(t, message(9))))
	require.NoError(t, h(contextFor(t, message(9))))
	require.NoError(t, h(contextFor(t, message(10))))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, limited)
}

func TestLimiterForgetsStaleSenders(t *testing.T) {
	now := time.Unix(0, 0)
	lim := newLimiter(time.Second, func() time.Time { return now })

	require.True(t, lim.allow(1))
	assert.False(t, lim.allow(1))
	for id := int64(2); id <= pruneEvery; id++ {
		now = now.Add(10 * time.Millisecond)
		require.True(t, lim.allow(id))
	}
	// pruneEvery admissions happened; everything older than one second is gone.
	assert.Less(t, lim.size(), pruneEvery)
	assert.True(t, lim.allow(1))
}

func TestUpdateKind(t *testing.T) {
	assert.Equal(t, kindCallback, updateKind(tele.Update{Callback: &tele.Callback{}}))
	assert.Equal(t, kindMessage, updateKind(message(1)))
	assert.Equal(t, kindInlineQuery, updateKind(tele.Update{Query: &tele.Query{}}))
	assert.Equal(t, kindOther, updateKind(tele.Update{}))
}

func TestRecoverMiddlewareSwallowsPanic(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error {
		panic("boom")
	})
	assert.NotPanics(t, func() {
		assert.NoError(t, h(contextFor(t, message(1))))
	})
}
