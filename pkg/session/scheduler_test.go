package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/odvcencio/codeeditor/pkg/host"
	"github.com/odvcencio/codeeditor/pkg/host/mocks"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves time forward and fires due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.at.After(target) && (next == nil || t.at.Before(next.at)) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.stopped = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
	}
}

type mutableSource struct {
	mu     sync.Mutex
	cookie Cookie
}

func (m *mutableSource) set(c Cookie) {
	m.mu.Lock()
	m.cookie = c
	m.mu.Unlock()
}

func (m *mutableSource) Cookie(context.Context) (Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cookie, nil
}

func expiringIn(clock *fakeClock, mode string, d time.Duration) Cookie {
	ms := strconv.FormatInt(clock.Now().Add(d).UnixMilli(), 10)
	c := Cookie{AuthMode: mode, RedirectURL: "https://studio.example.com/signin"}
	if mode == AuthModeSSO {
		c.SSOExpiryTimestamp = ms
	} else {
		c.ExpiryTime = ms
	}
	return c
}

func newTestScheduler(t *testing.T, window host.Window, source CookieSource, clock Clock, portal string) *Scheduler {
	t.Helper()
	s := NewScheduler(Options{Window: window, Source: source, Clock: clock, PortalURL: portal})
	t.Cleanup(s.Stop)
	return s
}

func TestIAMWarningFiresFiveMinutesIn(t *testing.T) {
	ctrl := gomock.NewController(t)
	window := mocks.NewMockWindow(ctrl)
	clock := newFakeClock()
	src := &mutableSource{cookie: expiringIn(clock, AuthModeIAM, 20*time.Minute)}

	s := newTestScheduler(t, window, src, clock, "")
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateScheduled, s.State())
	assert.Equal(t, 5*time.Minute, s.PendingDelay())

	clock.Advance(5*time.Minute - time.Second)
	assert.Equal(t, StateScheduled, s.State(), "no dialog before the threshold")

	window.EXPECT().ShowWarning(gomock.Any(), host.Message{
		Text:    WarningHeader,
		Detail:  WarningDetail(15*time.Minute, src.cookie),
		Modal:   true,
		Buttons: []string{"Remind me in 5 minutes", "Save and renew session"},
	}).Return("", nil)

	clock.Advance(time.Second)
	assert.Equal(t, StateIdle, s.State())
}

func TestSSOWarningButtons(t *testing.T) {
	ctrl := gomock.NewController(t)
	window := mocks.NewMockWindow(ctrl)
	clock := newFakeClock()
	src := &mutableSource{cookie: expiringIn(clock, AuthModeSSO, 20*time.Minute)}

	s := newTestScheduler(t, window, src, clock, "")
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 5*time.Minute, s.PendingDelay())

	window.EXPECT().ShowWarning(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg host.Message) (string, error) {
			assert.Equal(t, []string{"Remind me in 5 minutes", "Save"}, msg.Buttons)
			assert.Contains(t, msg.Detail, "Your session will expire in 15 minutes.")
			assert.Contains(t, msg.Detail, "IAM Identity Center")
			return ButtonSave, nil
		})
	window.EXPECT().SaveAll(gomock.Any()).Return(nil)

	clock.Advance(5 * time.Minute)
	assert.Equal(t, StateIdle, s.State())
	assert.Zero(t, clock.pending(), "save does not reschedule")
}

func TestRemindReschedulesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	window := mocks.NewMockWindow(ctrl)
	clock := newFakeClock()
	src := &mutableSource{cookie: expiringIn(clock, AuthModeIAM, 15*time.Minute)}

	s := newTestScheduler(t, window, src, clock, "")
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, time.Duration(0), s.PendingDelay())
	assert.Equal(t, StateScheduled, s.State())

	gomock.InOrder(
		window.EXPECT().ShowWarning(gomock.Any(), gomock.Any()).Return(ButtonRemind, nil),
		window.EXPECT().ShowWarning(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, msg host.Message) (string, error) {
				assert.Contains(t, msg.Detail, "expire in 10 minutes")
				return "", nil
			}),
	)

	clock.Advance(0)
	assert.Equal(t, StateScheduled, s.State())
	assert.Equal(t, RemindInterval, s.PendingDelay())
	assert.Equal(t, 1, clock.pending())

	clock.Advance(RemindInterval)
	assert.Equal(t, StateIdle, s.State())
}

func TestSaveAndRenewOpensRedirectAndRechecks(t *testing.T) {
	ctrl := gomock.NewController(t)
	window := mocks.NewMockWindow(ctrl)
	clock := newFakeClock()
	src := &mutableSource{cookie: expiringIn(clock, AuthModeIAM, 10*time.Minute)}

	s := newTestScheduler(t, window, src, clock, "")
	require.NoError(t, s.Start(context.Background()))

	window.EXPECT().ShowWarning(gomock.Any(), gomock.Any()).Return(ButtonSaveAndRenew, nil)
	window.EXPECT().SaveAll(gomock.Any()).Return(errors.New("disk full"))
	window.EXPECT().OpenExternal(gomock.Any(), "https://studio.example.com/signin").Return(nil)

	clock.Advance(0)
	assert.Equal(t, StateScheduled, s.State())
	assert.Equal(t, RemindInterval, s.PendingDelay())

	// the renewal pushed expiry out by an hour: the next pass reschedules silently
	src.set(expiringIn(clock, AuthModeIAM, time.Hour))
	clock.Advance(RemindInterval)
	assert.Equal(t, StateScheduled, s.State())
	assert.Equal(t, 40*time.Minute, s.PendingDelay())
}

func TestExpiredPrefersPortalURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	window := mocks.NewMockWindow(ctrl)
	clock := newFakeClock()
	src := &mutableSource{cookie: expiringIn(clock, AuthModeIAM, -time.Minute)}
	portal := "https://dzd.sagemaker.us-east-1.on.aws/projects/p/overview"

	window.EXPECT().ShowError(gomock.Any(), host.Message{
		Text:    SignInHeader,
		Detail:  SignInMessage,
		Modal:   true,
		Buttons: []string{ButtonSignIn},
	}).Return(ButtonSignIn, nil)
	window.EXPECT().OpenExternal(gomock.Any(), portal).Return(nil)

	s := newTestScheduler(t, window, src, clock, portal)
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateExpired, s.State())
}

func TestExpiredWithoutRedirect(t *testing.T) {
	ctrl := gomock.NewController(t)
	window := mocks.NewMockWindow(ctrl)
	clock := newFakeClock()
	c := expiringIn(clock, AuthModeIAM, -time.Minute)
	c.RedirectURL = ""
	src := &mutableSource{cookie: c}

	window.EXPECT().ShowError(gomock.Any(), host.Message{
		Text:   SignInHeader,
		Detail: SignInMessageNoRetry,
		Modal:  true,
	}).Return("", nil)

	s := newTestScheduler(t, window, src, clock, "")
	require.NoError(t, s.Start(context.Background()))
}

func TestUnknownAuthModeIsExpired(t *testing.T) {
	ctrl := gomock.NewController(t)
	window := mocks.NewMockWindow(ctrl)
	clock := newFakeClock()
	src := &mutableSource{cookie: Cookie{AuthMode: "Other", RedirectURL: "https://x"}}

	window.EXPECT().ShowError(gomock.Any(), gomock.Any()).Return("", nil)

	s := newTestScheduler(t, window, src, clock, "")
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateExpired, s.State())
}

func TestEmptyCookieDoesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	window := mocks.NewMockWindow(ctrl)
	clock := newFakeClock()

	s := newTestScheduler(t, window, &mutableSource{}, clock, "")
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateIdle, s.State())
	assert.Zero(t, clock.pending())
}

func TestCookieRemovedBeforeWarning(t *testing.T) {
	ctrl := gomock.NewController(t)
	window := mocks.NewMockWindow(ctrl)
	clock := newFakeClock()
	src := &mutableSource{cookie: expiringIn(clock, AuthModeIAM, 20*time.Minute)}

	s := newTestScheduler(t, window, src, clock, "")
	require.NoError(t, s.Start(context.Background()))
	src.set(Cookie{})
	clock.Advance(5 * time.Minute)
	assert.Equal(t, StateIdle, s.State())
}

func TestStopCancelsPendingTimer(t *testing.T) {
	ctrl := gomock.NewController(t)
	window := mocks.NewMockWindow(ctrl)
	clock := newFakeClock()
	src := &mutableSource{cookie: expiringIn(clock, AuthModeIAM, 20*time.Minute)}

	s := newTestScheduler(t, window, src, clock, "")
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
	assert.Equal(t, StateStopped, s.State())
	assert.Zero(t, clock.pending())
	clock.Advance(time.Hour)
}

func TestRestartReplacesTimer(t *testing.T) {
	ctrl := gomock.NewController(t)
	window := mocks.NewMockWindow(ctrl)
	clock := newFakeClock()
	src := &mutableSource{cookie: expiringIn(clock, AuthModeIAM, 30*time.Minute)}

	s := newTestScheduler(t, window, src, clock, "")
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 1, clock.pending(), "at most one timer is ever pending")
}
