package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/odvcencio/codeeditor/pkg/host"
	"github.com/odvcencio/codeeditor/pkg/logging"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

const (
	// WarningThreshold is how long before expiry the first warning appears.
	WarningThreshold = 15 * time.Minute
	// RemindInterval spaces repeated warnings.
	RemindInterval = 5 * time.Minute
)

const (
	WarningHeader = "Session expiring soon"

	ButtonRemind         = "Remind me in 5 minutes"
	ButtonSave           = "Save"
	ButtonSaveAndRenew   = "Save and renew session"
	ButtonSignIn         = "Sign In"
	SignInHeader         = "Please sign in again"
	SignInMessage        = "You were logged out of your account. Choose 'Sign In' to continue using this workplace."
	SignInMessageNoRetry = "You were logged out of your account. You are not able to\n" +
		"                  perform actions in your workplace at this time. Please start a\n" +
		"                  new session."

	ssoRenewMessage = `To renew the session, log out from Studio App via "File" -> "Log Out" and then "Sign out" from AWS IAM Identity Center (successor to AWS SSO) user portal. Do you want to save all changes now?`
	iamRenewMessage = "Do you want to renew your session now?"
)

// WarningButtons returns the choices offered in the expiry warning.
func WarningButtons(c Cookie) []string {
	if c.IsSSO() {
		return []string{ButtonRemind, ButtonSave}
	}
	return []string{ButtonRemind, ButtonSaveAndRenew}
}

// WarningDetail is the body of the expiry warning.
func WarningDetail(remaining time.Duration, c Cookie) string {
	msg := iamRenewMessage
	if c.IsSSO() {
		msg = ssoRenewMessage
	}
	minutes := int64(remaining / time.Minute)
	return fmt.Sprintf("Your session will expire in %d minutes. If your session expires, you could lose unsaved changes \n %s", minutes, msg)
}

// State is the scheduler's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateScheduled
	StateWarning
	StateExpired
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateWarning:
		return "warning"
	case StateExpired:
		return "expired"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Timer is a pending callback.
type Timer interface {
	Stop() bool
}

// Clock supplies time and deferred callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock uses the wall clock.
func SystemClock() Clock { return systemClock{} }

// Options configure a Scheduler.
type Options struct {
	Window host.Window
	Source CookieSource
	Clock  Clock
	// PortalURL, when set, is preferred over the cookie's redirect for signing in.
	PortalURL string
	Logger    *observability.Logger
	Events    *logging.Logger
}

// Scheduler keeps at most one pending timer. Every pass re-reads the cookie
// so an externally renewed session silently pushes the warning out.
type Scheduler struct {
	window    host.Window
	source    CookieSource
	clock     Clock
	portalURL string
	logger    *observability.Logger
	events    *logging.Logger

	mu    sync.Mutex
	ctx   context.Context
	state State
	timer Timer
	delay time.Duration
}

// NewScheduler builds a scheduler. Window and Source are required.
func NewScheduler(opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	return &Scheduler{
		window:    opts.Window,
		source:    opts.Source,
		clock:     opts.Clock,
		portalURL: opts.PortalURL,
		logger:    opts.Logger,
		events:    opts.Events,
		ctx:       context.Background(),
	}
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PendingDelay returns the delay of the pending timer, or zero.
func (s *Scheduler) PendingDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateScheduled {
		return 0
	}
	return s.delay
}

// Start reads the cookie once and arms the first timer. An empty cookie
// leaves the scheduler idle.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	c, err := s.source.Cookie(ctx)
	if err != nil {
		return fmt.Errorf("read session cookie: %w", err)
	}
	if c.IsEmpty() {
		s.logger.Debug("no session cookie, running locally")
		return nil
	}
	s.initialize(c)
	return nil
}

// Stop cancels any pending timer. The scheduler cannot be restarted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.transitionLocked(StateStopped, 0)
}

func (s *Scheduler) initialize(c Cookie) {
	remaining := c.Remaining(s.clock.Now())
	switch {
	case remaining <= 0:
		s.signIn(c)
	case remaining >= WarningThreshold:
		s.schedule(remaining - WarningThreshold)
	default:
		s.schedule(remaining % RemindInterval)
	}
}

func (s *Scheduler) schedule(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clock.AfterFunc(d, s.check)
	s.transitionLocked(StateScheduled, d)
}

func (s *Scheduler) transitionLocked(to State, delay time.Duration) {
	from := s.state
	s.state = to
	s.delay = delay
	observability.SessionTransitions.WithLabelValues(to.String()).Inc()
	s.logger.SessionTransition(from.String(), to.String(), delay)
	if s.events != nil {
		_ = s.events.Info(logging.CategorySession, "session.transition", to.String(), map[string]any{
			"from":     from.String(),
			"delay_ms": delay.Milliseconds(),
		})
	}
}

func (s *Scheduler) setState(to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return false
	}
	s.timer = nil
	s.transitionLocked(to, 0)
	return true
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// check is the timer callback.
func (s *Scheduler) check() {
	ctx := s.context()
	if ctx.Err() != nil {
		s.Stop()
		return
	}
	c, err := s.source.Cookie(ctx)
	if err != nil {
		s.logger.OperationFailed("read session cookie", err)
		s.setState(StateIdle)
		return
	}
	if c.IsEmpty() {
		s.setState(StateIdle)
		return
	}

	remaining := c.Remaining(s.clock.Now())
	switch {
	case remaining > WarningThreshold:
		s.initialize(c)
	case remaining > 0:
		s.warn(ctx, c, remaining)
	default:
		s.signIn(c)
	}
}

func (s *Scheduler) warn(ctx context.Context, c Cookie, remaining time.Duration) {
	if !s.setState(StateWarning) {
		return
	}
	choice, err := s.window.ShowWarning(ctx, host.Message{
		Text:    WarningHeader,
		Detail:  WarningDetail(remaining, c),
		Modal:   true,
		Buttons: WarningButtons(c),
	})
	if err != nil {
		s.logger.OperationFailed("show expiry warning", err)
		s.setState(StateIdle)
		return
	}

	switch choice {
	case ButtonRemind:
		s.schedule(RemindInterval)
	case ButtonSave:
		s.saveAll(ctx)
		s.setState(StateIdle)
	case ButtonSaveAndRenew:
		s.saveAll(ctx)
		if err := s.window.OpenExternal(ctx, c.RedirectURL); err != nil {
			s.logger.OperationFailed("open renewal url", err)
		}
		s.schedule(RemindInterval)
	default:
		s.setState(StateIdle)
	}
}

func (s *Scheduler) saveAll(ctx context.Context) {
	if err := s.window.SaveAll(ctx); err != nil {
		s.logger.OperationFailed("save all", err)
	}
}

// SignInURL is where the user is sent once the session is gone.
func (s *Scheduler) SignInURL(c Cookie) string {
	if s.portalURL != "" {
		return s.portalURL
	}
	return c.RedirectURL
}

func (s *Scheduler) signIn(c Cookie) {
	if !s.setState(StateExpired) {
		return
	}
	ctx := s.context()
	target := s.SignInURL(c)

	msg := host.Message{Text: SignInHeader, Modal: true, Detail: SignInMessageNoRetry}
	if target != "" {
		msg.Detail = SignInMessage
		msg.Buttons = []string{ButtonSignIn}
	}
	choice, err := s.window.ShowError(ctx, msg)
	if err != nil {
		s.logger.OperationFailed("show sign-in dialog", err)
		return
	}
	if choice == ButtonSignIn && target != "" {
		if err := s.window.OpenExternal(ctx, target); err != nil {
			s.logger.OperationFailed("open sign-in url", err)
		}
	}
}
