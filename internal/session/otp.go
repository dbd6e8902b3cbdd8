package session

import (
	"context"
	"sync"
	"time"

	"github.com/dmaguire/rampart/internal/common"
)

// DefaultOTPCooldown is the resend cooldown in seconds.
const DefaultOTPCooldown = 120

// OTPState is the countdown state of an OTP verification screen.
type OTPState int

const (
	// StateCounting means the resend cooldown is still running.
	StateCounting OTPState = iota
	// StateReadyToResend means the cooldown reached zero and a resend may
	// be requested.
	StateReadyToResend
)

func (s OTPState) String() string {
	if s == StateReadyToResend {
		return "ready"
	}
	return "counting"
}

// ResendFunc asks the backend to re-issue the one-time code.
type ResendFunc func(ctx context.Context) error

// OTPFlow is the resend-cooldown state machine behind an OTP verification
// screen. It starts in Counting(initial), ticks down once per second, and
// accepts a resend only once the cooldown reaches zero. A resend resets the
// cooldown immediately, before the network call resolves, so the screen
// cannot be re-clicked while the request is in flight.
type OTPFlow struct {
	mu        sync.Mutex
	initial   int
	remaining int
	inflight  bool
	stopped   bool
	resend    ResendFunc
	notify    Notifier
	logger    *common.Logger
}

// NewOTPFlow creates a flow in Counting(initial). An initial value of zero
// or less uses DefaultOTPCooldown.
func NewOTPFlow(initial int, resend ResendFunc, notify Notifier, logger *common.Logger) *OTPFlow {
	if initial <= 0 {
		initial = DefaultOTPCooldown
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &OTPFlow{
		initial:   initial,
		remaining: initial,
		resend:    resend,
		notify:    notify,
		logger:    logger,
	}
}

// State returns the current state and, while counting, the remaining seconds.
func (f *OTPFlow) State() (OTPState, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.remaining == 0 {
		return StateReadyToResend, 0
	}
	return StateCounting, f.remaining
}

// InFlight reports whether a resend request is outstanding.
func (f *OTPFlow) InFlight() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inflight
}

// Tick advances the countdown by one second. Ticks after Stop or once the
// cooldown reached zero do nothing.
func (f *OTPFlow) Tick() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped || f.remaining == 0 {
		return
	}
	f.remaining--
}

// Resend requests a new code. Only legal in ReadyToResend; while counting it
// returns ErrResendUnavailable and changes nothing. The cooldown resets to
// the initial value before the network call is made, and stays reset whether
// or not the call succeeds.
func (f *OTPFlow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return ErrResendUnavailable
	}
	if f.remaining > 0 {
		f.mu.Unlock()
		return ErrResendUnavailable
	}
	f.remaining = f.initial
	f.inflight = true
	f.mu.Unlock()

	err := f.resend(ctx)

	f.mu.Lock()
	f.inflight = false
	f.mu.Unlock()

	if err != nil {
		f.logger.Debug().Err(err).Msg("code resend failed")
		if f.notify != nil {
			f.notify.Error("Could not resend the code: " + err.Error())
		}
		return err
	}
	if f.notify != nil {
		f.notify.Success("A new code has been sent")
	}
	return nil
}

// Run drives the countdown off a wall-clock ticker until the context is
// cancelled or Stop is called. Teardown cancels the timer; no state changes
// happen afterwards.
func (f *OTPFlow) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.Stop()
			return
		case <-ticker.C:
			f.mu.Lock()
			stopped := f.stopped
			f.mu.Unlock()
			if stopped {
				return
			}
			f.Tick()
		}
	}
}

// Stop tears the flow down. Subsequent ticks and resends are ignored.
func (f *OTPFlow) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}
