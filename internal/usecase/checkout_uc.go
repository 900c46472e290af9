// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"flixgo-client/internal/domain"
	"flixgo-client/internal/domain/model"
	"flixgo-client/internal/domain/ports/adapter"
	"flixgo-client/internal/domain/ports/repository"
	"flixgo-client/internal/infra/logging"
	"flixgo-client/internal/infra/metrics"
)

// User-facing checkout messages.
const (
	MsgInvalidPhone     = "Enter valid phone: 2547xxxxxxxx"
	MsgSendingPush      = "Sending STK Push to your phone..."
	MsgPushSent         = "STK Push sent! Check your phone"
	MsgInitiateFallback = "Payment failed. Try again."
	MsgPaymentSucceeded = "Payment successful! Redirecting..."
	MsgPaymentTimeout   = "Payment timeout. Please try again."
	MsgPlanNotFound     = "Plan not found"
	MsgPlanLoadFailed   = "Failed to load plan"
	MsgRateLimited      = "Too many payment requests. Try again later."
	MsgPaymentCancelled = "Payment cancelled"

	RoutePaymentSuccess = "/payment-success"
)

// maxRetainedAttempts bounds how many finished attempts stay addressable.
const maxRetainedAttempts = 64

// CheckoutOptions tunes the poll loop. Zero values take the defaults.
type CheckoutOptions struct {
	PollInterval  time.Duration // default 5s
	MaxAttempts   int           // default 36
	RedirectDelay time.Duration // default 1.5s
	RevealPII     bool          // log phone numbers unmasked
}

func (o *CheckoutOptions) applyDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 36
	}
	if o.RedirectDelay <= 0 {
		o.RedirectDelay = 1500 * time.Millisecond
	}
}

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	// Initiate validates the phone, prices the plan and sends the STK push.
	// On success the returned attempt is AWAITING_CONFIRMATION and polling
	// runs in the background until a terminal state.
	Initiate(ctx context.Context, planID int, cycle model.BillingCycle, phone string) (*model.PaymentAttempt, error)
	// Attempt returns a snapshot of an attempt by id.
	Attempt(ctx context.Context, id string) (*model.PaymentAttempt, error)
	// Cancel stops polling and any pending redirect for the attempt.
	Cancel(ctx context.Context, id string) error
	// Close tears down every attempt. Initiate fails afterwards.
	Close()
}

type checkoutUC struct {
	catalog adapter.Catalog
	gateway adapter.PaymentGateway
	store   repository.KeyValueStore
	sched   adapter.Scheduler
	notify  adapter.Notifier
	nav     adapter.Navigator
	limiter adapter.RateLimiter
	opts    CheckoutOptions
	log     *zerolog.Logger

	mu      sync.Mutex
	runs    map[string]*checkoutRun
	entropy io.Reader
	closed  bool
}

// checkoutRun owns one attempt and its timer. Every callback checks torn
// under mu before touching the attempt.
type checkoutRun struct {
	mu       sync.Mutex
	attempt  model.PaymentAttempt
	ctx      context.Context
	cancel   context.CancelFunc
	handle   adapter.Handle
	torn     bool
	finished bool
}

// NewCheckoutUseCase wires the orchestrator. limiter may be nil.
func NewCheckoutUseCase(
	catalog adapter.Catalog,
	gateway adapter.PaymentGateway,
	store repository.KeyValueStore,
	sched adapter.Scheduler,
	notify adapter.Notifier,
	nav adapter.Navigator,
	limiter adapter.RateLimiter,
	opts CheckoutOptions,
	logger *zerolog.Logger,
) *checkoutUC {
	opts.applyDefaults()
	l := logger.With().Str("component", "CheckoutUC").Logger()
	return &checkoutUC{
		catalog: catalog,
		gateway: gateway,
		store:   store,
		sched:   sched,
		notify:  notify,
		nav:     nav,
		limiter: limiter,
		opts:    opts,
		log:     &l,
		runs:    make(map[string]*checkoutRun),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (u *checkoutUC) Initiate(ctx context.Context, planID int, cycle model.BillingCycle, phone string) (*model.PaymentAttempt, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.Initiate")()

	if err := model.ValidatePhone(phone); err != nil {
		u.notify.Error(ctx, MsgInvalidPhone)
		return nil, err
	}

	run, err := u.register(ctx, planID, cycle, phone)
	if err != nil {
		return nil, err
	}
	log := logging.With(run.ctx, u.log)
	log.Info().
		Int("plan_id", planID).
		Str("billing", string(cycle)).
		Str("phone", logging.Redact(phone, u.opts.RevealPII)).
		Msg("checkout started")

	if u.limiter != nil {
		ok, lerr := u.limiter.Allow(run.ctx, phone)
		if lerr != nil {
			log.Warn().Err(lerr).Msg("rate limiter unavailable; allowing")
		} else if !ok {
			u.fail(run, MsgRateLimited)
			return run.snapshot(), domain.ErrRateLimited
		}
	}

	plan, err := u.resolvePlan(run.ctx, planID)
	if err != nil {
		msg := MsgPlanLoadFailed
		if errors.Is(err, domain.ErrNotFound) {
			msg = MsgPlanNotFound
		}
		u.fail(run, msg)
		return run.snapshot(), err
	}

	amount := model.ComputeAmount(plan, cycle)
	run.mu.Lock()
	run.attempt.Amount = amount
	run.mu.Unlock()

	u.notify.Info(run.ctx, MsgSendingPush)
	checkoutID, err := u.gateway.InitiateSTKPush(run.ctx, phone, amount, plan.ID)
	if err != nil {
		var rej *domain.ProviderRejection
		msg := MsgInitiateFallback
		if errors.As(err, &rej) && rej.Message != "" {
			msg = rej.Message
		}
		log.Warn().Err(err).Str("gateway", u.gateway.Name()).Msg("stk push initiation failed")
		if !u.fail(run, msg) {
			return run.snapshot(), domain.ErrSessionClosed
		}
		if !errors.Is(err, domain.ErrInitiation) {
			err = fmt.Errorf("%w: %w", domain.ErrInitiation, err)
		}
		return run.snapshot(), err
	}

	run.mu.Lock()
	if run.torn {
		run.mu.Unlock()
		return run.snapshot(), domain.ErrSessionClosed
	}
	run.attempt.CheckoutRequestID = checkoutID
	run.attempt.State = model.AttemptAwaitingConfirmation
	run.attempt.Message = MsgPushSent
	run.attempt.UpdatedAt = u.sched.Now()
	run.handle = u.sched.AfterFunc(u.opts.PollInterval, func() { u.tick(run) })
	run.mu.Unlock()

	metrics.IncCheckoutAttempt(string(model.AttemptAwaitingConfirmation))
	log.Info().Str("checkout_request_id", checkoutID).Str("amount", amount.StringFixed(2)).Msg("stk push sent")
	u.notify.Success(run.ctx, MsgPushSent)
	return run.snapshot(), nil
}

// register reserves the checkout for a new attempt.
func (u *checkoutUC) register(ctx context.Context, planID int, cycle model.BillingCycle, phone string) (*checkoutRun, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil, domain.ErrSessionClosed
	}
	for _, r := range u.runs {
		r.mu.Lock()
		busy := !r.torn && r.attempt.State.InFlight()
		r.mu.Unlock()
		if busy {
			return nil, domain.ErrAttemptInFlight
		}
	}

	now := u.sched.Now()
	id := ulid.MustNew(ulid.Timestamp(now), u.entropy).String()
	// The attempt outlives the caller's request but keeps its trace values.
	runCtx, cancel := context.WithCancel(logging.WithAttemptID(context.WithoutCancel(ctx), id))
	run := &checkoutRun{
		attempt: model.PaymentAttempt{
			ID:           id,
			PlanID:       planID,
			BillingCycle: cycle,
			Phone:        phone,
			State:        model.AttemptInitiating,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		ctx:    runCtx,
		cancel: cancel,
	}
	u.runs[id] = run
	u.pruneLocked()
	metrics.CheckoutStarted()
	metrics.IncCheckoutAttempt(string(model.AttemptInitiating))
	return run, nil
}

// pruneLocked forgets the oldest finished attempts. ULIDs sort by creation time.
func (u *checkoutUC) pruneLocked() {
	if len(u.runs) <= maxRetainedAttempts {
		return
	}
	ids := make([]string, 0, len(u.runs))
	for id := range u.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if len(u.runs) <= maxRetainedAttempts {
			return
		}
		r := u.runs[id]
		r.mu.Lock()
		done := r.finished
		r.mu.Unlock()
		if done {
			delete(u.runs, id)
		}
	}
}

func (u *checkoutUC) resolvePlan(ctx context.Context, planID int) (*model.SubscriptionPlan, error) {
	plans, err := u.catalog.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		if p != nil && p.ID == planID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: plan %d", domain.ErrNotFound, planID)
}

// tick is one poll. The counter moves before the network call; the result
// is applied only if the run was not torn down meanwhile.
func (u *checkoutUC) tick(run *checkoutRun) {
	run.mu.Lock()
	if run.torn || run.attempt.State != model.AttemptAwaitingConfirmation {
		run.mu.Unlock()
		return
	}
	run.handle = nil
	run.attempt.AttemptCount++
	count := run.attempt.AttemptCount
	checkoutID := run.attempt.CheckoutRequestID
	run.mu.Unlock()

	log := logging.With(run.ctx, u.log)
	start := time.Now()
	status, err := u.gateway.CheckSTKStatus(run.ctx, checkoutID)
	outcome := model.ClassifyPoll(status, err)
	metrics.ObservePoll(string(outcome), time.Since(start))

	run.mu.Lock()
	if run.torn {
		run.mu.Unlock()
		return
	}
	now := u.sched.Now()
	run.attempt.UpdatedAt = now

	// A 401 has already signed the user out and left the checkout view.
	if errors.Is(err, domain.ErrUnauthenticated) {
		run.attempt.CheckoutRequestID = ""
		u.finishLocked(run, model.AttemptFailed, MsgPaymentCancelled)
		run.torn = true
		run.mu.Unlock()

		log.Warn().Err(err).Int("poll", count).Msg("signed out while polling; checkout abandoned")
		return
	}

	switch outcome {
	case model.PollConfirmed:
		run.attempt.State = model.AttemptSucceeded
		run.attempt.Message = MsgPaymentSucceeded
		run.finished = true
		planID := run.attempt.PlanID
		redirect := fmt.Sprintf("%s?plan=%d&billing=%s", RoutePaymentSuccess, planID, run.attempt.BillingCycle)
		run.handle = u.sched.AfterFunc(u.opts.RedirectDelay, func() { u.redirect(run, redirect) })
		run.mu.Unlock()

		metrics.CheckoutFinished()
		metrics.IncCheckoutAttempt(string(model.AttemptSucceeded))
		log.Info().Int("poll", count).Int("plan_id", planID).Msg("payment confirmed")
		if werr := u.store.Set(run.ctx, repository.KeyCurrentPlanID, strconv.Itoa(planID)); werr != nil {
			log.Error().Err(werr).Msg("persist current plan")
		}
		u.notify.Success(run.ctx, MsgPaymentSucceeded)
		return

	case model.PollDefinitiveFailure:
		desc := status.ResultDesc
		if desc == "" {
			desc = "Unknown error"
		}
		msg := "Payment failed: " + desc
		u.finishLocked(run, model.AttemptFailed, msg)
		run.mu.Unlock()

		log.Warn().
			Err(domain.ErrProviderFailure).
			Str("result_code", status.ResultCode).
			Str("result_desc", status.ResultDesc).
			Int("poll", count).
			Msg("payment failed")
		u.notify.Error(run.ctx, msg)
		return
	}

	if err != nil {
		log.Debug().Err(fmt.Errorf("%w: %v", domain.ErrTransientPoll, err)).Int("poll", count).Msg("polling")
	}
	if count >= u.opts.MaxAttempts {
		run.attempt.CheckoutRequestID = ""
		u.finishLocked(run, model.AttemptTimedOut, MsgPaymentTimeout)
		run.mu.Unlock()

		log.Warn().Err(domain.ErrPaymentTimeout).Int("polls", count).Msg("payment timed out")
		u.notify.Error(run.ctx, MsgPaymentTimeout)
		return
	}
	run.handle = u.sched.AfterFunc(u.opts.PollInterval, func() { u.tick(run) })
	run.mu.Unlock()
}

func (u *checkoutUC) redirect(run *checkoutRun, path string) {
	run.mu.Lock()
	if run.torn {
		run.mu.Unlock()
		return
	}
	run.handle = nil
	run.attempt.RedirectTo = path
	run.mu.Unlock()

	u.nav.Navigate(run.ctx, path)
	run.cancel()
}

// fail moves a run that never reached polling to FAILED and notifies once.
// It reports false when the run was already torn down.
func (u *checkoutUC) fail(run *checkoutRun, msg string) bool {
	run.mu.Lock()
	if run.torn {
		run.mu.Unlock()
		return false
	}
	run.attempt.UpdatedAt = u.sched.Now()
	u.finishLocked(run, model.AttemptFailed, msg)
	run.mu.Unlock()
	u.notify.Error(run.ctx, msg)
	return true
}

// finishLocked ends the attempt in a terminal state. run.mu must be held.
func (u *checkoutUC) finishLocked(run *checkoutRun, state model.AttemptState, msg string) {
	if run.handle != nil {
		run.handle.Cancel()
		run.handle = nil
	}
	run.attempt.State = state
	run.attempt.Message = msg
	if !run.finished {
		run.finished = true
		metrics.CheckoutFinished()
	}
	metrics.IncCheckoutAttempt(string(state))
	run.cancel()
}

func (u *checkoutUC) Attempt(ctx context.Context, id string) (*model.PaymentAttempt, error) {
	u.mu.Lock()
	run, ok := u.runs[id]
	u.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: attempt %s", domain.ErrNotFound, id)
	}
	return run.snapshot(), nil
}

func (u *checkoutUC) Cancel(ctx context.Context, id string) error {
	u.mu.Lock()
	run, ok := u.runs[id]
	u.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: attempt %s", domain.ErrNotFound, id)
	}
	u.teardown(run)
	return nil
}

func (u *checkoutUC) Close() {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}
	u.closed = true
	runs := make([]*checkoutRun, 0, len(u.runs))
	for _, r := range u.runs {
		runs = append(runs, r)
	}
	u.mu.Unlock()

	for _, r := range runs {
		u.teardown(r)
	}
}

// teardown cancels the pending timer and the attempt context. An attempt
// still in flight ends as FAILED without a notification.
func (u *checkoutUC) teardown(run *checkoutRun) {
	run.mu.Lock()
	defer run.mu.Unlock()
	if run.torn {
		return
	}
	if run.attempt.State.InFlight() {
		run.attempt.CheckoutRequestID = ""
		run.attempt.UpdatedAt = u.sched.Now()
		u.finishLocked(run, model.AttemptFailed, MsgPaymentCancelled)
	}
	if run.handle != nil {
		run.handle.Cancel()
		run.handle = nil
	}
	run.torn = true
	run.cancel()
	logging.With(run.ctx, u.log).Debug().Str("state", string(run.attempt.State)).Msg("checkout torn down")
}

func (r *checkoutRun) snapshot() *model.PaymentAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := r.attempt
	return &cp
}
