package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"flixgo-client/internal/config"
	"flixgo-client/internal/domain"
	"flixgo-client/internal/domain/model"
	"flixgo-client/internal/domain/ports/adapter"
	"flixgo-client/internal/domain/ports/repository"
	"flixgo-client/internal/infra/adapters/media"
	payAdapters "flixgo-client/internal/infra/adapters/payment"
	"flixgo-client/internal/infra/adapters/ui"
	"flixgo-client/internal/infra/backend"
	"flixgo-client/internal/infra/i18n"
	"flixgo-client/internal/infra/logging"
	"flixgo-client/internal/infra/sched"
	"flixgo-client/internal/infra/store"
	"flixgo-client/internal/usecase"
)

// Runner holds the use cases behind every command. They are built from the
// config on first use unless injected.
type Runner struct {
	plans     usecase.PlanUseCase
	checkout  usecase.CheckoutUseCase
	progress  usecase.ProgressUseCase
	playback  usecase.PlaybackUseCase
	clock     adapter.Scheduler
	mediaTick time.Duration
	output    io.Writer
	pollEvery time.Duration
	closers   []io.Closer
}

type RunnerOpts struct {
	Plans     usecase.PlanUseCase
	Checkout  usecase.CheckoutUseCase
	Progress  usecase.ProgressUseCase
	Playback  usecase.PlaybackUseCase
	Clock     adapter.Scheduler // drives the simulated player, default real time
	MediaTick time.Duration     // simulated player's playhead step, default 250ms
	Output    io.Writer
	PollEvery time.Duration // how often pay and watch re-read state
}

func NewRunner(opts RunnerOpts) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.PollEvery <= 0 {
		opts.PollEvery = 500 * time.Millisecond
	}
	if opts.Clock == nil {
		opts.Clock = sched.RealScheduler{}
	}
	return &Runner{
		plans:     opts.Plans,
		checkout:  opts.Checkout,
		progress:  opts.Progress,
		playback:  opts.Playback,
		clock:     opts.Clock,
		mediaTick: opts.MediaTick,
		output:    opts.Output,
		pollEvery: opts.PollEvery,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){plansCommand, payCommand, progressCommand, watchCommand} {
		commands = append(commands, fn(r))
	}
	return commands
}

// Close stops pending checkout timers and releases the store.
func (r *Runner) Close() {
	if r.checkout != nil {
		r.checkout.Close()
	}
	for _, c := range r.closers {
		_ = c.Close()
	}
}

func (r *Runner) ensure(ctx context.Context, cmd *cli.Command) error {
	if r.plans != nil && r.checkout != nil && r.progress != nil {
		return nil
	}
	cfg, err := config.LoadConfig(cmd.String("config"), cmd.Bool("dev"))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logCfg := cfg.Log
	if !cfg.Runtime.Dev {
		logCfg.Level = "warn"
	}
	logger := logging.NewWithWriter(os.Stderr, logCfg, cfg.Runtime.Dev)

	kv, closer, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	r.closers = append(r.closers, closer)
	if cfg.Backend.Token != "" {
		if err := kv.Set(ctx, repository.KeyToken, cfg.Backend.Token); err != nil {
			return fmt.Errorf("seed token: %w", err)
		}
	}

	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.UI.Locale)
	if err != nil {
		tr = nil
	}
	toaster := ui.NewToaster(r.output, tr, logger)
	router := ui.NewRouter(logger)

	apiClient, err := backend.NewClient(backend.Options{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout,
		RateLimit: cfg.Backend.RateLimit,
		Burst:     cfg.Backend.Burst,
	}, kv, router, logger)
	if err != nil {
		return err
	}
	catalog := backend.NewCatalog(apiClient, cfg.Backend.MediaBaseURL)

	opts := usecase.CheckoutOptions{
		PollInterval:  cfg.Payment.PollInterval,
		MaxAttempts:   cfg.Payment.MaxAttempts,
		RedirectDelay: cfg.Payment.RedirectDelay,
		RevealPII:     cfg.Runtime.Dev,
	}
	var gateway adapter.PaymentGateway
	if cmd.Bool("simulate") {
		// one pending poll, then confirmed
		gateway = payAdapters.NewScriptedGateway(
			model.STKStatus{Success: true, ResultCode: model.ResultCodePending, ResultDesc: "The transaction is being processed"},
			model.STKStatus{Success: true, ResultCode: model.ResultCodeSuccess, ResultDesc: "The service request is processed successfully."},
		)
		opts.PollInterval = time.Second
	} else if gateway, err = payAdapters.NewMpesaGateway(apiClient); err != nil {
		return err
	}

	r.plans = usecase.NewPlanUseCase(catalog, kv, logger)
	r.progress = usecase.NewProgressUseCase(kv, logger)
	r.checkout = usecase.NewCheckoutUseCase(catalog, gateway, kv, sched.RealScheduler{}, toaster, router, nil, opts, logger)
	r.playback = usecase.NewPlaybackUseCase(catalog, kv, r.clock, toaster, router, usecase.PlaybackOptionsFromConfig(cfg.Playback), logger)
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) {
	_, _ = fmt.Fprintf(r.output, format+"\n", args...)
}

func plansCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "plans",
		Usage:  "List purchasable plans with monthly and yearly prices",
		Action: r.Plans,
	}
}

// Plans prints the pricing table; the current plan is starred.
func (r *Runner) Plans(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx, cmd); err != nil {
		return err
	}
	plans, err := r.plans.List(ctx)
	if err != nil {
		return fmt.Errorf("list plans: %w", err)
	}
	current, err := r.plans.CurrentPlanID(ctx)
	if err != nil {
		return err
	}
	for _, p := range plans {
		mark := " "
		if p.ID == current {
			mark = "*"
		}
		r.writePlainln("%s %3d  %-20s  KES %10s/mo  KES %10s/yr",
			mark, p.ID, p.Name,
			r.plans.DisplayPrice(p, model.BillingMonthly).StringFixed(2),
			r.plans.DisplayPrice(p, model.BillingYearly).StringFixed(2))
	}
	return nil
}

func payCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pay",
		Usage: "Pay for a plan with an M-Pesa STK push and wait for the outcome",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "plan", Usage: "Plan ID", Required: true},
			&cli.StringFlag{Name: "billing", Usage: "monthly or yearly", Value: string(model.BillingMonthly)},
			&cli.StringFlag{Name: "phone", Usage: "Phone number, 2547xxxxxxxx", Required: true},
			&cli.BoolFlag{Name: "simulate", Usage: "Use an offline gateway that confirms after one pending poll"},
		},
		Action: r.Pay,
	}
}

// Pay starts a checkout and blocks until it reaches a terminal state.
func (r *Runner) Pay(ctx context.Context, cmd *cli.Command) error {
	cycle, err := model.ParseBillingCycle(cmd.String("billing"))
	if err != nil {
		return err
	}
	if err := r.ensure(ctx, cmd); err != nil {
		return err
	}
	attempt, err := r.checkout.Initiate(ctx, cmd.Int("plan"), cycle, cmd.String("phone"))
	if err != nil {
		return err
	}
	r.writePlainln("attempt %s: KES %s, waiting for confirmation", attempt.ID, attempt.Amount.StringFixed(2))

	final, err := r.wait(ctx, attempt.ID)
	if err != nil {
		return err
	}
	switch final.State {
	case model.AttemptSucceeded:
		r.writePlainln("paid: plan %d is now active", final.PlanID)
		return nil
	case model.AttemptTimedOut:
		return fmt.Errorf("%w: %s", domain.ErrPaymentTimeout, final.Message)
	default:
		return fmt.Errorf("%w: %s", domain.ErrProviderFailure, final.Message)
	}
}

// wait re-reads the attempt until it is terminal. Cancelling ctx cancels
// the attempt too.
func (r *Runner) wait(ctx context.Context, id string) (*model.PaymentAttempt, error) {
	t := time.NewTicker(r.pollEvery)
	defer t.Stop()
	for {
		a, err := r.checkout.Attempt(ctx, id)
		if err != nil {
			return nil, err
		}
		if a.State.Terminal() {
			return a, nil
		}
		select {
		case <-ctx.Done():
			_ = r.checkout.Cancel(context.WithoutCancel(ctx), id)
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func progressCommand(r *Runner) *cli.Command {
	movie := func() cli.Flag { return &cli.IntFlag{Name: "movie", Usage: "Movie ID", Required: true} }
	return &cli.Command{
		Name:  "progress",
		Usage: "Inspect or edit saved watch positions",
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "Show the saved position of a movie",
				Flags:  []cli.Flag{movie()},
				Action: r.ProgressGet,
			},
			{
				Name:  "set",
				Usage: "Save a position (seconds) for a movie",
				Flags: []cli.Flag{
					movie(),
					&cli.FloatFlag{Name: "position", Usage: "Position in seconds", Required: true},
				},
				Action: r.ProgressSet,
			},
			{
				Name:   "clear",
				Usage:  "Forget the saved position of a movie",
				Flags:  []cli.Flag{movie()},
				Action: r.ProgressClear,
			},
		},
	}
}

func (r *Runner) ProgressGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx, cmd); err != nil {
		return err
	}
	id := cmd.Int("movie")
	v, ok, err := r.progress.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no saved position for movie %d", domain.ErrNotFound, id)
	}
	r.writePlainln("movie %d: %s (%gs)", id, model.FormatClock(v), v)
	return nil
}

func (r *Runner) ProgressSet(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx, cmd); err != nil {
		return err
	}
	id, pos := cmd.Int("movie"), cmd.Float("position")
	if err := r.progress.Set(ctx, id, pos); err != nil {
		return err
	}
	r.writePlainln("movie %d: saved %s", id, model.FormatClock(pos))
	return nil
}

func (r *Runner) ProgressClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(ctx, cmd); err != nil {
		return err
	}
	if err := r.progress.Clear(ctx, cmd.Int("movie")); err != nil {
		return err
	}
	r.writePlainln("movie %d: cleared", cmd.Int("movie"))
	return nil
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Play a movie on a simulated headless player, resuming and saving the watch position",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "movie", Usage: "Movie ID", Required: true},
			&cli.FloatFlag{Name: "length", Usage: "Simulated running time in seconds", Value: 60},
			&cli.FloatFlag{Name: "speed", Usage: "Simulated seconds per real second", Value: 1},
			&cli.DurationFlag{Name: "for", Usage: "Stop watching after this long (0 = until the end)"},
		},
		Action: r.Watch,
	}
}

// Watch plays a movie until it ends, --for elapses or ctx is cancelled.
// Closing the session saves the final position.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	length, speed := cmd.Float("length"), cmd.Float("speed")
	if !(length > 0) || !(speed > 0) {
		return fmt.Errorf("%w: length and speed must be positive", domain.ErrInvalidArgument)
	}
	if err := r.ensure(ctx, cmd); err != nil {
		return err
	}
	if r.playback == nil {
		return errors.New("playback is not configured")
	}

	id := cmd.Int("movie")
	player := media.NewScriptedMedia(r.clock, media.ScriptedOptions{Duration: length, Tick: r.mediaTick, Speed: speed})
	defer player.Close()

	session, err := r.playback.Open(ctx, player, nil)
	if err != nil {
		return err
	}
	closeCtx := context.WithoutCancel(ctx)
	if err := session.Load(ctx, id); err != nil {
		_ = session.Close(closeCtx)
		return err
	}
	if !session.State().IsPlaying {
		if err := session.TogglePlay(ctx); err != nil {
			_ = session.Close(closeCtx)
			return err
		}
	}
	r.writePlainln("watching %q (movie %d)", session.State().Title, id)

	var limit <-chan time.Time
	if d := cmd.Duration("for"); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		limit = timer.C
	}
	t := time.NewTicker(r.pollEvery)
	defer t.Stop()
watching:
	for {
		switch session.State().State {
		case model.PlaybackEnded, model.PlaybackFailed:
			break watching
		}
		select {
		case <-ctx.Done():
			break watching
		case <-limit:
			break watching
		case <-t.C:
		}
	}

	pos := player.CurrentTime()
	if err := session.Close(closeCtx); err != nil {
		return err
	}
	r.writePlainln("movie %d: stopped at %s", id, model.FormatClock(pos))
	return nil
}
