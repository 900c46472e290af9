package ui

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"flixgo-client/internal/domain/ports/adapter"
	"flixgo-client/internal/infra/logging"
)

var _ adapter.Navigator = (*Router)(nil)

const RouteHome = "/"

// Router keeps the view history. Back never pops the root view.
type Router struct {
	mu      sync.Mutex
	history []string
	log     *zerolog.Logger
	onNav   func(path string)
}

func NewRouter(logger *zerolog.Logger) *Router {
	return &Router{history: []string{RouteHome}, log: logger}
}

// OnNavigate registers fn to run after every view change, outside the lock.
func (r *Router) OnNavigate(fn func(path string)) {
	r.mu.Lock()
	r.onNav = fn
	r.mu.Unlock()
}

func (r *Router) Navigate(ctx context.Context, path string) {
	r.mu.Lock()
	r.history = append(r.history, path)
	fn := r.onNav
	r.mu.Unlock()

	logging.With(ctx, r.log).Info().Str("path", path).Msg("navigate")
	if fn != nil {
		fn(path)
	}
}

func (r *Router) Back(ctx context.Context) {
	r.mu.Lock()
	if len(r.history) > 1 {
		r.history = r.history[:len(r.history)-1]
	}
	cur := r.history[len(r.history)-1]
	fn := r.onNav
	r.mu.Unlock()

	logging.With(ctx, r.log).Info().Str("path", cur).Msg("navigate back")
	if fn != nil {
		fn(cur)
	}
}

// Current is the view on top of the history.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[len(r.history)-1]
}
