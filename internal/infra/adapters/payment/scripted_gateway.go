package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"flixgo-client/internal/domain"
	"flixgo-client/internal/domain/model"
	"flixgo-client/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*ScriptedGateway)(nil)

// ScriptedGateway is an in-memory STK gateway for tests and offline demos.
// Each checkout request answers its polls from Script in order; once the
// script runs out the last entry repeats.
type ScriptedGateway struct {
	mu      sync.Mutex
	seq     int64
	Script  []model.STKStatus
	Reject  string // non-empty: initiation answers success=false with this message
	intents map[string]*scriptedIntent
}

type scriptedIntent struct {
	amount decimal.Decimal
	planID int
	polls  int
}

// NewScriptedGateway returns a gateway whose polls replay script.
// With no script every poll reports the pending code.
func NewScriptedGateway(script ...model.STKStatus) *ScriptedGateway {
	return &ScriptedGateway{
		Script:  script,
		intents: make(map[string]*scriptedIntent),
	}
}

func (g *ScriptedGateway) Name() string { return "scripted" }

func (g *ScriptedGateway) next() string {
	g.seq++
	return fmt.Sprintf("ws_CO_%06d", g.seq)
}

func (g *ScriptedGateway) InitiateSTKPush(ctx context.Context, phone string, amount decimal.Decimal, planID int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Reject != "" {
		return "", &domain.ProviderRejection{Message: g.Reject}
	}
	id := g.next()
	g.intents[id] = &scriptedIntent{amount: amount, planID: planID}
	return id, nil
}

func (g *ScriptedGateway) CheckSTKStatus(ctx context.Context, checkoutRequestID string) (*model.STKStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[checkoutRequestID]
	if !ok {
		return nil, fmt.Errorf("scripted: checkout request %s not found", checkoutRequestID)
	}
	in.polls++
	if len(g.Script) == 0 {
		return &model.STKStatus{Success: true, ResultCode: model.ResultCodePending, ResultDesc: "request is being processed"}, nil
	}
	i := in.polls - 1
	if i >= len(g.Script) {
		i = len(g.Script) - 1
	}
	st := g.Script[i]
	return &st, nil
}

// Amount returns the amount recorded for a checkout request.
func (g *ScriptedGateway) Amount(checkoutRequestID string) (decimal.Decimal, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[checkoutRequestID]
	if !ok {
		return decimal.Zero, false
	}
	return in.amount, true
}
