// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"flixgo-client/internal/domain"
	"flixgo-client/internal/domain/model"
	"flixgo-client/internal/domain/ports/adapter"
	"flixgo-client/internal/domain/ports/repository"
)

// Routes the pricing page can send the user to.
const (
	RouteProfile  = "/profile"
	RouteCheckout = "/checkout"
)

var _ PlanUseCase = (*planUC)(nil)

type PlanUseCase interface {
	// List returns the purchasable plans ordered by ID.
	List(ctx context.Context) ([]*model.SubscriptionPlan, error)
	Get(ctx context.Context, planID int) (*model.SubscriptionPlan, error)
	// CurrentPlanID reads the plan recorded in the store; FreePlanID when none.
	CurrentPlanID(ctx context.Context) (int, error)
	// Choose handles a click on a plan card and returns the route to open next.
	Choose(ctx context.Context, planID int, cycle model.BillingCycle) (string, error)
	DisplayPrice(plan *model.SubscriptionPlan, cycle model.BillingCycle) decimal.Decimal
}

type planUC struct {
	catalog adapter.Catalog
	store   repository.KeyValueStore
	log     *zerolog.Logger
}

func NewPlanUseCase(catalog adapter.Catalog, store repository.KeyValueStore, logger *zerolog.Logger) *planUC {
	return &planUC{catalog: catalog, store: store, log: logger}
}

func (u *planUC) List(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	all, err := u.catalog.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.SubscriptionPlan, 0, len(all))
	for _, p := range all {
		if p != nil && p.Purchasable() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (u *planUC) Get(ctx context.Context, planID int) (*model.SubscriptionPlan, error) {
	all, err := u.catalog.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p != nil && p.ID == planID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: plan %d", domain.ErrNotFound, planID)
}

func (u *planUC) CurrentPlanID(ctx context.Context) (int, error) {
	raw, ok, err := u.store.Get(ctx, repository.KeyCurrentPlanID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return model.FreePlanID, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		u.log.Warn().Str("value", raw).Msg("ignoring malformed currentPlanId")
		return model.FreePlanID, nil
	}
	return id, nil
}

func (u *planUC) Choose(ctx context.Context, planID int, cycle model.BillingCycle) (string, error) {
	current, err := u.CurrentPlanID(ctx)
	if err != nil {
		return "", err
	}
	if planID == current {
		return RouteProfile, nil
	}
	plan, err := u.Get(ctx, planID)
	if err != nil {
		return "", err
	}
	if plan.IsFree() {
		if err := u.store.Set(ctx, repository.KeyCurrentPlanID, strconv.Itoa(model.FreePlanID)); err != nil {
			return "", err
		}
		u.log.Info().Int("plan_id", plan.ID).Msg("switched to free plan")
		return RouteProfile, nil
	}
	return CheckoutRoute(plan.ID, cycle), nil
}

func (u *planUC) DisplayPrice(plan *model.SubscriptionPlan, cycle model.BillingCycle) decimal.Decimal {
	return model.ComputeAmount(plan, cycle)
}

// CheckoutRoute is the checkout view for plan under cycle.
func CheckoutRoute(planID int, cycle model.BillingCycle) string {
	return fmt.Sprintf("%s?plan=%d&billing=%s", RouteCheckout, planID, url.QueryEscape(string(cycle)))
}
