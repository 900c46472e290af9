package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"flixgo-client/internal/domain"
)

// FreePlanID is the plan every account falls back to when nothing was bought.
const FreePlanID = 1

// yearlyDiscount applies when a plan has no explicit yearly price.
var yearlyDiscount = decimal.RequireFromString("0.83")

type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// ParseBillingCycle accepts "monthly"/"yearly" in any case; empty means monthly.
func ParseBillingCycle(s string) (BillingCycle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(BillingMonthly):
		return BillingMonthly, nil
	case string(BillingYearly):
		return BillingYearly, nil
	default:
		return "", fmt.Errorf("%w: billing cycle %q", domain.ErrInvalidArgument, s)
	}
}

// SubscriptionPlan is a purchasable plan as published by the backend.
type SubscriptionPlan struct {
	ID           int                 `json:"id"`
	Name         string              `json:"plan_name"`
	Description  string              `json:"description,omitempty"`
	MonthlyPrice decimal.Decimal     `json:"monthly_price"`
	YearlyPrice  decimal.NullDecimal `json:"yearly_price"`
	MaxScreens   int                 `json:"max_screens,omitempty"`
	HDAvailable  bool                `json:"HD_available,omitempty"`
	Downloads    bool                `json:"download_available,omitempty"`
	MaxDownloads int                 `json:"max_downloads,omitempty"`
	IsActive     bool                `json:"is_active"`
	IsDeleted    bool                `json:"is_deleted"`
}

func (p *SubscriptionPlan) IsZero() bool { return p == nil || p.ID == 0 }

// IsFree reports whether the plan costs nothing per month.
func (p *SubscriptionPlan) IsFree() bool { return p.MonthlyPrice.IsZero() }

// Purchasable reports whether the plan should be offered on the pricing page.
func (p *SubscriptionPlan) Purchasable() bool { return p.IsActive && !p.IsDeleted }

// ComputeAmount returns the amount to charge for plan under cycle, rounded to
// two decimal places. The backend later compares the charged amount against
// this exact value, so all arithmetic stays in decimal.
func ComputeAmount(plan *SubscriptionPlan, cycle BillingCycle) decimal.Decimal {
	if cycle == BillingYearly {
		if plan.YearlyPrice.Valid {
			return plan.YearlyPrice.Decimal.Round(2)
		}
		return plan.MonthlyPrice.Mul(decimal.NewFromInt(12)).Mul(yearlyDiscount).Round(2)
	}
	return plan.MonthlyPrice.Round(2)
}
