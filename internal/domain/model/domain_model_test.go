//go:build !integration

package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"flixgo-client/internal/domain"
)

// --- Payment Model Tests ---

func TestValidatePhone(t *testing.T) {
	cases := map[string]bool{
		"254712345678":  true,
		"254112345678":  true,
		"254798765432":  true,
		"0712345678":    false,
		"254812345678":  false,
		"25471234567":   false,
		"2547123456789": false,
		"+254712345678": false,
		"254 712345678": false,
		"25471234567a":  false,
		"":              false,
	}
	for phone, ok := range cases {
		err := ValidatePhone(phone)
		if ok && err != nil {
			t.Errorf("%q: expected valid, got %v", phone, err)
		}
		if !ok {
			if err == nil {
				t.Errorf("%q: expected rejection", phone)
			} else if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("%q: expected ErrValidation, got %v", phone, err)
			}
		}
	}
}

func TestComputeAmount(t *testing.T) {
	d := decimal.RequireFromString
	cases := []struct {
		name  string
		plan  SubscriptionPlan
		cycle BillingCycle
		want  string
	}{
		{"monthly", SubscriptionPlan{MonthlyPrice: d("500")}, BillingMonthly, "500.00"},
		{"derived yearly", SubscriptionPlan{MonthlyPrice: d("9.99")}, BillingYearly, "99.50"},
		{"explicit yearly", SubscriptionPlan{MonthlyPrice: d("9.99"), YearlyPrice: decimal.NewNullDecimal(d("95"))}, BillingYearly, "95.00"},
		{"half away from zero", SubscriptionPlan{MonthlyPrice: d("1.005")}, BillingMonthly, "1.01"},
		{"free", SubscriptionPlan{}, BillingYearly, "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			first := ComputeAmount(&tc.plan, tc.cycle)
			second := ComputeAmount(&tc.plan, tc.cycle)
			if first.StringFixed(2) != tc.want {
				t.Errorf("got %s, want %s", first.StringFixed(2), tc.want)
			}
			if !first.Equal(second) {
				t.Error("ComputeAmount must be deterministic")
			}
		})
	}
}

func TestClassifyPoll(t *testing.T) {
	cases := []struct {
		name   string
		status *STKStatus
		err    error
		want   PollOutcome
	}{
		{"success", &STKStatus{Success: true, ResultCode: "0"}, nil, PollConfirmed},
		{"pending sentinel", &STKStatus{Success: true, ResultCode: "1037"}, nil, PollPending},
		{"no code yet", &STKStatus{Success: true}, nil, PollPending},
		{"failure code", &STKStatus{Success: true, ResultCode: "1"}, nil, PollDefinitiveFailure},
		{"cancelled by user", &STKStatus{ResultCode: "1032"}, nil, PollDefinitiveFailure},
		{"zero without success flag", &STKStatus{ResultCode: "0", ResultDesc: "rejected"}, nil, PollDefinitiveFailure},
		{"request error", nil, errors.New("timeout"), PollPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyPoll(tc.status, tc.err); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAttemptState(t *testing.T) {
	for _, s := range []AttemptState{AttemptSucceeded, AttemptFailed, AttemptTimedOut} {
		if !s.Terminal() || s.InFlight() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []AttemptState{AttemptInitiating, AttemptAwaitingConfirmation} {
		if s.Terminal() || !s.InFlight() {
			t.Errorf("%s should be in flight", s)
		}
	}
	if AttemptIdle.Terminal() || AttemptIdle.InFlight() {
		t.Error("idle is neither")
	}
}

// --- Plan Model Tests ---

func TestParseBillingCycle(t *testing.T) {
	for in, want := range map[string]BillingCycle{"": BillingMonthly, "monthly": BillingMonthly, "YEARLY": BillingYearly, " yearly ": BillingYearly} {
		got, err := ParseBillingCycle(in)
		if err != nil || got != want {
			t.Errorf("%q: got %s, %v", in, got, err)
		}
	}
	if _, err := ParseBillingCycle("weekly"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("weekly: %v", err)
	}
}

func TestSubscriptionPlan_DecodesBackendShape(t *testing.T) {
	raw := `{"id":2,"plan_name":"Basic","monthly_price":4.99,"yearly_price":"49.90","max_screens":2,"HD_available":true,"is_active":true,"is_deleted":false}`
	var p SubscriptionPlan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Name != "Basic" || p.MaxScreens != 2 || !p.HDAvailable || !p.Purchasable() {
		t.Errorf("decoded: %+v", p)
	}
	if !p.MonthlyPrice.Equal(decimal.RequireFromString("4.99")) || !p.YearlyPrice.Valid {
		t.Errorf("prices: %s %v", p.MonthlyPrice, p.YearlyPrice)
	}
	if p.IsFree() {
		t.Error("paid plan reported free")
	}
}

// --- Media Model Tests ---

func TestProgressEncoding(t *testing.T) {
	if got := WatchProgressKey(42); got != "watch-42" {
		t.Errorf("key: %s", got)
	}
	if got := EncodeProgress(120.5); got != "120.5" {
		t.Errorf("encode: %s", got)
	}
	if v, ok := ParseProgress("120.5"); !ok || v != 120.5 {
		t.Errorf("parse: %v %v", v, ok)
	}
	for _, bad := range []string{"", "abc", "-1", "NaN", "Inf"} {
		if _, ok := ParseProgress(bad); ok {
			t.Errorf("%q should be rejected", bad)
		}
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[float64]string{0: "0:00", 5.9: "0:05", 65: "1:05", 3600: "60:00", -3: "0:00"}
	for in, want := range cases {
		if got := FormatClock(in); got != want {
			t.Errorf("%v: got %s, want %s", in, got, want)
		}
	}
	if got := FormatClock(math.NaN()); got != "0:00" {
		t.Errorf("NaN: %s", got)
	}
}

func TestProgressFraction(t *testing.T) {
	if got := ProgressFraction(30, 120); got != 0.25 {
		t.Errorf("got %v", got)
	}
	if got := ProgressFraction(30, math.NaN()); got != 0 {
		t.Errorf("unknown duration: %v", got)
	}
	if got := ProgressFraction(200, 120); got != 1 {
		t.Errorf("overflow: %v", got)
	}
	snap := PlaybackSnapshot{CurrentTime: 65, Duration: 130}
	if snap.Clock() != "1:05 / 2:10" || snap.Progress() != 0.5 {
		t.Errorf("snapshot: %s %v", snap.Clock(), snap.Progress())
	}
}

func TestMoviePlayable(t *testing.T) {
	var nilMovie *Movie
	if nilMovie.Playable() || (&Movie{VideoURL: "  "}).Playable() {
		t.Error("empty source is not playable")
	}
	if !(&Movie{VideoURL: "/v.mp4"}).Playable() {
		t.Error("source present should be playable")
	}
}
