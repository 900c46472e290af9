// Package apiv1 is the local control API: pricing, checkout attempts and
// watch progress over JSON.
package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"flixgo-client/internal/domain"
	"flixgo-client/internal/domain/model"
	"flixgo-client/internal/infra/backend"
	"flixgo-client/internal/infra/logging"
	"flixgo-client/internal/usecase"
)

type Server struct {
	plans    usecase.PlanUseCase
	checkout usecase.CheckoutUseCase
	progress usecase.ProgressUseCase
	log      *zerolog.Logger
}

func NewServer(plans usecase.PlanUseCase, checkout usecase.CheckoutUseCase, progress usecase.ProgressUseCase, logger *zerolog.Logger) *Server {
	return &Server{plans: plans, checkout: checkout, progress: progress, log: logger}
}

// RegisterAPIV1 mounts the /api/v1 routes on r.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", s.listPlans)
		r.Post("/checkout", s.startCheckout)
		r.Get("/checkout/{id}", s.getAttempt)
		r.Delete("/checkout/{id}", s.cancelAttempt)
		r.Get("/progress/{movieID}", s.getProgress)
		r.Put("/progress/{movieID}", s.putProgress)
		r.Delete("/progress/{movieID}", s.deleteProgress)
	})
}

type planItem struct {
	*model.SubscriptionPlan
	MonthlyDisplay decimal.Decimal `json:"monthly_display"`
	YearlyDisplay  decimal.Decimal `json:"yearly_display"`
	Current        bool            `json:"current"`
}

type planList struct {
	Items         []planItem `json:"items"`
	CurrentPlanID int        `json:"current_plan_id"`
}

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plans, err := s.plans.List(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	current, err := s.plans.CurrentPlanID(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := planList{Items: make([]planItem, 0, len(plans)), CurrentPlanID: current}
	for _, p := range plans {
		out.Items = append(out.Items, planItem{
			SubscriptionPlan: p,
			MonthlyDisplay:   s.plans.DisplayPrice(p, model.BillingMonthly),
			YearlyDisplay:    s.plans.DisplayPrice(p, model.BillingYearly),
			Current:          p.ID == current,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type checkoutRequest struct {
	PlanID  int    `json:"plan_id"`
	Billing string `json:"billing"`
	Phone   string `json:"phone"`
}

// startCheckout answers 202: the attempt keeps polling after the response.
func (s *Server) startCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	cycle, err := model.ParseBillingCycle(req.Billing)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	attempt, err := s.checkout.Initiate(r.Context(), req.PlanID, cycle, req.Phone)
	if err != nil {
		if attempt != nil {
			writeJSON(w, statusFor(err), attemptError{errorBody: errorBody{Error: err.Error()}, Attempt: attempt})
			return
		}
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/checkout/"+attempt.ID)
	writeJSON(w, http.StatusAccepted, attempt)
}

func (s *Server) getAttempt(w http.ResponseWriter, r *http.Request) {
	a, err := s.checkout.Attempt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) cancelAttempt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := s.checkout.Cancel(ctx, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.checkout.Attempt(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type progressBody struct {
	MovieID  int      `json:"movie_id"`
	Position *float64 `json:"position"`
	Clock    string   `json:"clock,omitempty"`
}

func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}
	v, found, err := s.progress.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no saved position"})
		return
	}
	writeJSON(w, http.StatusOK, progressBody{MovieID: id, Position: &v, Clock: model.FormatClock(v)})
}

func (s *Server) putProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}
	var body progressBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Position == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "position required"})
		return
	}
	if err := s.progress.Set(r.Context(), id, *body.Position); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progressBody{MovieID: id, Position: body.Position, Clock: model.FormatClock(*body.Position)})
}

func (s *Server) deleteProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}
	if err := s.progress.Clear(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func movieID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "movieID"))
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid movie id"})
		return 0, false
	}
	return id, true
}

type errorBody struct {
	Error string `json:"error"`
}

type attemptError struct {
	errorBody
	Attempt *model.PaymentAttempt `json:"attempt"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.With(r.Context(), s.log).Error().Err(err).Str("path", r.URL.Path).Msg("api error")
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAttemptInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrInitiation), errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
