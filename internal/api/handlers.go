package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/bher20/ecoenergy/internal/advisor"
	"github.com/bher20/ecoenergy/internal/auth"
	"github.com/bher20/ecoenergy/internal/catalog"
	"github.com/bher20/ecoenergy/internal/energy"
	"github.com/bher20/ecoenergy/internal/rates"
	"github.com/bher20/ecoenergy/internal/solar"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// register creates an account.
// @Summary Register an account
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} storage.Account
// @Failure 409 {string} string "account exists"
// @Router /api/v1/register [post]
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	acc, err := h.Auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

// login issues a bearer token.
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} auth.Session
// @Failure 401 {string} string "invalid credentials"
// @Router /api/v1/login [post]
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sess, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// logout revokes the bearer token of the request.
// @Summary Log out
// @Tags auth
// @Success 204
// @Router /api/v1/logout [post]
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	raw, ok := auth.BearerToken(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.Auth.Logout(r.Context(), raw); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary List appliances
// @Tags appliances
// @Produce json
// @Param user query string false "Account (admins only)"
// @Success 200 {array} energy.Appliance
// @Router /api/v1/appliances [get]
func (h *Handler) listAppliances(w http.ResponseWriter, r *http.Request) {
	list, err := h.Consumption.Appliances(r.Context(), auth.TargetUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []energy.Appliance{}
	}
	writeJSON(w, http.StatusOK, list)
}

// @Summary Add an appliance
// @Tags appliances
// @Accept json
// @Produce json
// @Success 201 {object} energy.Appliance
// @Failure 400 {string} string "invalid input"
// @Router /api/v1/appliances [post]
func (h *Handler) addAppliance(w http.ResponseWriter, r *http.Request) {
	var req energy.Appliance
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	a, err := h.Consumption.AddAppliance(r.Context(), auth.TargetUser(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// @Summary Remove every appliance
// @Tags appliances
// @Success 204
// @Router /api/v1/appliances [delete]
func (h *Handler) resetAppliances(w http.ResponseWriter, r *http.Request) {
	if err := h.Consumption.Reset(r.Context(), auth.TargetUser(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Consumption dashboard
// @Tags consumption
// @Produce json
// @Param state query string false "State used to price the bill"
// @Success 200 {object} consumption.Summary
// @Router /api/v1/consumption [get]
func (h *Handler) consumption(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Consumption.Summary(r.Context(), auth.TargetUser(r), r.URL.Query().Get("state"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// @Summary List monthly history
// @Tags history
// @Produce json
// @Success 200 {array} storage.HistoryEntry
// @Router /api/v1/history [get]
func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := h.Consumption.History(r.Context(), auth.TargetUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

// @Summary Record the current total as the next month
// @Tags history
// @Produce json
// @Success 201 {object} storage.HistoryEntry
// @Router /api/v1/history [post]
func (h *Handler) appendHistory(w http.ResponseWriter, r *http.Request) {
	e, err := h.Consumption.RecordMonth(r.Context(), auth.TargetUser(r), "api")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// @Summary Savings tips for a monthly total
// @Tags advice
// @Produce json
// @Param kwh query number true "Monthly consumption in kWh"
// @Success 200 {object} advisor.Advice
// @Router /api/v1/tips [get]
func (h *Handler) tips(w http.ResponseWriter, r *http.Request) {
	kwh, err := floatParam(r, "kwh")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, advisor.AdviceFor(kwh))
}

type solarResponse struct {
	solar.Input
	MonthlyProductionKWh float64 `json:"monthly_production_kwh"`
	MonthlySavings       float64 `json:"monthly_savings"`
	// MonthsToRecoup is null when the installation never pays for itself.
	MonthsToRecoup *float64 `json:"months_to_recoup"`
}

// @Summary Solar payback estimate
// @Tags solar
// @Produce json
// @Param panels query integer true "Number of panels"
// @Param daily_kwh query number true "Daily production per panel in kWh"
// @Param cost query number true "Installation cost"
// @Success 200 {object} solarResponse
// @Success 204 "no panels or no production"
// @Router /api/v1/solar [get]
func (h *Handler) solar(w http.ResponseWriter, r *http.Request) {
	panels, err := strconv.Atoi(r.URL.Query().Get("panels"))
	if err != nil {
		http.Error(w, "panels must be an integer", http.StatusBadRequest)
		return
	}
	daily, err := floatParam(r, "daily_kwh")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cost, err := floatParam(r, "cost")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	in := solar.Input{Panels: panels, DailyKWhPerPanel: daily, InstallationCost: cost}
	res, ok, err := solar.Estimate(in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	resp := solarResponse{Input: in, MonthlyProductionKWh: res.MonthlyProductionKWh, MonthlySavings: res.MonthlySavings}
	if res.Recoups() {
		resp.MonthsToRecoup = &res.MonthsToRecoup
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary State tariff table
// @Tags tariffs
// @Produce json
// @Success 200 {object} rates.TableResponse
// @Router /api/v1/tariffs [get]
func (h *Handler) tariffs(w http.ResponseWriter, r *http.Request) {
	if state := r.URL.Query().Get("state"); state != "" {
		writeJSON(w, http.StatusOK, rates.StateRate{State: state, RatePerKWh: h.Consumption.Tariffs().Rate(state)})
		return
	}
	writeJSON(w, http.StatusOK, h.Consumption.Tariffs().Response())
}

type catalogResponse struct {
	catalog.Catalog
	ApplianceTips []advisor.Topic `json:"appliance_tips"`
	Tutorial      []advisor.Topic `json:"tutorial"`
}

// @Summary Appliance catalog and guides
// @Tags catalog
// @Produce json
// @Success 200 {object} catalogResponse
// @Router /api/v1/catalog [get]
func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("appliance"); name != "" {
		watts, ok := catalog.TypicalWatts(name)
		if !ok {
			http.Error(w, "unknown appliance", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"name": name, "watts": watts})
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse{
		Catalog:       catalog.Snapshot(),
		ApplianceTips: advisor.ApplianceTips(),
		Tutorial:      advisor.Tutorial(),
	})
}

func floatParam(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a finite number", name)
	}
	return v, nil
}
