package api

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/bher20/ecoenergy/internal/auth"
	"github.com/bher20/ecoenergy/internal/notification"
	"github.com/bher20/ecoenergy/internal/report"
)

// chart serves bar.png, pie.png and history.png.
// @Summary Consumption chart
// @Tags report
// @Produce png
// @Param kind path string true "bar.png, pie.png or history.png"
// @Success 200 {file} binary
// @Failure 404 {string} string "nothing to plot"
// @Router /api/v1/charts/{kind} [get]
func (h *Handler) chart(w http.ResponseWriter, r *http.Request) {
	kind, ok := strings.CutSuffix(r.PathValue("kind"), ".png")
	if !ok {
		http.NotFound(w, r)
		return
	}
	username := auth.TargetUser(r)

	var img []byte
	var err error
	if kind == "history" {
		img, err = h.Reports.HistoryChart(r.Context(), username)
	} else {
		style, perr := report.ParseChartStyle(kind)
		if perr != nil {
			http.NotFound(w, r)
			return
		}
		img, err = h.Reports.ApplianceChart(r.Context(), username, style)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(img)
}

// @Summary Download the PDF report
// @Tags report
// @Produce application/pdf
// @Success 200 {file} binary
// @Router /api/v1/report [get]
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	username := auth.TargetUser(r)
	pdf, err := h.Reports.PDF(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(username)))
	_, _ = w.Write(pdf)
}

type emailRequest struct {
	To string `json:"to"`
}

// @Summary Mail the PDF report
// @Tags report
// @Accept json
// @Success 202
// @Failure 503 {string} string "email not configured"
// @Router /api/v1/report/email [post]
func (h *Handler) emailReport(w http.ResponseWriter, r *http.Request) {
	if h.Mailer == nil || !h.Mailer.Enabled() {
		h.fail(w, r, notification.ErrDisabled)
		return
	}
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	username := auth.TargetUser(r)
	pdf, err := h.Reports.PDF(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msg := notification.ReportMessage(req.To, username, report.Filename(username), pdf)
	if err := h.Mailer.Send(r.Context(), msg); err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info("report mailed", zap.String("username", username), zap.String("to", req.To))
	w.WriteHeader(http.StatusAccepted)
}
