package handler

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/excelcollege/psychometric/internal/archive"
	"github.com/excelcollege/psychometric/internal/handler/views"
	"github.com/excelcollege/psychometric/internal/model"
)

// dashboardRows is how many log rows the dashboard shows.
const dashboardRows = 50

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.List()
	if err != nil {
		slog.Error("failed to list reports", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	header, rows, err := h.log.Rows(dashboardRows)
	if err != nil {
		slog.Error("failed to read submissions log", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if sess := model.TeacherFromContext(r.Context()); sess != nil {
		slog.Debug("dashboard viewed", "user", sess.Username, "reports", len(reports))
	}

	d := views.Dashboard{
		Reports: reports,
		Header:  header,
		Rows:    rows,
		Flash:   h.popFlash(w, r),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.DashboardPage(d).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func attachment(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
}

func (h *Handler) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	f, err := h.reports.Open(name)
	if errors.Is(err, archive.ErrNotFound) {
		h.setFlash(w, "FileNotFound")
		http.Redirect(w, r, h.path("/teacher/dashboard"), http.StatusSeeOther)
		return
	}
	if err != nil {
		slog.Error("failed to open report", "name", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		slog.Error("failed to stat report", "name", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	attachment(w, "application/pdf", name)
	http.ServeContent(w, r, name, st.ModTime(), f)
}

func (h *Handler) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	if !h.log.Exists() {
		h.setFlash(w, "NoCSV")
		http.Redirect(w, r, h.path("/teacher/dashboard"), http.StatusSeeOther)
		return
	}

	attachment(w, "text/csv; charset=utf-8", filepath.Base(h.log.Path()))
	if _, err := h.log.CopyTo(w); err != nil {
		slog.Error("failed to send submissions log", "error", err)
	}
}
