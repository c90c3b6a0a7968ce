package handler

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/excelcollege/psychometric/internal/archive"
	"github.com/excelcollege/psychometric/internal/assessment"
	"github.com/excelcollege/psychometric/internal/bank"
	"github.com/excelcollege/psychometric/internal/handler/views"
	appI18n "github.com/excelcollege/psychometric/internal/i18n"
	"github.com/excelcollege/psychometric/internal/model"
	"github.com/excelcollege/psychometric/internal/store"
	"github.com/excelcollege/psychometric/internal/submissions"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	svc          *assessment.Service
	store        *store.Store
	reports      *archive.Store
	log          *submissions.Log
	config       model.AppConfig
	passwordHash []byte
}

// New creates a new Handler. passwordHash is the bcrypt hash of the teacher
// password.
func New(svc *assessment.Service, s *store.Store, reports *archive.Store, log *submissions.Log, cfg model.AppConfig, passwordHash []byte) (*Handler, error) {
	if len(passwordHash) == 0 {
		return nil, errors.New("teacher password hash is required")
	}
	if cfg.TeacherUser == "" {
		return nil, errors.New("teacher username is required")
	}
	return &Handler{
		svc:          svc,
		store:        s,
		reports:      reports,
		log:          log,
		config:       cfg,
		passwordHash: passwordHash,
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(h.csrfMiddleware)

		r.Get("/", h.handleIndex)
		r.Post("/submit", h.handleSubmit)

		r.Get("/teacher/login", h.handleLoginPage)
		r.Post("/teacher/login", h.handleLogin)
		r.Get("/teacher/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.requireTeacher)
			r.Get("/teacher/dashboard", h.handleDashboard)
			r.Get("/teacher/download/{filename}", h.handleDownloadReport)
			r.Get("/teacher/download_csv", h.handleDownloadCSV)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.IndexPage(h.config.Institution, h.svc.Bank().Questions()).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// studentFromForm reads the identity fields of the questionnaire form.
func studentFromForm(r *http.Request) model.StudentRecord {
	return model.StudentRecord{
		Name:         r.PostFormValue("studentName"),
		RollNo:       r.PostFormValue("rollNumber"),
		Department:   r.PostFormValue("department"),
		ClassSection: r.PostFormValue("classSection"),
		Email:        r.PostFormValue("studentEmail"),
	}
}

// answersFromForm collects q1..qN. A field that is present but empty is kept
// and scores zero; only absent fields count as unanswered.
func answersFromForm(r *http.Request) model.AnswerSet {
	answers := make(model.AnswerSet, bank.NumQuestions)
	for n := 1; n <= bank.NumQuestions; n++ {
		if vals, ok := r.PostForm["q"+strconv.Itoa(n)]; ok && len(vals) > 0 {
			answers[n] = vals[0]
		}
	}
	return answers
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	out, err := h.svc.Submit(r.Context(), studentFromForm(r), answersFromForm(r))
	var invalid *assessment.InvalidStudentError
	switch {
	case err == nil:
	case errors.Is(err, assessment.ErrIncomplete):
		slog.Info("incomplete submission rejected", "error", err)
		http.Error(w, appI18n.T(r.Context(), "AnswerAllQuestions"), http.StatusBadRequest)
		return
	case errors.As(err, &invalid):
		http.Error(w, invalidStudentMessage(r, invalid), http.StatusBadRequest)
		return
	default:
		slog.Error("submission failed", "error", err)
		http.Error(w, appI18n.T(r.Context(), "SubmissionFailed"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.StudentFileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.StudentPDF)))
	if _, err := w.Write(out.StudentPDF); err != nil {
		slog.Warn("write student report", "error", err)
	}
}

func invalidStudentMessage(r *http.Request, e *assessment.InvalidStudentError) string {
	msgs := make([]string, 0, len(e.Fields))
	for _, m := range e.Fields {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return appI18n.T(r.Context(), "InvalidStudent") + "\n" + strings.Join(msgs, "\n")
}
