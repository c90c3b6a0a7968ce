package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/excelcollege/psychometric/internal/archive"
	"github.com/excelcollege/psychometric/internal/assessment"
	"github.com/excelcollege/psychometric/internal/bank"
	appI18n "github.com/excelcollege/psychometric/internal/i18n"
	"github.com/excelcollege/psychometric/internal/model"
	"github.com/excelcollege/psychometric/internal/store"
	"github.com/excelcollege/psychometric/internal/submissions"
)

const (
	testUser     = "teacher"
	testPassword = "s3cret"
	testCSRF     = "test-csrf-token"
)

type testServer struct {
	router  http.Handler
	reports *archive.Store
	log     *submissions.Log
	store   *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}

	dir := t.TempDir()
	reports, err := archive.New(filepath.Join(dir, "reports"), "TeacherReport_*.pdf")
	if err != nil {
		t.Fatalf("archive.New: %v", err)
	}
	log, err := submissions.Open(filepath.Join(dir, "submissions.csv"), bank.Default().SectionNames())
	if err != nil {
		t.Fatalf("submissions.Open: %v", err)
	}
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	at := time.Date(2026, 1, 5, 14, 3, 9, 0, time.UTC)
	svc := assessment.NewService(reports, log, "Test College", assessment.WithClock(func() time.Time { return at }))

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	cfg := model.AppConfig{Institution: "Test College", TeacherUser: testUser}
	h, err := New(svc, st, reports, log, cfg, hash)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	r.Use(h.BasePathMiddleware)
	h.Routes(r)
	return &testServer{router: r, reports: reports, log: log, store: st}
}

func (ts *testServer) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return ts.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

// post submits form with a matching CSRF cookie and field.
func (ts *testServer) post(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	form.Set("csrf_token", testCSRF)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	cookies = append(cookies, &http.Cookie{Name: csrfCookieName, Value: testCSRF})
	return ts.do(req, cookies...)
}

func (ts *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := ts.post("/teacher/login", url.Values{"user": {testUser}, "pwd": {testPassword}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login: status %d", rec.Code)
	}
	c := findCookie(rec, sessionCookieName)
	if c == nil || c.Value == "" {
		t.Fatal("login did not set a session cookie")
	}
	return c
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func submissionForm() url.Values {
	form := url.Values{
		"studentName":  {"Asha Rao"},
		"rollNumber":   {"CS-A-B"},
		"department":   {"CSE"},
		"classSection": {"III-A"},
		"studentEmail": {"asha@example.com"},
	}
	for n := 1; n <= bank.NumQuestions; n++ {
		v := "3"
		if n > 40 {
			v = "D"
		}
		form.Set("q"+strconv.Itoa(n), v)
	}
	return form
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.get("/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestIndexRendersForm(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Test College", `name="studentName"`, `name="q1"`, `name="q50"`, `value="D"`, `name="csrf_token"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %s", want)
		}
	}
	if c := findCookie(rec, csrfCookieName); c == nil || c.Value == "" {
		t.Error("index did not set a CSRF cookie")
	}
}

func TestSubmitRequiresCSRF(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(submissionForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := ts.do(req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestSubmitIncomplete(t *testing.T) {
	ts := newTestServer(t)
	form := submissionForm()
	form.Del("q17")

	rec := ts.post("/submit", form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "Please answer all questions before submitting." {
		t.Errorf("body = %q", got)
	}
	files, _ := ts.reports.List()
	if len(files) != 0 {
		t.Errorf("incomplete submission stored %d reports", len(files))
	}
}

func TestSubmitMissingStudentField(t *testing.T) {
	ts := newTestServer(t)
	form := submissionForm()
	form.Set("department", " ")

	rec := ts.post("/submit", form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "department is a required field") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestSubmitReturnsStudentReport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.post("/submit", submissionForm())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=Student_Report_Asha_Rao.pdf" {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF")
	}

	files, err := ts.reports.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 1 || files[0].Name != "TeacherReport_Asha_Rao_20260105_140309.pdf" {
		t.Errorf("stored reports = %+v", files)
	}
	_, rows, _ := ts.log.Rows(0)
	if len(rows) != 1 || rows[0][6] != "149" {
		t.Errorf("log rows = %v", rows)
	}
}

func TestTeacherPagesRequireLogin(t *testing.T) {
	ts := newTestServer(t)
	for _, p := range []string{"/teacher/dashboard", "/teacher/download_csv", "/teacher/download/x.pdf"} {
		rec := ts.get(p)
		if rec.Code != http.StatusSeeOther {
			t.Errorf("%s: status = %d, want 303", p, rec.Code)
			continue
		}
		if loc := rec.Header().Get("Location"); loc != "/teacher/login" {
			t.Errorf("%s: Location = %q", p, loc)
		}
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name string
		user string
		pwd  string
	}{
		{"wrong password", testUser, "nope"},
		{"wrong user", "admin", testPassword},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.post("/teacher/login", url.Values{"user": {tt.user}, "pwd": {tt.pwd}})
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "Invalid credentials") {
				t.Error("login page does not show the error")
			}
			if findCookie(rec, sessionCookieName) != nil {
				t.Error("failed login set a session cookie")
			}
		})
	}
}

func TestDashboardListsReportsAndRows(t *testing.T) {
	ts := newTestServer(t)
	if rec := ts.post("/submit", submissionForm()); rec.Code != http.StatusOK {
		t.Fatalf("submit: %d", rec.Code)
	}
	sess := ts.login(t)

	rec := ts.get("/teacher/dashboard", sess)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"/teacher/download/TeacherReport_Asha_Rao_20260105_140309.pdf",
		"1 report stored.",
		"<td>Asha Rao</td>",
		"<th>Situational Judgment Test (SJT)</th>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestDownloadReport(t *testing.T) {
	ts := newTestServer(t)
	if rec := ts.post("/submit", submissionForm()); rec.Code != http.StatusOK {
		t.Fatalf("submit: %d", rec.Code)
	}
	sess := ts.login(t)

	rec := ts.get("/teacher/download/TeacherReport_Asha_Rao_20260105_140309.pdf", sess)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("download is not a PDF")
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestDownloadMissingReportFlashes(t *testing.T) {
	ts := newTestServer(t)
	sess := ts.login(t)

	for _, name := range []string{"TeacherReport_nobody.pdf", "..%2Fsubmissions.csv"} {
		rec := ts.get("/teacher/download/"+name, sess)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("%s: status = %d, want 303", name, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/teacher/dashboard" {
			t.Errorf("%s: Location = %q", name, loc)
		}
		flash := findCookie(rec, flashCookieName)
		if flash == nil {
			t.Fatalf("%s: no flash cookie", name)
		}

		page := ts.get("/teacher/dashboard", sess, flash)
		if !strings.Contains(page.Body.String(), "File not found") {
			t.Errorf("%s: dashboard does not show the flash", name)
		}
	}
}

func TestDownloadCSV(t *testing.T) {
	ts := newTestServer(t)
	if rec := ts.post("/submit", submissionForm()); rec.Code != http.StatusOK {
		t.Fatalf("submit: %d", rec.Code)
	}
	sess := ts.login(t)

	rec := ts.get("/teacher/download_csv", sess)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=submissions.csv" {
		t.Errorf("Content-Disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "2026-01-05T14:03:09.000000,Asha Rao,") {
		t.Errorf("csv = %q", rec.Body.String())
	}
}

func TestDownloadCSVMissingFlashes(t *testing.T) {
	ts := newTestServer(t)
	sess := ts.login(t)
	if err := os.Remove(ts.log.Path()); err != nil {
		t.Fatalf("remove log: %v", err)
	}

	rec := ts.get("/teacher/download_csv", sess)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	page := ts.get("/teacher/login", findCookie(rec, flashCookieName))
	if !strings.Contains(page.Body.String(), "No CSV available") {
		t.Error("login page does not show the flash")
	}
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	sess := ts.login(t)

	rec := ts.get("/teacher/logout", sess)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/teacher/login" {
		t.Fatalf("logout = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if got, _ := ts.store.GetAuthSession(sess.Value); got != nil {
		t.Error("session survived logout")
	}
	if rec := ts.get("/teacher/dashboard", sess); rec.Code != http.StatusSeeOther {
		t.Errorf("dashboard after logout: status = %d, want 303", rec.Code)
	}
}

func TestSessionForOtherUserRejected(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.store.CreateAuthSession("someone-else")
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	rec := ts.get("/teacher/dashboard", &http.Cookie{Name: sessionCookieName, Value: token})
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(nil, nil, nil, nil, model.AppConfig{TeacherUser: "t"}, nil); err == nil {
		t.Error("expected error without a password hash")
	}
	if _, err := New(nil, nil, nil, nil, model.AppConfig{}, []byte("x")); err == nil {
		t.Error("expected error without a username")
	}
}

func TestSubmitStorageFailureIsServerError(t *testing.T) {
	tests := []struct {
		name      string
		logBroken bool
	}{
		{name: "log not writable", logBroken: true},
		{name: "report dir not writable", logBroken: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			if tt.logBroken {
				replaceWith(t, ts.log.Path(), true)
			} else {
				replaceWith(t, ts.reports.Dir(), false)
			}

			rec := ts.post("/submit", submissionForm())
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != "Your answers could not be saved. Please try again." {
				t.Errorf("body = %q", got)
			}

			// The side that still works must hold no trace of the submission.
			if tt.logBroken {
				files, err := ts.reports.List()
				if err != nil {
					t.Fatalf("List: %v", err)
				}
				if len(files) != 0 {
					t.Errorf("unlogged submission left %d reports", len(files))
				}
			} else {
				_, rows, err := ts.log.Rows(0)
				if err != nil {
					t.Fatalf("Rows: %v", err)
				}
				if len(rows) != 0 {
					t.Errorf("unarchived submission logged %d rows", len(rows))
				}
			}
		})
	}
}

// replaceWith swaps the file or directory at path for one of the other kind
// so that writes to it fail.
func replaceWith(t *testing.T, path string, dir bool) {
	t.Helper()
	if err := os.RemoveAll(path); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	var err error
	if dir {
		err = os.Mkdir(path, 0o755)
	} else {
		err = os.WriteFile(path, []byte("not a directory"), 0o644)
	}
	if err != nil {
		t.Fatalf("replace %s: %v", path, err)
	}
}
