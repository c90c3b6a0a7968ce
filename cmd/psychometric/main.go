package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/excelcollege/psychometric/internal/archive"
	"github.com/excelcollege/psychometric/internal/assessment"
	"github.com/excelcollege/psychometric/internal/bank"
	"github.com/excelcollege/psychometric/internal/handler"
	appI18n "github.com/excelcollege/psychometric/internal/i18n"
	"github.com/excelcollege/psychometric/internal/model"
	"github.com/excelcollege/psychometric/internal/store"
	"github.com/excelcollege/psychometric/internal/submissions"
)

// reportPattern matches the teacher report files listed on the dashboard.
const reportPattern = "TeacherReport_*.pdf"

//go:generate templ generate -path ../../internal/handler/views

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "psychometric",
		Short: "Psychometric questionnaire scorer and report generator",
		PersistentPreRun: func(*cobra.Command, []string) {
			// .env is optional.
			_ = godotenv.Load()
		},
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `psychometric --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the questionnaire web server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":5000", "HTTP listen address")
	f.String("reports-dir", "teacher_reports", "Directory for teacher reports")
	f.String("log-file", "submissions.csv", "Submissions CSV log path")
	f.String("db", "psychometric.db", "SQLite database path for teacher sessions")
	f.String("institution", "Excel Engineering College (Autonomous)", "Institution name printed on student reports")
	f.String("teacher-user", "teacher", "Teacher login username")
	f.String("teacher-password", "", "Teacher login password (or set PSYCHOMETRIC_TEACHER_PASSWORD)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /psychometric)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the submissions log as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("log-file", "submissions.csv", "Submissions CSV log path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PSYCHOMETRIC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("psychometric")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/psychometric")
	v.AddConfigPath("/etc/psychometric")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// normalizeBasePath returns "" or a path with a leading and no trailing slash.
func normalizeBasePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	password := v.GetString("teacher-password")
	if password == "" {
		return fmt.Errorf("teacher password is required: set --teacher-password flag or PSYCHOMETRIC_TEACHER_PASSWORD env var")
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash teacher password: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.CleanupExpiredSessions(); err != nil {
		slog.Warn("failed to clean up expired sessions", "error", err)
	}

	if err := appI18n.Init(appI18n.DefaultLanguage); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	qb := bank.Default()
	reports, err := archive.New(v.GetString("reports-dir"), reportPattern)
	if err != nil {
		return fmt.Errorf("open reports dir: %w", err)
	}
	subLog, err := submissions.Open(v.GetString("log-file"), qb.SectionNames())
	if err != nil {
		return fmt.Errorf("open submissions log: %w", err)
	}

	basePath := normalizeBasePath(v.GetString("base-path"))
	cfg := model.AppConfig{
		Institution:   v.GetString("institution"),
		TeacherUser:   v.GetString("teacher-user"),
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
	}

	svc := assessment.NewService(reports, subLog, cfg.Institution, assessment.WithBank(qb))
	h, err := handler.New(svc, db, reports, subLog, cfg, passwordHash)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(appI18n.DefaultLanguage))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"reports_dir", reports.Dir(),
		"log_file", subLog.Path(),
		"institution", cfg.Institution,
		"base_path", basePath,
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	path := v.GetString("log-file")
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("submissions log: %w", err)
	}
	subLog, err := submissions.Open(path, bank.Default().SectionNames())
	if err != nil {
		return fmt.Errorf("open submissions log: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := subLog.Export(w, time.Now()); err != nil {
		return fmt.Errorf("export submissions: %w", err)
	}
	return nil
}
