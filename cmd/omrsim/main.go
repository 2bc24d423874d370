package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/omrsim/omrsim/internal/answerkey"
	"github.com/omrsim/omrsim/internal/decode"
	"github.com/omrsim/omrsim/internal/handler"
	appI18n "github.com/omrsim/omrsim/internal/i18n"
	"github.com/omrsim/omrsim/internal/model"
	"github.com/omrsim/omrsim/internal/sheet"
	"github.com/omrsim/omrsim/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "omrsim",
		Short: "Simulated bubble-sheet (OMR) exam server",
	}

	serve := serveCmd()
	root.AddCommand(serve, gradeCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `omrsim --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP sheet server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "Default message language (en, ru)")
	f.IntP("question-count", "n", 20, "Default question count for generated sheets")
	f.Float64("correct-marks", 0, "Default marks per correct answer (0 = no marking scheme)")
	f.Float64("wrong-marks", 0, "Default penalty per wrong answer (positive values are negated)")
	f.Int64("max-upload", 1<<20, "Maximum uploaded key file size in bytes")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /omr)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a responses file against a key file and print the report",
		RunE:  runGrade,
	}
	f := cmd.Flags()
	f.StringP("key", "k", "", "Answer key file (csv, json, or text) (required)")
	f.StringP("responses", "r", "", "Responses file (csv, json, or text) (required)")
	f.IntP("question-count", "n", 0, "Number of questions on the sheet (required)")
	f.Float64("correct-marks", 0, "Marks per correct answer (0 = no marking scheme)")
	f.Float64("wrong-marks", 0, "Penalty per wrong answer (positive values are negated)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("responses")
	_ = cmd.MarkFlagRequired("question-count")

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

	v.SetEnvPrefix("OMRSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("omrsim")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/omrsim")
	v.AddConfigPath("/etc/omrsim")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func serverConfig(v *viper.Viper) model.ServerConfig {
	cfg := model.ServerConfig{
		DefaultQuestionCount: v.GetInt("question-count"),
		MaxUploadBytes:       v.GetInt64("max-upload"),
		BasePath:             v.GetString("base-path"),
	}
	if cm := v.GetFloat64("correct-marks"); cm != 0 {
		cfg.DefaultCorrectMarks = &cm
	}
	if wm := v.GetFloat64("wrong-marks"); wm != 0 {
		cfg.DefaultWrongMarks = &wm
	}
	return cfg
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	cfg := serverConfig(v)
	h := handler.New(store.New(), cfg)

	// Normalize base path.
	basePath := strings.TrimRight(cfg.BasePath, "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			h.Routes(sub)
		})
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"question_count", cfg.DefaultQuestionCount,
		"max_upload", cfg.MaxUploadBytes,
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}

func runGrade(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	count := v.GetInt("question-count")

	key, err := readKeyFile(v.GetString("key"))
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	responses, err := readKeyFile(v.GetString("responses"))
	if err != nil {
		return fmt.Errorf("read responses: %w", err)
	}

	cfg := model.SheetConfig{QuestionCount: count}
	if cm := v.GetFloat64("correct-marks"); cm != 0 {
		cfg.CorrectMarks = &cm
	}
	if wm := v.GetFloat64("wrong-marks"); wm != 0 {
		cfg.WrongMarks = &wm
	}

	s := sheet.New("cli")
	if err := s.Generate(cfg); err != nil {
		return fmt.Errorf("generate sheet: %w", err)
	}
	for q, c := range responses {
		if err := s.Respond(q, c); err != nil {
			slog.Warn("skipping response", "question", q, "error", err)
		}
	}
	if err := s.SubmitKey(key); err != nil {
		return fmt.Errorf("submit key: %w", err)
	}
	if _, err := s.Grade(); err != nil {
		return fmt.Errorf("grade: %w", err)
	}

	data, err := json.MarshalIndent(s.Report(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	return nil
}

// readKeyFile decodes a key or responses file into a question-to-choice
// mapping. Both files accept the same shapes: csv/json rows or plain text.
func readKeyFile(path string) (model.AnswerKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	decoded, err := decode.KeySource(path, data)
	if err != nil {
		return nil, err
	}
	if decoded.Rows != nil {
		key, _, err := answerkey.ParseRows(decoded.Rows)
		return key, err
	}
	key, _, err := answerkey.ParseText(decoded.Text)
	return key, err
}
