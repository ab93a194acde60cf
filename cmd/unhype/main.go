// Command unhype is the CLI client for the humanizer pipeline service.
//
// Usage:
//
//	unhype clean   [-file path] [text...]  sanitize only (non-streaming)
//	unhype rewrite [-file path] [-strength light|medium|aggressive] [text...]
//	unhype history                         list recent sessions
//
// Input comes from positional arguments, -file, or stdin, in that order. Configuration is
// layered from defaults, an optional YAML file (UNHYPE_CONFIG), and UNHYPE_*
// environment variables; a local .env is honored for development.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unhype/unhype/internal/adapters/history"
	"github.com/unhype/unhype/internal/adapters/transport"
	"github.com/unhype/unhype/internal/app"
	"github.com/unhype/unhype/internal/config"
	"github.com/unhype/unhype/internal/domain/diff"
	"github.com/unhype/unhype/internal/domain/event"
	"github.com/unhype/unhype/internal/domain/model"
	"github.com/unhype/unhype/pkg/logger"
)

const metricsReadHeaderTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "unhype:", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}

	if len(os.Args) < 2 {
		return fmt.Errorf("missing command: clean, rewrite, or history")
	}
	command := os.Args[1]

	flags := flag.NewFlagSet(command, flag.ExitOnError)
	filePath := flags.String("file", "", "read input text from this file instead of stdin")
	strength := flags.String("strength", cfg.Strength, "rewrite strength: light, medium, aggressive")
	if err := flags.Parse(os.Args[2:]); err != nil {
		return err
	}

	var store *history.Store
	if cfg.HistoryPath != "" {
		store, err = history.Open(cfg.HistoryPath)
		if err != nil {
			// History is supporting machinery; a broken database should not
			// block processing.
			log.Warn(ctx, "history disabled", logger.Error(err))
		} else {
			defer store.Close() //nolint:errcheck // best-effort close
		}
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithTransport(transport.NewClient(
			cfg.ServiceURL,
			transport.WithReadBufferSize(cfg.ReadBufferSize),
			transport.WithCleanTimeout(time.Duration(cfg.CleanTimeoutMS)*time.Millisecond),
		)),
		app.WithHistory(store),
		app.WithHistoryLimit(cfg.HistoryLimit),
	)

	// Leftover positional arguments are the input text itself.
	inline := strings.Join(flags.Args(), " ")

	switch command {
	case "clean":
		return runClean(ctx, svc, *filePath, inline)
	case "rewrite":
		return runRewrite(ctx, svc, *filePath, inline, model.Strength(*strength))
	case "history":
		return runHistory(ctx, svc)
	default:
		return fmt.Errorf("unknown command %q: want clean, rewrite, or history", command)
	}
}

func runClean(ctx context.Context, svc *app.Service, filePath, inline string) error {
	text, err := readInput(filePath, inline)
	if err != nil {
		return err
	}
	result, err := svc.Clean(ctx, text)
	if err != nil {
		return err
	}
	fmt.Println(result.CleanText)
	printChanges(result.Changes)
	return nil
}

func runRewrite(ctx context.Context, svc *app.Service, filePath, inline string, strength model.Strength) error {
	text, err := readInput(filePath, inline)
	if err != nil {
		return err
	}

	obs := &consoleObserver{out: os.Stdout}
	result, err := svc.Rewrite(ctx, text, strength, obs)
	if err != nil {
		return err
	}

	analysis := app.Analyze(result.CleanText, result.RewrittenText, result.RewrittenMetrics)
	printChanges(result.Changes)
	printDiff(analysis.Original, analysis.Rewritten)
	printParagraphs(analysis)
	return nil
}

func runHistory(ctx context.Context, svc *app.Service) error {
	entries, err := svc.History(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no history")
		return nil
	}
	for _, e := range entries {
		preview := e.OutputText
		if len(preview) > 60 {
			preview = preview[:60] + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")
		fmt.Printf("%s  %-7s  %s\n", e.CreatedAt.Format(time.RFC3339), e.ActionType, preview)
	}
	return nil
}

// consoleObserver renders session notifications as they arrive: stage
// banners, live chunk output, and the late score layered under the result.
type consoleObserver struct {
	out     io.Writer
	printed int // bytes of chunk output already written
}

func (o *consoleObserver) OnStage(step string, payload event.Stage) {
	switch step {
	case "clean":
		fmt.Fprintf(o.out, "-- sanitized (%d chars) --\n", len(payload.CleanText))
	case "analyzed":
		fmt.Fprintln(o.out, "-- rewriting --")
	case "humanizing":
		fmt.Fprintln(o.out, "\n-- humanizing text patterns --")
	case "verifying":
		fmt.Fprintln(o.out, "-- verifying improvements --")
	default:
		fmt.Fprintf(o.out, "-- %s --\n", step)
	}
}

func (o *consoleObserver) OnChunk(fullText string) {
	// Print only the unseen suffix so the output types out progressively.
	if o.printed < len(fullText) {
		fmt.Fprint(o.out, fullText[o.printed:])
		o.printed = len(fullText)
	}
}

func (o *consoleObserver) OnDone(model.Result) {
	fmt.Fprintln(o.out, "\n-- done --")
}

func (o *consoleObserver) OnError(message string) {
	fmt.Fprintf(o.out, "\npipeline error: %s\n", message)
}

func (o *consoleObserver) OnLateScore(score float64) {
	fmt.Fprintf(o.out, "original AI score: %.1f/10\n", score)
}

// readInput resolves the input text: positional arguments win, then -file,
// then stdin.
func readInput(filePath, inline string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	var data []byte
	var err error
	if filePath != "" {
		data, err = os.ReadFile(filePath) //nolint:gosec // user-supplied path is the point
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func printChanges(changes []model.Change) {
	if len(changes) == 0 {
		fmt.Println("no changes detected")
		return
	}
	fmt.Println("changes:")
	for i, c := range changes {
		fmt.Printf("  %d. %s\n", i+1, c.Description)
	}
}

// printDiff renders both sides with removed tokens as [-word-] and added
// tokens as {+word+}, the wdiff convention.
func printDiff(original, rewritten []diff.Span) {
	fmt.Println("\noriginal:")
	fmt.Println(renderSpans(original))
	fmt.Println("\nrewritten:")
	fmt.Println(renderSpans(rewritten))
}

func renderSpans(spans []diff.Span) string {
	var b strings.Builder
	for _, s := range spans {
		switch s.Mark {
		case diff.Removed:
			b.WriteString("[-" + s.Text + "-]")
		case diff.Added:
			b.WriteString("{+" + s.Text + "+}")
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

func printParagraphs(analysis app.Analysis) {
	if len(analysis.Paragraphs) == 0 {
		return
	}
	fmt.Println("\nparagraphs:")
	for _, p := range analysis.Paragraphs {
		fmt.Printf("  %2d. [%-4s] %-14s %3d words, %2d sentences, avg %2d w/s  %s\n",
			p.Index+1, p.Severity, p.Label, p.WordCount, p.SentenceCount, p.AvgSentenceLen, p.Preview)
	}
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Get().Warn(ctx, "metrics server failed", logger.Error(err))
	}
}
