// Command worker is the single entrypoint for every scheduled job in the
// pipeline: one binary, one task per invocation, selected by --task. This
// replaces the teacher's always-on cron daemon with an external-scheduler
// model (cron, k8s CronJob, systemd timer) invoking this binary per job --
// the same setupXService wiring the teacher used for its one crawl job,
// generalized into a dispatch table over eleven jobs.
package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	pgRepo "github.com/mengke002/info-collector-X/internal/infra/adapter/persistence/postgres"
	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/infra/db"
	"github.com/mengke002/info-collector-X/internal/infra/gateway"
	"github.com/mengke002/info-collector-X/internal/infra/imageproc"
	"github.com/mengke002/info-collector-X/internal/infra/modelclient"
	"github.com/mengke002/info-collector-X/internal/infra/notifier"
	"github.com/mengke002/info-collector-X/internal/observability/logging"
	"github.com/mengke002/info-collector-X/internal/observability/metrics"
	"github.com/mengke002/info-collector-X/internal/repository"
	"github.com/mengke002/info-collector-X/internal/resilience/circuitbreaker"
	"github.com/mengke002/info-collector-X/internal/usecase/enrich"
	"github.com/mengke002/info-collector-X/internal/usecase/fetch"
	"github.com/mengke002/info-collector-X/internal/usecase/profile"
	"github.com/mengke002/info-collector-X/internal/usecase/report"
	"github.com/mengke002/info-collector-X/internal/usecase/scheduler"
)

// result is the uniform shape every task reports, rendered as either a
// one-line text summary or a JSON document depending on --output.
type result struct {
	Task     string         `json:"task"`
	Success  bool           `json:"success"`
	Error    string         `json:"error,omitempty"`
	Stats    any            `json:"stats,omitempty"`
	Started  time.Time      `json:"started_at"`
	Duration time.Duration  `json:"duration_ns"`
}

func main() {
	logger := initLogger()

	task := flag.String("task", "", "job to run: high_freq|medium_freq|low_freq|full_crawl|scavenger|user_profiling|post_insights|user_analysis|intelligence_report|kol_report|full_analysis")
	output := flag.String("output", "text", "result format: text|json")
	recreateDB := flag.Bool("recreate-db", false, "drop and recreate all tables before running the task")
	maxWorkers := flag.Int("max-workers", 0, "fetch pool size override (0 = use FETCH_POOL_SIZE/default)")
	limit := flag.Int("limit", 0, "per-tier batch cap override (0 = use scheduler default)")
	batchSize := flag.Int("batch-size", 0, "batch size override for full_crawl/post_insights (0 = use component default)")
	hoursBack := flag.Int("hours-back", 0, "lookback window in hours for scavenger/post_insights (0 = use component default)")
	userLimit := flag.Int("user-limit", 0, "max accounts to profile in one run (0 = use component default)")
	days := flag.Int("days", 0, "lookback window in days for user_analysis/kol_report (0 = use component default)")
	hours := flag.Int("hours", 0, "lookback window in hours for intelligence_report (0 = use component default)")
	reportLimit := flag.Int("report-limit", 0, "max posts packed into a report (0 = use component default)")
	flow := flag.String("flow", "dual", "intelligence_report variant: dual|light|deep")
	userID := flag.Int64("user-id", 0, "account id for kol_report")
	flag.Parse()

	if *task == "" {
		logger.Error("missing required --task flag")
		os.Exit(1)
	}

	database := initDatabase(logger, *recreateDB)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx := context.Background()
	start := time.Now()
	res := result{Task: *task, Started: start}

	stats, err := dispatch(ctx, logger, database, *task, taskFlags{
		maxWorkers:  *maxWorkers,
		limit:       *limit,
		batchSize:   *batchSize,
		hoursBack:   *hoursBack,
		userLimit:   *userLimit,
		days:        *days,
		hours:       *hours,
		reportLimit: *reportLimit,
		flow:        *flow,
		userID:      *userID,
	})
	res.Duration = time.Since(start)
	res.Stats = stats
	if err != nil {
		res.Success = false
		res.Error = err.Error()
	} else {
		res.Success = true
	}

	metrics.RecordJobRun(*task, res.Success, res.Duration)
	if err := metrics.PushToGateway(os.Getenv("PUSHGATEWAY_ADDR"), *task); err != nil {
		logger.Warn("metrics push failed", slog.Any("error", err))
	}

	emit(*output, res)
	if !res.Success {
		os.Exit(1)
	}
}

type taskFlags struct {
	maxWorkers  int
	limit       int
	batchSize   int
	hoursBack   int
	userLimit   int
	days        int
	hours       int
	reportLimit int
	flow        string
	userID      int64
}

// deps bundles every wired component a task might need. Built once per
// invocation; unused fields for a given task simply go unreferenced.
type deps struct {
	accounts    repository.AccountRepository
	posts       repository.PostRepository
	enrichments repository.EnrichmentRepository
	profiles    repository.ProfileRepository
	reports     repository.ReportRepository

	sched        *scheduler.Scheduler
	gatewayClient *gateway.Client
	images        *imageproc.Processor

	claudeBackend *modelclient.ClaudeBackend
	openaiBackend *modelclient.OpenAIBackend
}

func buildDeps(logger *slog.Logger, database *sql.DB) *deps {
	httpClient := createHTTPClient()
	dbBreaker := circuitbreaker.NewDBCircuitBreaker(database)
	d := &deps{
		accounts:    pgRepo.NewAccountRepo(dbBreaker),
		posts:       pgRepo.NewPostRepo(dbBreaker),
		enrichments: pgRepo.NewEnrichmentRepo(dbBreaker),
		profiles:    pgRepo.NewProfileRepo(dbBreaker),
		reports:     pgRepo.NewReportRepo(dbBreaker),

		gatewayClient: gateway.New(os.Getenv("GATEWAY_BASE_URL"), httpClient),
		images:        imageproc.New(httpClient, enrich.LoadConfig().VisionWorkers),
	}
	d.sched = scheduler.New(d.accounts, scheduler.LoadConfig())

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		d.claudeBackend = modelclient.NewClaudeBackend(apiKey)
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		d.openaiBackend = modelclient.NewOpenAIBackend(apiKey)
	}
	if d.claudeBackend == nil && d.openaiBackend == nil {
		logger.Warn("no model backend configured; ANTHROPIC_API_KEY and OPENAI_API_KEY are both unset")
	}
	return d
}

// backendFor resolves a model id's vendor prefix to a configured backend.
// Every model id in this module is a Claude or GPT id; anything else falls
// back to whichever backend is configured, preferring Claude.
func (d *deps) backendFor(modelID string) modelclient.Backend {
	if strings.HasPrefix(modelID, "gpt-") && d.openaiBackend != nil {
		return d.openaiBackend
	}
	if d.claudeBackend != nil {
		return d.claudeBackend
	}
	return d.openaiBackend
}

func dispatch(ctx context.Context, logger *slog.Logger, database *sql.DB, task string, f taskFlags) (any, error) {
	d := buildDeps(logger, database)
	now := time.Now()

	switch task {
	case "high_freq", "medium_freq", "low_freq":
		return runTierFetch(ctx, d, task, f, now)
	case "full_crawl":
		return runFullCrawl(ctx, d, f, now)
	case "scavenger":
		return runScavenger(ctx, d, f, now)
	case "user_profiling":
		n, err := d.sched.RecomputeTiers(ctx, now)
		return map[string]int{"accounts_updated": n}, err
	case "post_insights":
		return runPostInsights(ctx, d, f)
	case "user_analysis":
		return runUserAnalysis(ctx, d, f, now)
	case "intelligence_report":
		return runIntelligenceReport(ctx, d, f, now)
	case "kol_report":
		return runKOLReport(ctx, d, f, now)
	case "full_analysis":
		return runFullAnalysis(ctx, d, f, now)
	default:
		return nil, fmt.Errorf("unknown task %q", task)
	}
}

func tierFor(task string) entity.Tier {
	switch task {
	case "high_freq":
		return entity.TierHigh
	case "low_freq":
		return entity.TierLow
	default:
		return entity.TierMedium
	}
}

func newFetchService(d *deps, poolSizeOverride int) *fetch.Service {
	return fetch.NewService(d.gatewayClient, d.posts, d.sched, fetch.LoadConfig(poolSizeOverride))
}

func runTierFetch(ctx context.Context, d *deps, task string, f taskFlags, now time.Time) (any, error) {
	tier := tierFor(task)
	accounts, err := d.sched.SelectDue(ctx, tier, now)
	if err != nil {
		return nil, err
	}
	if f.limit > 0 && len(accounts) > f.limit {
		accounts = accounts[:f.limit]
	}
	metrics.AccountsTracked.WithLabelValues(string(tier)).Set(float64(len(accounts)))

	svc := newFetchService(d, f.maxWorkers)
	batchStart := time.Now()
	stats, err := svc.RunBatch(ctx, accounts)
	metrics.FetchBatchDuration.WithLabelValues(string(tier)).Observe(time.Since(batchStart).Seconds())
	if stats != nil {
		metrics.PostsIngestedTotal.WithLabelValues(string(tier)).Add(float64(stats.PostsNew))
	}
	return stats, err
}

func runFullCrawl(ctx context.Context, d *deps, f taskFlags, now time.Time) (any, error) {
	svc := newFetchService(d, f.maxWorkers)
	totals := struct {
		Tiers map[string]*fetch.BatchStats `json:"tiers"`
	}{Tiers: make(map[string]*fetch.BatchStats)}

	tiers := []entity.Tier{entity.TierHigh, entity.TierMedium, entity.TierLow}
	for i, tier := range tiers {
		accounts, err := d.sched.SelectDue(ctx, tier, now)
		if err != nil {
			return totals, err
		}
		if f.batchSize > 0 && len(accounts) > f.batchSize {
			accounts = accounts[:f.batchSize]
		}
		metrics.AccountsTracked.WithLabelValues(string(tier)).Set(float64(len(accounts)))
		batchStart := time.Now()
		// The last tier has no further batch behind it to pace against,
		// so it skips the trailing jitter sleep the earlier tiers pay.
		stats, err := svc.RunBatchWithOptions(ctx, accounts, fetch.RunBatchOptions{SkipTrailingDelay: i == len(tiers)-1})
		metrics.FetchBatchDuration.WithLabelValues(string(tier)).Observe(time.Since(batchStart).Seconds())
		if stats != nil {
			metrics.PostsIngestedTotal.WithLabelValues(string(tier)).Add(float64(stats.PostsNew))
		}
		if err != nil {
			return totals, err
		}
		totals.Tiers[string(tier)] = stats
	}
	return totals, nil
}

func runScavenger(ctx context.Context, d *deps, f taskFlags, now time.Time) (any, error) {
	var accounts []*entity.Account
	var err error
	if f.hoursBack > 0 {
		n := 20
		if f.batchSize > 0 {
			n = f.batchSize
		}
		accounts, err = d.accounts.SelectStale(ctx, f.hoursBack, n)
	} else {
		accounts, err = d.sched.SelectScavenged(ctx, now)
	}
	if err != nil {
		return nil, err
	}
	svc := newFetchService(d, f.maxWorkers)
	return svc.RunBatch(ctx, accounts)
}

func runPostInsights(ctx context.Context, d *deps, f taskFlags) (any, error) {
	cfg := enrich.LoadConfig()
	if f.hoursBack > 0 {
		cfg.HoursBack = f.hoursBack
	}
	if f.batchSize > 0 {
		cfg.BatchSize = f.batchSize
	}
	svc := enrich.NewService(d.enrichments, d.images, d.backendFor(cfg.TextModelID), d.backendFor(cfg.PrimaryVisionModelID), d.backendFor(cfg.SecondaryVisionModelID), cfg)
	stats, err := svc.Run(ctx)
	if stats != nil {
		metrics.EnrichmentsCompletedTotal.WithLabelValues("success").Add(float64(stats.Completed))
		metrics.EnrichmentsCompletedTotal.WithLabelValues("failure").Add(float64(stats.Failed))
	}
	return stats, err
}

func runUserAnalysis(ctx context.Context, d *deps, f taskFlags, now time.Time) (any, error) {
	cfg := profile.LoadConfig()
	if f.days > 0 {
		cfg.Days = f.days
	}
	if f.userLimit > 0 {
		cfg.UserLimit = f.userLimit
	}
	svc := profile.NewService(d.accounts, d.enrichments, d.profiles, d.backendFor(cfg.ModelID), cfg)
	return svc.Run(ctx, now)
}

func newReportService(d *deps, cfg report.Config) *report.Service {
	deepBackends := make([]modelclient.Backend, len(cfg.DeepModelIDs))
	for i, modelID := range cfg.DeepModelIDs {
		deepBackends[i] = d.backendFor(modelID)
	}
	var lightBackend modelclient.Backend
	if len(cfg.LightModelIDs) > 0 {
		lightBackend = d.backendFor(cfg.LightModelIDs[0])
	}

	channels := []report.PublishChannel{
		report.NewDiscordChannel(loadDiscordConfig()),
		report.NewSlackChannel(loadSlackConfig()),
	}
	return report.NewService(d.enrichments, d.reports, lightBackend, deepBackends, channels, cfg)
}

func runIntelligenceReport(ctx context.Context, d *deps, f taskFlags, now time.Time) (any, error) {
	cfg := report.LoadConfig()
	if f.hours > 0 {
		cfg.HoursBack = f.hours
	}
	if f.reportLimit > 0 {
		cfg.Limit = f.reportLimit
	}
	switch f.flow {
	case "light":
		cfg.DeepModelIDs = nil
	case "deep":
		cfg.LightModelIDs = nil
	case "dual", "intelligence", "":
		// both variants run
	default:
		return nil, fmt.Errorf("unknown --flow %q", f.flow)
	}

	svc := newReportService(d, cfg)
	stats, err := svc.Run(ctx, now)
	if stats != nil {
		for _, v := range stats.Variants {
			outcome := "success"
			if !v.Success {
				outcome = "failure"
			}
			metrics.ReportVariantsTotal.WithLabelValues(string(v.Mode), outcome).Inc()
		}
	}
	if err != nil {
		return stats, err
	}
	if !stats.AnySucceeded() {
		return stats, fmt.Errorf("intelligence_report: no variant succeeded")
	}
	return stats, nil
}

func runKOLReport(ctx context.Context, d *deps, f taskFlags, now time.Time) (any, error) {
	if f.userID <= 0 {
		return nil, fmt.Errorf("kol_report requires --user-id")
	}
	account, err := d.accounts.Get(ctx, f.userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %d not found", f.userID)
	}

	cfg := report.LoadConfig()
	days := cfg.HoursBack / 24
	if f.days > 0 {
		days = f.days
	}
	if days <= 0 {
		days = 30
	}

	svc := newReportService(d, cfg)
	stats, err := svc.RunForAccount(ctx, account, days, now)
	if stats != nil && stats.PostsConsidered > 0 {
		outcome := "success"
		if !stats.Variant.Success {
			outcome = "failure"
		}
		metrics.ReportVariantsTotal.WithLabelValues(string(entity.ReportMonthlyKOL), outcome).Inc()
	}
	if err != nil {
		return stats, err
	}
	if !stats.Variant.Success {
		return stats, fmt.Errorf("kol_report: report was not persisted")
	}
	return stats, nil
}

func runFullAnalysis(ctx context.Context, d *deps, f taskFlags, now time.Time) (any, error) {
	combined := struct {
		PostInsights  any `json:"post_insights"`
		UserAnalysis  any `json:"user_analysis"`
		Report        any `json:"intelligence_report"`
	}{}

	insights, err := runPostInsights(ctx, d, f)
	combined.PostInsights = insights
	if err != nil {
		return combined, fmt.Errorf("post_insights stage: %w", err)
	}

	analysis, err := runUserAnalysis(ctx, d, f, now)
	combined.UserAnalysis = analysis
	if err != nil {
		return combined, fmt.Errorf("user_analysis stage: %w", err)
	}

	rpt, err := runIntelligenceReport(ctx, d, f, now)
	combined.Report = rpt
	if err != nil {
		return combined, fmt.Errorf("intelligence_report stage: %w", err)
	}
	return combined, nil
}

func emit(output string, res result) {
	switch output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
	default:
		status := "OK"
		if !res.Success {
			status = "FAILED"
		}
		line := fmt.Sprintf("[%s] task=%s duration=%s", status, res.Task, res.Duration)
		if res.Error != "" {
			line += fmt.Sprintf(" error=%q", res.Error)
		}
		fmt.Println(line)
	}
}

func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

func initDatabase(logger *slog.Logger, recreate bool) *sql.DB {
	database := db.Open()
	if recreate {
		logger.Info("recreate-db: dropping and recreating all tables")
		if err := db.MigrateDown(database); err != nil {
			logger.Error("migrate down failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
	if err := db.MigrateUp(database); err != nil {
		logger.Error("migrate up failed", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// createHTTPClient creates an HTTP client with timeouts and connection
// pooling. TLS 1.2+ is enforced for security.
func createHTTPClient() *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}

// loadDiscordConfig loads Discord webhook configuration from the
// environment, validating the webhook URL's scheme, host, and path before
// enabling the channel.
func loadDiscordConfig() notifier.DiscordConfig {
	enabled := os.Getenv("DISCORD_ENABLED") == "true"
	webhookURL := os.Getenv("DISCORD_WEBHOOK_URL")
	if !enabled || webhookURL == "" {
		return notifier.DiscordConfig{Enabled: false}
	}

	u, err := url.Parse(webhookURL)
	if err != nil || u.Scheme != "https" || u.Host != "discord.com" || !strings.HasPrefix(u.Path, "/api/webhooks/") {
		slog.Warn("invalid Discord webhook configuration, disabling channel")
		return notifier.DiscordConfig{Enabled: false}
	}

	return notifier.DiscordConfig{Enabled: true, WebhookURL: webhookURL, Timeout: 30 * time.Second}
}

// loadSlackConfig loads Slack webhook configuration from the environment,
// mirroring loadDiscordConfig's validation shape.
func loadSlackConfig() notifier.SlackConfig {
	enabled := os.Getenv("SLACK_ENABLED") == "true"
	webhookURL := os.Getenv("SLACK_WEBHOOK_URL")
	if !enabled || webhookURL == "" {
		return notifier.SlackConfig{Enabled: false}
	}

	u, err := url.Parse(webhookURL)
	if err != nil || u.Scheme != "https" || u.Host != "hooks.slack.com" || !strings.HasPrefix(u.Path, "/services/") {
		slog.Warn("invalid Slack webhook configuration, disabling channel")
		return notifier.SlackConfig{Enabled: false}
	}

	return notifier.SlackConfig{Enabled: true, WebhookURL: webhookURL, Timeout: 30 * time.Second}
}
