// Command mymoment-monitor runs the mymoment monitoring system: discovery,
// preparation, AI comment generation, and posting against a third-party
// student-writing platform, plus the CLI's operational subcommands.
//
// Usage:
//
//	mymoment-monitor server --config-dir ./deploy/config
//	mymoment-monitor worker --pod-id worker-1
//	mymoment-monitor scheduler
//	mymoment-monitor db stats
//	mymoment-monitor user create --email a@b.com --password secret
//	mymoment-monitor celery info
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/api"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/cleanup"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/database"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/llm"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/orchestrator"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/ratelimit"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/services"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/session"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/vault"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/version"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/versioning"
)

// CLI defines the command-line interface.
type CLI struct {
	Server    ServerCmd    `cmd:"" help:"Start the HTTP health/readiness listener."`
	Worker    WorkerCmd    `cmd:"" help:"Join the stage-task worker pool."`
	Scheduler SchedulerCmd `cmd:"" help:"Run the duration checker and retention cleanup loops."`
	DB        DBCmd        `cmd:"" help:"Database maintenance commands."`
	User      UserCmd      `cmd:"" help:"User management commands."`
	Celery    CeleryCmd    `cmd:"" help:"Inspect the Postgres-backed stage task queue."`
	Version   VersionCmd   `cmd:"" help:"Show version information."`

	ConfigDir string `short:"c" name:"config-dir" help:"Path to configuration directory." default:"./deploy/config"`
}

// VersionCmd prints build version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(version.Full())
	return nil
}

// app bundles the shared dependency graph every long-running subcommand
// needs, built once per process before handing pieces of it to a
// subcommand's Run.
type app struct {
	cfg      *config.Config
	dbClient *database.Client
	store    *store.Store
	vault    *vault.Vault
	limiter  *ratelimit.Limiter
	sessions *session.Manager
	gateway  *llm.Gateway
}

func newApp(ctx context.Context, configDir string) (*app, error) {
	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	} else {
		slog.Info("loaded environment file", "path", envPath)
	}

	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("initializing configuration: %w", err)
	}

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("loading database config: %w", err)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	st := store.New(dbClient.DB())

	v, err := vault.New(cfg.Vault)
	if err != nil {
		_ = dbClient.Close()
		return nil, fmt.Errorf("initializing credential vault: %w", err)
	}

	limiter := ratelimit.New(cfg.RateLimit)
	sessions := session.New(cfg.Session, cfg.Scraper, limiter, st)
	gateway := llm.New(cfg.LLMEndpoints)

	return &app{
		cfg:      cfg,
		dbClient: dbClient,
		store:    st,
		vault:    v,
		limiter:  limiter,
		sessions: sessions,
		gateway:  gateway,
	}, nil
}

func (a *app) Close() {
	a.sessions.Stop()
	if err := a.dbClient.Close(); err != nil {
		slog.Error("error closing database client", "error", err)
	}
}

// buildPool wires the four StageExecutors into a WorkerPool, closing the
// Orchestrator<->WorkerPool construction cycle via SetPool (pkg/orchestrator
// builds the Orchestrator first, since executors hold a reference to it).
func (a *app) buildPool(podID string) (*orchestrator.Orchestrator, *orchestrator.WorkerPool) {
	orch := orchestrator.New(a.store, nil, a.cfg.Orchestrator)

	creds := orchestrator.NewCredentialResolver(a.store, a.vault)
	versioner := versioning.New(a.store, a.cfg.Retention)

	executors := map[string]orchestrator.StageExecutor{
		string(config.StageDiscovery):   orchestrator.NewDiscoveryExecutor(a.store, a.sessions, creds, orch, a.cfg.Defaults),
		string(config.StagePreparation): orchestrator.NewPreparationExecutor(a.store, a.sessions, creds, versioner, orch),
		string(config.StageGeneration):  orchestrator.NewGenerationExecutor(a.store, a.gateway, a.vault, orch, a.cfg.Defaults),
		string(config.StagePosting):     orchestrator.NewPostingExecutor(a.store, a.sessions, creds, orch),
	}

	pool := orchestrator.NewWorkerPool(podID, a.store, a.cfg.Orchestrator, executors)
	orch.SetPool(pool)
	return orch, pool
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutdown signal received")
		cancel()
	case <-ctx.Done():
	}
}

// ServerCmd starts the minimal HTTP health/readiness listener (external
// collaborator surface, spec.md §6). It does not itself claim stage tasks;
// pair it with `worker` and `scheduler` processes in production, one
// pod per role.
type ServerCmd struct {
	Addr string `help:"HTTP listen address." default:":8080"`
}

func (c *ServerCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go waitForShutdown(ctx, cancel)

	a, err := newApp(ctx, cli.ConfigDir)
	if err != nil {
		return err
	}
	defer a.Close()

	server := api.NewServer(a.dbClient, nil)
	go func() {
		if err := server.Start(c.Addr); err != nil {
			slog.Error("http server stopped", "error", err)
		}
	}()
	slog.Info("server listening", "addr", c.Addr)

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// WorkerCmd joins the stage-task worker pool: claims and executes discovery,
// preparation, generation, and posting tasks until told to stop.
type WorkerCmd struct {
	PodID string `help:"Identifier for this worker's claimed-task registry (default: hostname-pid)."`
}

func (c *WorkerCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go waitForShutdown(ctx, cancel)

	a, err := newApp(ctx, cli.ConfigDir)
	if err != nil {
		return err
	}
	defer a.Close()

	podID := c.PodID
	if podID == "" {
		podID = defaultPodID()
	}

	_, pool := a.buildPool(podID)
	pool.Start(ctx)
	slog.Info("worker pool started", "pod_id", podID)

	<-ctx.Done()
	pool.Stop()
	return nil
}

// SchedulerCmd runs the periodic-task dispatcher: the MonitoringProcess
// duration checker and the retention cleanup sweeps. It holds its own empty
// WorkerPool purely so the Orchestrator has somewhere to route
// CancelTask — this process never claims stage tasks itself.
type SchedulerCmd struct{}

func (c *SchedulerCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go waitForShutdown(ctx, cancel)

	a, err := newApp(ctx, cli.ConfigDir)
	if err != nil {
		return err
	}
	defer a.Close()

	orch := orchestrator.New(a.store, nil, a.cfg.Orchestrator)
	orch.SetPool(orchestrator.NewWorkerPool("scheduler-"+defaultPodID(), a.store, a.cfg.Orchestrator, nil))
	go orch.RunDurationChecker(ctx)

	cleanupSvc := cleanup.NewService(a.cfg.Retention, a.store)
	cleanupSvc.Start(ctx)

	slog.Info("scheduler running")
	<-ctx.Done()
	orch.Stop()
	cleanupSvc.Stop()
	return nil
}

// DBCmd groups database maintenance subcommands.
type DBCmd struct {
	Migrate DBMigrateCmd `cmd:"" help:"Apply pending migrations (also run automatically on connect)."`
	Seed    DBSeedCmd    `cmd:"" help:"Insert the built-in system prompt templates."`
	Reset   DBResetCmd   `cmd:"" help:"Drop and recreate all application tables. Destructive."`
	Stats   DBStatsCmd   `cmd:"" help:"Print row counts for key tables."`
}

// DBMigrateCmd connects (which runs pending migrations as a side effect of
// database.NewClient) and reports success.
type DBMigrateCmd struct{}

func (c *DBMigrateCmd) Run(cli *CLI) error {
	ctx := context.Background()
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	client, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return err
	}
	defer client.Close()
	fmt.Println("migrations applied")
	return nil
}

// DBSeedCmd inserts the system-owned prompt templates a fresh deployment
// needs before any MonitoringProcess can be created.
type DBSeedCmd struct{}

func (c *DBSeedCmd) Run(cli *CLI) error {
	ctx := context.Background()
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	client, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return err
	}
	defer client.Close()

	st := store.New(client.DB())
	seeds := []*store.PromptTemplate{
		{
			Category:            string(config.PromptCategorySystem),
			Name:                "default",
			SystemPrompt:        "You are a supportive writing tutor leaving one encouraging, concrete comment on a student's article.",
			UserPromptTemplate:  "Article title: {article_title}\nAuthor: {article_author}\n\n{article_content}",
			IsActive:            true,
		},
	}
	for _, p := range seeds {
		if err := st.CreatePromptTemplate(ctx, p); err != nil {
			return fmt.Errorf("seeding prompt template %q: %w", p.Name, err)
		}
	}
	fmt.Printf("seeded %d prompt template(s)\n", len(seeds))
	return nil
}

// DBResetCmd drops and recreates every application table. Requires
// --confirm to guard against accidental data loss.
type DBResetCmd struct {
	Confirm bool `help:"Required to actually perform the reset."`
}

func (c *DBResetCmd) Run(cli *CLI) error {
	if !c.Confirm {
		return fmt.Errorf("refusing to reset the database without --confirm")
	}
	ctx := context.Background()
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	client, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := database.DropAll(ctx, client.DB()); err != nil {
		return fmt.Errorf("dropping tables: %w", err)
	}
	// Reconnecting re-runs migrations against the now-empty schema.
	client2, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return err
	}
	defer client2.Close()
	fmt.Println("database reset")
	return nil
}

// DBStatsCmd reports row counts for the core tables, a quick operational
// sanity check.
type DBStatsCmd struct{}

func (c *DBStatsCmd) Run(cli *CLI) error {
	ctx := context.Background()
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	client, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return err
	}
	defer client.Close()

	stats, err := database.TableStats(ctx, client.DB())
	if err != nil {
		return err
	}
	for table, n := range stats {
		fmt.Printf("%-24s %d\n", table, n)
	}
	return nil
}

// UserCmd groups user account management subcommands.
type UserCmd struct {
	Create UserCreateCmd `cmd:"" help:"Create a new user account."`
}

// UserCreateCmd creates a user with a bcrypt-hashed password.
type UserCreateCmd struct {
	Email    string `required:"" help:"User email address."`
	Password string `required:"" help:"Plaintext password (hashed before storage)."`
}

func (c *UserCreateCmd) Run(cli *CLI) error {
	ctx := context.Background()
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	client, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return err
	}
	defer client.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	st := store.New(client.DB())
	u := &store.User{Email: c.Email, PasswordHash: string(hash), IsActive: true}
	if err := st.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	fmt.Printf("created user %s (%s)\n", u.ID, u.Email)
	return nil
}

// CeleryCmd groups the celery-compatibility queue-inspection subcommands
// (spec.md §6 names these for operational parity with the system this was
// distilled from; the queue itself is a Postgres table, not a Celery
// broker — see SPEC_FULL.md §7).
type CeleryCmd struct {
	Info   CeleryInfoCmd   `cmd:"" help:"Show queue depth per stage."`
	Health CeleryHealthCmd `cmd:"" help:"Report whether the queue database is reachable."`
	Clear  CeleryClearCmd  `cmd:"" help:"Cancel every still-queued (unclaimed) stage task."`
}

type CeleryInfoCmd struct{}

func (c *CeleryInfoCmd) Run(cli *CLI) error {
	ctx := context.Background()
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	client, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return err
	}
	defer client.Close()

	st := store.New(client.DB())
	depth, err := st.QueueDepth(ctx)
	if err != nil {
		return err
	}
	for _, stage := range config.Stages {
		stats := depth[string(stage)]
		fmt.Printf("%-12s queued=%-4d claimed=%d\n", stage, stats.Queued, stats.Claimed)
	}
	return nil
}

type CeleryHealthCmd struct {
	// StuckThreshold is accepted on the command line but Run does not read
	// it: Run reports healthy whenever the database answers a health check,
	// and queue progress is not inspected.
	StuckThreshold time.Duration `default:"10m"`
}

func (c *CeleryHealthCmd) Run(cli *CLI) error {
	ctx := context.Background()
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	client, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := database.Health(ctx, client.DB()); err != nil {
		fmt.Println("unhealthy: database unreachable")
		os.Exit(1)
	}
	fmt.Println("healthy")
	return nil
}

type CeleryClearCmd struct {
	Confirm bool `help:"Required to actually cancel queued tasks."`
}

func (c *CeleryClearCmd) Run(cli *CLI) error {
	if !c.Confirm {
		return fmt.Errorf("refusing to clear the queue without --confirm")
	}
	ctx := context.Background()
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	client, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return err
	}
	defer client.Close()

	st := store.New(client.DB())
	n, err := st.ClearQueuedStageTasks(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("cancelled %d queued task(s)\n", n)
	return nil
}

func defaultPodID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("mymoment-monitor"),
		kong.Description("Monitors a third-party student-writing platform and posts AI-generated comments."),
		kong.UsageOnError(),
	)

	if err := ctx.Run(&cli); err != nil {
		log.Printf("error: %v", err)
		// Validation errors are the caller's fault (exit 1); anything
		// else (database, vault, network) is a system failure (exit 2), per
		// spec.md §6's exit code contract.
		if services.IsValidationError(err) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
