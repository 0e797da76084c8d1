package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin"
	"github.com/sirupsen/logrus"

	"github.com/sashakt-platform/sashakt-ops/src/alembic"
	"github.com/sashakt-platform/sashakt-ops/src/configs"
	"github.com/sashakt-platform/sashakt-ops/src/consts"
	"github.com/sashakt-platform/sashakt-ops/src/container"
	"github.com/sashakt-platform/sashakt-ops/src/db"
	"github.com/sashakt-platform/sashakt-ops/src/log"
	"github.com/sashakt-platform/sashakt-ops/src/notify"
	"github.com/sashakt-platform/sashakt-ops/src/pkg/sentry"
	"github.com/sashakt-platform/sashakt-ops/src/pkg/utils"
	"github.com/sashakt-platform/sashakt-ops/src/state"
	"github.com/sashakt-platform/sashakt-ops/src/testrunner"
)

var (
	app        = kingpin.New(consts.AppName, "Migration lifecycle tooling for the Sashakt Platform backend.")
	configPath = app.Flag("config", "Path to the yaml config file.").Short('c').String()
	envFile    = app.Flag("env-file", "Path to the backend .env file.").Default(filepath.Join("backend", ".env")).String()
	debug      = app.Flag("debug", "Enable debug logging.").Bool()

	migrationsCmd = app.Command("migrations", "Manage the backend's database migrations.")

	createCmd = migrationsCmd.Command("create", "Generate a migration from model changes and sync it to the host.")
	createMsg = createCmd.Flag("message", "Migration message.").Short('m').Required().String()

	syncCmd = migrationsCmd.Command("sync", "Copy migration files from the container to the host tree.")

	resetCmd = migrationsCmd.Command("reset", "Destroy the migration history and regenerate a single baseline.")
	resetYes = resetCmd.Flag("yes", "Skip the confirmation prompt.").Bool()

	statusCmd = migrationsCmd.Command("status", "Show the database revision and the host-side history.")

	testCmd   = app.Command("test", "Run the backend test suite under coverage.")
	testLabel = testCmd.Arg("label", "Name of the exported coverage artifact.").Default(testrunner.DefaultLabel).String()

	waitDBCmd = app.Command("wait-db", "Block until the database accepts connections.")

	versionCmd = app.Command("version", "Print version information.")
)

func main() {
	os.Exit(run())
}

func run() int {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == versionCmd.FullCommand() {
		printVersion()
		return 0
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", consts.AppName, err)
		return 1
	}
	logger := log.New(cfg)

	if cfg.Sentry.Enable {
		if err := sentry.Init(os.Getenv("SENTRY_DSN"), "production", consts.AppVersion); err != nil {
			logger.WithError(err).Warn("failed to initialize sentry")
		}
	}
	defer sentry.Flush(2 * time.Second)
	defer sentry.Recover()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The audit store never blocks the operation it records.
	store, err := state.Open(cfg.State.DBPath)
	if err != nil {
		logger.WithError(err).Warn("audit store unavailable, continuing without it")
		store = nil
	} else {
		defer store.Close()
	}

	c := &cli{cfg: cfg, store: store, logger: logger}

	if command == waitDBCmd.FullCommand() {
		return c.audited(ctx, consts.OpWaitDB, "", func(ctx context.Context, _ string) (int, error) {
			// Health gate first, then a direct connection ping: a container
			// can report healthy before PostgreSQL accepts connections.
			if cfg.Database.Service != "" {
				rt := container.NewDockerCompose(cfg.Backend.ComposeFile)
				if err := container.WaitHealthy(ctx, rt, cfg.Database.Service,
					cfg.Database.WaitInterval, cfg.Database.WaitTimeout); err != nil {
					return 0, err
				}
			}
			return 0, db.NewWaiter(&cfg.Database).Wait(ctx)
		})
	}

	rt := container.NewDockerCompose(cfg.Backend.ComposeFile)
	if err := container.CheckEngineVersion(ctx, rt, cfg.Backend.MinDockerVersion); err != nil {
		return exitOnError(logger, err)
	}
	c.rt = rt
	c.mgr = alembic.NewManager(rt, cfg)

	switch command {
	case createCmd.FullCommand():
		return c.audited(ctx, consts.OpCreate, *createMsg, c.create)
	case syncCmd.FullCommand():
		return c.audited(ctx, consts.OpSync, "", c.sync)
	case resetCmd.FullCommand():
		if !*resetYes && !confirmReset() {
			fmt.Println("aborted")
			return 1
		}
		return c.audited(ctx, consts.OpReset, "", c.reset)
	case statusCmd.FullCommand():
		return c.audited(ctx, consts.OpStatus, "", c.status)
	case testCmd.FullCommand():
		return c.audited(ctx, consts.OpTest, *testLabel, c.test)
	}
	return 0
}

type cli struct {
	cfg    *configs.Config
	rt     container.Runtime
	store  *state.Store
	logger *logrus.Logger
	mgr    *alembic.Manager
}

// audited wraps a command with run recording in the audit store and error
// reporting. The command's return value is the process exit code.
func (c *cli) audited(ctx context.Context, operation, argument string, fn func(ctx context.Context, runID string) (int, error)) int {
	runID := ""
	if c.store != nil {
		id, err := c.store.BeginRun(ctx, operation, argument)
		if err != nil {
			c.logger.WithError(err).Warn("failed to record run start")
		} else {
			runID = id
		}
	}

	code, err := fn(ctx, runID)
	if err != nil {
		c.logger.WithError(err).Error(operation + " failed")
		sentry.CaptureException(err)
		notify.SendRunReport(c.cfg, operation, false, err.Error())
		if code == 0 {
			code = 1
		}
	} else if code != 0 {
		notify.SendRunReport(c.cfg, operation, false, fmt.Sprintf("exit code %d", code))
	}

	if c.store != nil && runID != "" {
		status := state.RunStatusSucceeded
		detail := ""
		if err != nil {
			status = state.RunStatusFailed
			detail = err.Error()
		} else if code != 0 {
			status = state.RunStatusFailed
			detail = fmt.Sprintf("exit code %d", code)
		}
		if err := c.store.FinishRun(ctx, runID, status, detail); err != nil {
			c.logger.WithError(err).Warn("failed to record run end")
		}
	}
	return code
}

func (c *cli) create(ctx context.Context, runID string) (int, error) {
	if _, err := c.mgr.Generate(ctx, *createMsg); err != nil {
		return 0, err
	}
	added, err := c.mgr.Sync(ctx)
	if err != nil {
		return 0, err
	}
	c.recordRevisions(ctx, runID, added)
	for _, name := range added {
		fmt.Println(name)
	}
	return 0, nil
}

func (c *cli) sync(ctx context.Context, runID string) (int, error) {
	added, err := c.mgr.Sync(ctx)
	if err != nil {
		return 0, err
	}
	c.recordRevisions(ctx, runID, added)
	for _, name := range added {
		fmt.Println(name)
	}
	return 0, nil
}

func (c *cli) reset(ctx context.Context, runID string) (int, error) {
	baseline, err := c.mgr.Reset(ctx)
	if err != nil {
		return 0, err
	}
	notify.SendRunReport(c.cfg, consts.OpReset, true, baseline)

	if c.store != nil {
		if err := c.store.ClearRevisions(ctx); err != nil {
			c.logger.WithError(err).Warn("failed to clear revision ledger")
		}
	}
	c.recordRevisions(ctx, runID, []string{baseline})

	fmt.Println(baseline)
	return 0, nil
}

func (c *cli) status(ctx context.Context, runID string) (int, error) {
	status, err := c.mgr.Status(ctx)
	if err != nil {
		return 0, err
	}

	fmt.Printf("database: %s\n", status.Current)
	fmt.Printf("files:    %d\n", len(status.Files))
	for _, name := range status.Files {
		fmt.Printf("  %s\n", name)
	}
	if len(status.Problems) > 0 {
		fmt.Println("problems:")
		for _, p := range status.Problems {
			fmt.Printf("  %s\n", p)
		}
		return 1, nil
	}
	return 0, nil
}

func (c *cli) test(ctx context.Context, runID string) (int, error) {
	runner := testrunner.NewRunner(c.rt, c.cfg)
	result, err := runner.Run(ctx, *testLabel)
	if err != nil {
		return 0, err
	}

	fmt.Print(result.Output)
	fmt.Print(result.Report)
	if result.ArtifactPath != "" {
		fmt.Printf("coverage report: %s\n", result.ArtifactPath)
	}
	// The suite's exit code passes through unchanged.
	return result.ExitCode, nil
}

// recordRevisions adds newly synced version files to the ledger, best effort.
func (c *cli) recordRevisions(ctx context.Context, runID string, names []string) {
	if c.store == nil || runID == "" {
		return
	}
	for _, name := range names {
		rev, err := alembic.ParseFile(filepath.Join(c.cfg.Migrations.HostVersionsDir, name))
		if err != nil {
			c.logger.WithError(err).WithField("file", name).Warn("failed to parse synced revision")
			continue
		}
		if err := c.store.RecordRevision(ctx, runID, rev.ID, rev.DownID, rev.Filename); err != nil {
			c.logger.WithError(err).Warn("failed to record revision")
		}
	}
}

// defaultConfigFile is picked up from the working directory when no
// --config flag is given.
const defaultConfigFile = "config.yml"

func loadConfig() (*configs.Config, error) {
	var cfg *configs.Config
	switch {
	case *configPath != "":
		c, err := configs.NewConfigWithFile(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	case utils.FileExists(defaultConfigFile):
		c, err := configs.NewConfigWithFile(defaultConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	default:
		cfg = configs.NewConfig()
	}
	if *debug {
		cfg.Debug = true
	}
	if err := cfg.LoadEnv(*envFile); err != nil {
		return nil, err
	}
	return cfg, cfg.Verify()
}

func confirmReset() bool {
	fmt.Print("This deletes every migration file and regenerates the baseline. Type 'yes' to continue: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) == "yes"
}

func exitOnError(logger *logrus.Logger, err error) int {
	if err != nil {
		logger.WithError(err).Error("command failed")
		sentry.CaptureException(err)
		return 1
	}
	return 0
}

func printVersion() {
	info := consts.GetAppInfo()
	fmt.Printf("%s %s\n", info.AppName, info.AppVersion)
	fmt.Printf("  build time: %s\n", info.BuildTime)
	fmt.Printf("  git hash:   %s\n", info.GitHash)
	fmt.Printf("  platform:   %s\n", info.Platform)
	fmt.Printf("  go version: %s\n", info.GoVersion)
}
