package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/zzmio78/wrdrv/internal/config"
	"github.com/zzmio78/wrdrv/internal/conflict"
	"github.com/zzmio78/wrdrv/internal/execx"
	"github.com/zzmio78/wrdrv/internal/iface"
	"github.com/zzmio78/wrdrv/internal/render"
	"github.com/zzmio78/wrdrv/internal/scan"
	"github.com/zzmio78/wrdrv/internal/store"
	"github.com/zzmio78/wrdrv/internal/webapi"
)

var Version = "dev" // Set by build process

const usageText = `wrdrv %s - wireless scan and interface mode toolkit

Usage: wrdrv <command> [options] [<interface>]

Commands:
  scan      Scan surrounding networks and rank them by signal strength
  monitor   Switch an interface to monitor mode
  managed   Switch an interface back to managed mode
  check     Report conflicting services and processes without touching them
  sessions  List scan sessions stored in the results database
  version   Print the version and exit

Run 'wrdrv <command> -h' for command options.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usageText, Version)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "scan":
		err = runScan(args)
	case "monitor":
		err = runMonitor(args)
	case "managed":
		err = runManaged(args)
	case "check":
		err = runCheck(args)
	case "sessions":
		err = runSessions(args)
	case "version", "-version", "--version":
		fmt.Printf("wrdrv %s\n", Version)
	case "help", "-h", "--help":
		fmt.Printf(usageText, Version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fmt.Fprintf(os.Stderr, usageText, Version)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
}

// env bundles what every subcommand needs.
type env struct {
	cfg    *config.Config
	logger *logrus.Logger
	runner execx.Runner
}

// commonFlags registers the flags shared by all subcommands on fs and
// returns the destinations.
func commonFlags(fs *flag.FlagSet) (configFile, logLevel *string) {
	configFile = fs.String("config", "wrdrv.yaml", "Path to configuration file")
	logLevel = fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	return configFile, logLevel
}

func newEnv(configFile, logLevel string) (*env, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	switch logLevel {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	cfg, err := config.LoadOrInitialize(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		runner: execx.NewSystemRunner(execx.NewLogrusAdapter(logger)),
	}, nil
}

// requireInterface validates the positional interface argument before any
// scan or mode operation.
func (e *env) requireInterface(ctx context.Context, name string) error {
	return iface.Check(ctx, name, e.runner)
}

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	configFile, logLevel := commonFlags(fs)
	loops := fs.Int("l", 1, "Number of scan loops to perform")
	noStop := fs.Bool("n", false, "Scan indefinitely until interrupted")
	reverse := fs.Bool("r", false, "Reverse the display order of the ranked list")
	output := fs.String("o", "", "Append per-loop JSONL snapshots to this file")
	dbPath := fs.String("db", "", "Persist observations to this sqlite database (overrides config)")
	listen := fs.String("listen", "", "Serve a read-only status API on this address during the scan")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := newEnv(*configFile, *logLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interfaceName := fs.Arg(0)
	if err := e.requireInterface(ctx, interfaceName); err != nil {
		return err
	}

	session := &scan.Session{
		Scanner: scan.NewScanner(interfaceName, e.runner, execx.NewLogrusAdapter(e.logger)),
		Logger:  execx.NewLogrusAdapter(e.logger),
		Loops:   *loops,
		NoStop:  *noStop,
		Reverse: *reverse,
		Delay:   e.cfg.ScanDelay(),
		Output:  *output,
	}

	databasePath := e.cfg.DatabasePath
	if *dbPath != "" {
		databasePath = *dbPath
	}
	if databasePath != "" {
		db, err := store.Initialize(databasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize results database: %w", err)
		}
		defer db.Close()
		if err := db.BeginSession(ctx, interfaceName); err != nil {
			return fmt.Errorf("failed to begin stored session: %w", err)
		}
		defer func() {
			if err := db.FinishSession(context.Background()); err != nil {
				e.logger.Errorf("Failed to finish stored session: %v", err)
			}
		}()
		session.Recorder = db
	}

	if *listen != "" {
		api := webapi.NewServer(interfaceName, e.logger)
		api.Start(*listen)
		defer api.Stop()
		session.Publisher = api
	}

	registry, err := session.Run(ctx)
	if err != nil {
		return err
	}

	render.Table(os.Stdout, registry.Ranked(*reverse))
	fmt.Printf("\nScan complete. Found %d networks.\n", registry.Len())
	return nil
}

func runMonitor(args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	configFile, logLevel := commonFlags(fs)
	kill := fs.Bool("k", false, "Kill conflicting services and processes first (highly recommended)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := newEnv(*configFile, *logLevel)
	if err != nil {
		return err
	}

	ctx := context.Background()
	interfaceName := fs.Arg(0)
	if err := e.requireInterface(ctx, interfaceName); err != nil {
		return err
	}

	if *kill {
		resolver := conflict.NewResolver(e.cfg.ConflictLists(), e.runner, execx.NewLogrusAdapter(e.logger))
		result, err := resolver.CheckAndKill(ctx)
		if err != nil {
			return fmt.Errorf("conflict resolution failed: %w", err)
		}
		if !result.Empty() {
			e.logger.Infof("Neutralized %d services, %d processes",
				len(result.Services), len(result.Processes))
		}
	}

	controller := iface.NewController(interfaceName, e.runner, execx.NewLogrusAdapter(e.logger))
	if err := controller.SetMode(ctx, iface.Monitor); err != nil {
		return err
	}

	fmt.Printf("[SUCCESS] %s is now in MONITOR mode.\n", interfaceName)
	return nil
}

func runManaged(args []string) error {
	fs := flag.NewFlagSet("managed", flag.ExitOnError)
	configFile, logLevel := commonFlags(fs)
	restart := fs.Bool("r", false, "Restart network services afterwards")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := newEnv(*configFile, *logLevel)
	if err != nil {
		return err
	}

	ctx := context.Background()
	interfaceName := fs.Arg(0)
	if err := e.requireInterface(ctx, interfaceName); err != nil {
		return err
	}

	controller := iface.NewController(interfaceName, e.runner, execx.NewLogrusAdapter(e.logger))
	if err := controller.SetMode(ctx, iface.Managed); err != nil {
		return err
	}

	msg := fmt.Sprintf("[SUCCESS] %s is now in MANAGED mode.", interfaceName)
	if *restart {
		resolver := conflict.NewResolver(e.cfg.ConflictLists(), e.runner, execx.NewLogrusAdapter(e.logger))
		restored, err := resolver.Restore(ctx)
		if err != nil {
			return fmt.Errorf("service restore failed: %w", err)
		}
		if len(restored) > 0 {
			msg += fmt.Sprintf(" (Restored: %s)", strings.Join(restored, ", "))
		} else {
			msg += " (No services found to restore)"
		}
	}

	fmt.Println(msg)
	return nil
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configFile, logLevel := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := newEnv(*configFile, *logLevel)
	if err != nil {
		return err
	}

	ctx := context.Background()

	resolver := conflict.NewResolver(e.cfg.ConflictLists(), e.runner, execx.NewLogrusAdapter(e.logger))
	result, err := resolver.Check(ctx)
	if err != nil {
		return fmt.Errorf("conflict check failed: %w", err)
	}

	if result.Empty() {
		fmt.Println("No conflicting services or processes found.")
		return nil
	}
	if len(result.Services) > 0 {
		fmt.Printf("Running services: %s\n", strings.Join(result.Services, ", "))
	}
	if len(result.Processes) > 0 {
		fmt.Printf("Running processes: %s\n", strings.Join(result.Processes, ", "))
	}
	fmt.Println("Use 'wrdrv monitor <interface> -k' to neutralize them.")
	return nil
}

func runSessions(args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	configFile, logLevel := commonFlags(fs)
	dbPath := fs.String("db", "", "Results database to inspect (overrides config)")
	limit := fs.Int("limit", 20, "Maximum number of sessions to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := newEnv(*configFile, *logLevel)
	if err != nil {
		return err
	}

	databasePath := e.cfg.DatabasePath
	if *dbPath != "" {
		databasePath = *dbPath
	}
	if databasePath == "" {
		return fmt.Errorf("no results database configured, pass -db or set database_path")
	}

	db, err := store.Initialize(databasePath)
	if err != nil {
		return fmt.Errorf("failed to open results database: %w", err)
	}
	defer db.Close()

	sessions, err := db.Sessions(context.Background(), *limit)
	if err != nil {
		return err
	}

	fmt.Printf("%-5s %-10s %-20s %-6s %-5s\n", "ID", "Interface", "Started", "Loops", "APs")
	for _, s := range sessions {
		fmt.Printf("%-5d %-10s %-20s %-6d %-5d\n",
			s.ID, s.Interface, s.StartedAt.Format("2006-01-02 15:04:05"), s.Loops, s.APCount)
	}
	return nil
}
