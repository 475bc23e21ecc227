// Package cli provides the cobra command tree for sercha-rag.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// Services bundles the driving ports the commands operate on.
type Services struct {
	Query           driving.QueryService
	Router          driving.RouterService
	Ingest          driving.IngestService
	History         driving.HistoryService
	Settings        driving.SettingsService
	Scheduler       driving.Scheduler
	SchedulerConfig domain.SchedulerConfig
}

// Bootstrap builds the services for a config directory. An empty directory
// means the default location. The returned cleanup releases any resources
// and is called once the command has finished.
type Bootstrap func(configDir string) (*Services, func(), error)

var (
	queryService    driving.QueryService
	routerService   driving.RouterService
	ingestService   driving.IngestService
	historyService  driving.HistoryService
	settingsService driving.SettingsService
	scheduler       driving.Scheduler
	schedulerConfig domain.SchedulerConfig

	bootstrap       Bootstrap
	cleanupServices func()
)

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Ask questions about your local documents",
	Long: `sercha-rag answers questions over a local document collection.

Documents are chunked and indexed lexically. Each question is routed to
either retrieval-augmented generation (RAG) or a direct model answer (NLP),
and every answer is recorded in the query history.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepareServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline diagnostics")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.sercha-rag)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function used to build services before a
// command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices injects the driving ports directly.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	queryService = s.Query
	routerService = s.Router
	ingestService = s.Ingest
	historyService = s.History
	settingsService = s.Settings
	scheduler = s.Scheduler
	schedulerConfig = s.SchedulerConfig
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer func() {
		if cleanupServices != nil {
			cleanupServices()
			cleanupServices = nil
		}
	}()
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func prepareServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd.Annotations[skipBootstrap] != "" {
		return nil
	}
	svc, cleanup, err := bootstrap(configDir)
	if err != nil {
		return fmt.Errorf("initialising services: %w", err)
	}
	SetServices(svc)
	cleanupServices = cleanup
	return nil
}

// startScheduler runs the background scheduler for long-running commands.
// The returned function stops it.
func startScheduler(ctx context.Context, errOut io.Writer) func() {
	if scheduler == nil || !schedulerConfig.Enabled {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(errOut, "scheduler stopped: %v\n", err)
		}
	}()

	return func() {
		if err := scheduler.Stop(); err != nil {
			fmt.Fprintf(errOut, "scheduler stop error: %v\n", err)
		}
		cancel()
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
