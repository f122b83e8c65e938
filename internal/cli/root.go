package cli

import (
	"time"

	"github.com/merosman91/Agricultural-Tractor/internal/config"
	"github.com/merosman91/Agricultural-Tractor/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds references to all services and settings used by CLI commands.
type App struct {
	Records service.RecordService
	Reports service.ReportService
	Config  *config.Config
	Logger  *zap.Logger

	// Now is the clock behind relative dates and report timestamps.
	Now func() time.Time

	// IsInteractive reports whether stdin is a terminal. Forms only run
	// when it returns true.
	IsInteractive func() bool
}

// NewRootCmd creates the top-level "tractorlog" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "tractorlog",
		Short:         "Tractor rental work log, customer reports and offline cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRecordCmd(app),
		newStatsCmd(app),
		newReportCmd(app),
		newDataCmd(app),
		newServeCmd(app),
		newCacheCmd(app),
	)

	return root
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) currency() string {
	if a.Config == nil {
		return ""
	}
	return a.Config.Currency
}

func (a *App) defaultRate() int {
	if a.Config == nil || a.Config.DefaultHourlyRate <= 0 {
		return service.DefaultHourlyRate
	}
	return a.Config.DefaultHourlyRate
}

func (a *App) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}
