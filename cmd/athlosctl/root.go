package main

import (
	"fmt"

	"athlos/fitness-tracker/internal/bootstrap"
	"athlos/fitness-tracker/internal/cache"
	"athlos/fitness-tracker/internal/config"
	"athlos/fitness-tracker/internal/logging"
	"athlos/fitness-tracker/internal/metrics"
	"athlos/fitness-tracker/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	configPath     string
	driverOverride string

	cfg     config.Config
	backend *bootstrap.Backend
)

var rootCmd = &cobra.Command{
	Use:   "athlosctl",
	Short: "Maintenance commands for the athlos fitness tracker",
	Long: `Maintenance commands for the athlos fitness tracker.

Examples:
  athlosctl migrate
  athlosctl seed exercises
  athlosctl plans verify
  athlosctl plans repair 652f1c0e9d3b2a0012345678
  athlosctl exercises delete 652f1c0e9d3b2a0012345678 --policy cascade`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Already wired, e.g. by tests.
		if backend != nil {
			return nil
		}

		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if driverOverride != "" {
			cfg.Database.Driver = driverOverride
		}
		logging.Setup(logging.LoggerSetupParams{
			LogLevel:      cfg.Log.Level,
			LogFormatJSON: cfg.Log.JSON,
		})

		backend, err = bootstrap.OpenBackend(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if backend == nil {
			return nil
		}
		err := backend.Close()
		backend = nil
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory holding config.yaml")
	rootCmd.PersistentFlags().StringVar(&driverOverride, "driver", "", "override database.driver (mongo, postgres, memory)")
}

// cliMetrics is never scraped; it only satisfies the service constructors.
func cliMetrics() *metrics.Manager {
	return metrics.NewManager("athlos", "cli", prometheus.NewRegistry())
}

// exerciseService is built without a cache so deletes never leave stale
// entries behind in a shared redis.
func exerciseService(policy string, m *metrics.Manager) service.ExerciseService {
	return service.NewExerciseService(backend.Repos, cache.Nop{}, policy, m)
}

func planService() service.PlanService {
	m := cliMetrics()
	return service.NewPlanService(backend.Repos.Plans, backend.Repos.PlanItems, exerciseService(cfg.Exercises.DeletePolicy, m), m)
}
