package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	seed         int64   // Seed override for the workload spec
	horizon      float64 // Simulation horizon; 0 = use the workload spec's
	logLevel     string  // Log verbosity level
	networkPath  string  // Network YAML file
	workloadPath string  // Workload YAML file
	traceLevel   string  // Which notifications to include in the output
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "jqsim",
	Short: "Discrete-event simulator for queueing networks",
}

// runCmd executes a workload against a network and prints a YAML summary
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workload through a queueing network",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		opts := runOptions{
			networkPath:  networkPath,
			workloadPath: workloadPath,
			horizon:      horizon,
			traceLevel:   traceLevel,
		}
		if cmd.Flags().Changed("seed") {
			opts.seed = &seed
		}
		if err := runSimulation(opts, os.Stdout); err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// validateCmd checks a network file without running anything
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a network file",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if err := validateNetwork(networkPath, os.Stdout); err != nil {
			logrus.Fatalf("invalid network: %v", err)
		}
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&networkPath, "network", "", "Network YAML file")
	_ = rootCmd.MarkPersistentFlagRequired("network")

	runCmd.Flags().StringVar(&workloadPath, "workload", "", "Workload YAML file")
	_ = runCmd.MarkFlagRequired("workload")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed overriding the workload spec's")
	runCmd.Flags().Float64Var(&horizon, "horizon", 0, "Simulation horizon; 0 uses the workload spec's")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Notifications to print (none, jobs, all)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
