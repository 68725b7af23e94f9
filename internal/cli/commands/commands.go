package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"flaky/internal/classify"
	"flaky/internal/cli"
	"flaky/internal/config"
	"flaky/internal/discovery"
	"flaky/internal/execution"
	"flaky/internal/storage"
	"flaky/internal/ui"
)

// Commands holds all CLI commands
type Commands struct {
	Run     *RunCommand
	Analyze *AnalyzeCommand
	List    *ListCommand
	View    *ViewCommand
	Export  *ExportCommand
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config, log logrus.FieldLogger) *Commands {
	// Initialize dependencies
	scanner := discovery.NewScanner(nil)
	filter := discovery.NewFilter()
	runner := execution.NewRunner(cfg)
	scheduler := execution.NewRoundRobinScheduler()
	executor := execution.NewWorkerPool(cfg, runner, scheduler, log)
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(cfg)
	viewer := ui.NewRecordViewer()

	return &Commands{
		Run:     NewRunCommand(cfg, executor, jsonStorage, formatter, viewer, log),
		Analyze: NewAnalyzeCommand(cfg, scanner, filter, jsonStorage, formatter, viewer, log),
		List:    NewListCommand(cfg, filter, jsonStorage, formatter),
		View:    NewViewCommand(cfg, jsonStorage, viewer),
		Export:  NewExportCommand(cfg, jsonStorage, log),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config, log *logrus.Logger) {
	// Load config once flags are parsed; components share cfg by pointer
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cli.SetVerbose(log, flags.Verbose)

		loaded, err := config.Load(flags.ToConfigFlags(func(name string) bool {
			f := cmd.Flags().Lookup(name)
			return f != nil && f.Changed
		}))
		if err != nil {
			return err
		}
		*cfg = *loaded
		return nil
	}

	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to a YAML config file (default .flaky.yaml when present)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")

	// Run command
	runCmd := &cobra.Command{
		Use:   "run [flags] -- <test command...>",
		Short: "Run the test suite repeatedly and detect flaky tests",
		Long: "Execute the test command once per cycle. Every cycle receives " +
			config.EnvCycle + " and " + config.EnvReportPath + " and must write its CTRF report to that path.",
		RunE: c.Run.Execute,
	}
	runCmd.Flags().IntVarP(&flags.Cycles, "cycles", "n", 0, fmt.Sprintf("Number of times to execute the test command (default %d)", config.DefaultCycles))
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, fmt.Sprintf("Number of cycles to execute at once (default %d)", config.DefaultProcessors))
	runCmd.Flags().StringVar(&flags.ReportsDir, "reports-dir", "", "Directory cycles write their reports to")
	runCmd.Flags().BoolVar(&flags.Open, "open", false, "Open the interactive viewer when the run finishes")
	addThresholdFlags(runCmd, flags)
	rootCmd.AddCommand(runCmd)

	// Analyze command
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Detect flaky tests from existing reports",
		Long:  "Scan a directory for CTRF reports, one per cycle, and classify every test",
		Args:  cobra.NoArgs,
		RunE:  c.Analyze.Execute,
	}
	analyzeCmd.Flags().StringVar(&flags.ReportsDir, "reports-dir", "", "Directory to scan for reports")
	analyzeCmd.Flags().StringVar(&flags.Pattern, "pattern", "", "Report file name pattern (default *.json)")
	analyzeCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Only analyze report files whose name matches the pattern (supports wildcards, e.g., 'nightly-*')")
	analyzeCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, fmt.Sprintf("Number of reports to read at once (default %d)", config.DefaultProcessors))
	analyzeCmd.Flags().BoolVar(&flags.Open, "open", false, "Open the interactive viewer when the analysis finishes")
	addThresholdFlags(analyzeCmd, flags)
	rootCmd.AddCommand(analyzeCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tests of the last analysis",
		Long:  "Print the classified tests of the last run or analyze, flaky first",
		Args:  cobra.NoArgs,
		RunE:  c.List.Execute,
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter tests by name, suite or file pattern (supports wildcards, e.g., '*checkout*')")
	listCmd.Flags().BoolVar(&flags.FlakyOnly, "flaky-only", false, "Only list flaky tests")
	rootCmd.AddCommand(listCmd)

	// View command
	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Browse the last analysis interactively",
		Long:  "Display the classified tests of the last analysis in an interactive viewer",
		Args:  cobra.NoArgs,
		RunE:  c.View.Execute,
	}
	rootCmd.AddCommand(viewCmd)

	// Export command
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the last analysis to MySQL",
		Long:  "Write the records of the last analysis into the " + config.DefaultExportTable + " table. Connection settings come from DB_HOST, DB_PORT, DB_USERNAME, DB_PASSWORD and DB_DATABASE.",
		Args:  cobra.NoArgs,
		RunE:  c.Export.Execute,
	}
	rootCmd.AddCommand(exportCmd)
}

func addThresholdFlags(cmd *cobra.Command, flags *cli.Flags) {
	cmd.Flags().IntVar(&flags.MinRuns, cli.FlagMinRuns, classify.DefaultMinRuns, "Minimum runs before a test is classified")
	cmd.Flags().Float64Var(&flags.FlakyMin, cli.FlagFlakyMin, classify.DefaultFlakyThresholdMin, "Lower bound of the flaky failure rate band")
	cmd.Flags().Float64Var(&flags.FlakyMax, cli.FlagFlakyMax, classify.DefaultFlakyThresholdMax, "Upper bound of the flaky failure rate band")
	cmd.Flags().Float64Var(&flags.VarianceThreshold, cli.FlagVarianceThreshold, classify.DefaultDurationVarianceThreshold, "Duration coefficient of variation marking a test flaky")
}
