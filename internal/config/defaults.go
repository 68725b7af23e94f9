package config

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultConfigFile is the YAML file read from the project path when present
	DefaultConfigFile = ".flaky.yaml"
	// DefaultReportsDir is where cycles write their reports
	DefaultReportsDir = ".flaky/reports"
	// DefaultReportPattern matches report files when analyzing a directory
	DefaultReportPattern = "*.json"
	// DefaultOutputJSONFile is the default output JSON file name
	DefaultOutputJSONFile = "flaky-results.json"
	// DefaultOutputJSONDir is the default output directory
	DefaultOutputJSONDir = ".flaky"
	// DefaultProcessors is the default number of cycles executed at once
	DefaultProcessors = 1
	// DefaultCycles is the default number of times the suite is executed
	DefaultCycles = 10
	// DefaultExportTable is the MySQL table analysis results are exported to
	DefaultExportTable = "flaky_test_results"
)

// Environment variables read on top of the config file
const (
	EnvMinRuns           = "FLAKY_MIN_RUNS"
	EnvThresholdMin      = "FLAKY_THRESHOLD_MIN"
	EnvThresholdMax      = "FLAKY_THRESHOLD_MAX"
	EnvVarianceThreshold = "FLAKY_VARIANCE_THRESHOLD"
	EnvCycles            = "FLAKY_CYCLES"
	EnvProcessors        = "FLAKY_PROCESSORS"
	EnvReportsDir        = "FLAKY_REPORTS_DIR"

	// EnvCycle and EnvReportPath are handed to the test command of every cycle
	EnvCycle      = "FLAKY_CYCLE"
	EnvReportPath = "FLAKY_REPORT_PATH"
)
