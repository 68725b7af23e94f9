package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"flaky/internal/config"
	"flaky/internal/storage"
)

// ExportCommand handles the export command
type ExportCommand struct {
	config  *config.Config
	storage storage.Storage
	log     logrus.FieldLogger
}

// NewExportCommand creates a new ExportCommand
func NewExportCommand(cfg *config.Config, st storage.Storage, log logrus.FieldLogger) *ExportCommand {
	return &ExportCommand{
		config:  cfg,
		storage: st,
		log:     log,
	}
}

// Execute runs the command
func (ec *ExportCommand) Execute(cmd *cobra.Command, args []string) error {
	output, err := ec.storage.Load()
	if err != nil {
		return err
	}

	dbc := ec.config.GetDatabaseConfig()
	db, err := storage.OpenMySQL(cmd.Context(), dbc)
	if err != nil {
		return err
	}
	defer db.Close()

	exporter, err := storage.NewMySQLExporter(db, dbc.Table, ec.log)
	if err != nil {
		return err
	}

	n, err := exporter.Export(cmd.Context(), output)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	color.Green("✓ Exported %d test(s) to %s.%s", n, dbc.Name, dbc.Table)
	return nil
}
