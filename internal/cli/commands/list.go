package commands

import (
	"github.com/spf13/cobra"

	"flaky/internal/config"
	"flaky/internal/discovery"
	"flaky/internal/storage"
	"flaky/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	filter    *discovery.Filter
	storage   storage.Storage
	formatter *ui.Formatter
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	filter *discovery.Filter,
	st storage.Storage,
	formatter *ui.Formatter,
) *ListCommand {
	return &ListCommand{
		config:    cfg,
		filter:    filter,
		storage:   st,
		formatter: formatter,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	output, err := lc.storage.Load()
	if err != nil {
		return err
	}

	records := lc.filter.FilterRecords(output.Records, lc.config.Flags.NameFilter)
	lc.formatter.PrintRecordList(records, lc.config.Flags.FlakyOnly)
	return nil
}
