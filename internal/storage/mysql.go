package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"flaky/internal/config"
	"flaky/internal/domain"
)

// MySQLExporter writes analysis records into a MySQL table
type MySQLExporter struct {
	db    *sql.DB
	table string
	log   logrus.FieldLogger
}

// DSN builds the driver connection string for the given settings
func DSN(dbc config.DatabaseConfig) string {
	cfg := mysql.NewConfig()
	cfg.User = dbc.User
	cfg.Passwd = dbc.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(dbc.Host, dbc.Port)
	cfg.DBName = dbc.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// OpenMySQL connects to the configured database and checks the connection
func OpenMySQL(ctx context.Context, dbc config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(dbc))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database server: %w", err)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database server: %w", err)
	}

	return db, nil
}

// NewMySQLExporter creates an exporter writing into table
func NewMySQLExporter(db *sql.DB, table string, log logrus.FieldLogger) (*MySQLExporter, error) {
	if !isValidTableName(table) {
		return nil, fmt.Errorf("invalid table name: %s", table)
	}
	return &MySQLExporter{
		db:    db,
		table: table,
		log:   log.WithField("component", "mysql_exporter"),
	}, nil
}

// Export writes every record of output in one transaction and returns how many were written.
// Records are keyed by session and test id, so exporting the same analysis twice updates in place.
func (e *MySQLExporter) Export(ctx context.Context, output *domain.AnalysisOutput) (int, error) {
	if err := e.ensureTable(ctx); err != nil {
		return 0, err
	}

	analyzedAt := time.Now().UTC()
	if ts, err := time.Parse(time.RFC3339, output.Meta.Timestamp); err == nil {
		analyzedAt = ts.UTC()
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, e.insertQuery())
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range output.Records {
		messages, err := json.Marshal(nonNil(r.FailureMessages))
		if err != nil {
			return 0, fmt.Errorf("marshal failure messages of %s: %w", r.TestID, err)
		}
		tags, err := json.Marshal(nonNil(r.Tags))
		if err != nil {
			return 0, fmt.Errorf("marshal tags of %s: %w", r.TestID, err)
		}

		_, err = stmt.ExecContext(ctx,
			output.Meta.SessionID, r.TestID, r.Name, r.Suite, r.File,
			r.TotalRuns, r.Passed, r.Failed, r.Skipped, r.Pending, r.Other,
			r.FailureRate, r.SuccessRate, r.IsFlaky, string(r.Classification),
			r.AverageDuration, r.DurationVariance, r.Confidence,
			string(messages), string(tags), analyzedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("insert record %s: %w", r.TestID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"table":   e.table,
		"records": len(output.Records),
		"session": output.Meta.SessionID,
	}).Info("Exported analysis")

	return len(output.Records), nil
}

func (e *MySQLExporter) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
		"`session_id` VARCHAR(36) NOT NULL, "+
		"`test_id` VARCHAR(36) NOT NULL, "+
		"`name` TEXT NOT NULL, "+
		"`suite` TEXT NOT NULL, "+
		"`file` TEXT NOT NULL, "+
		"`total_runs` INT NOT NULL, "+
		"`passed` INT NOT NULL, "+
		"`failed` INT NOT NULL, "+
		"`skipped` INT NOT NULL, "+
		"`pending` INT NOT NULL, "+
		"`other` INT NOT NULL, "+
		"`failure_rate` DOUBLE NOT NULL, "+
		"`success_rate` DOUBLE NOT NULL, "+
		"`is_flaky` BOOLEAN NOT NULL, "+
		"`classification` VARCHAR(32) NOT NULL, "+
		"`average_duration` DOUBLE NOT NULL, "+
		"`duration_variance` DOUBLE NOT NULL, "+
		"`confidence` DOUBLE NOT NULL, "+
		"`failure_messages` JSON NOT NULL, "+
		"`tags` JSON NOT NULL, "+
		"`analyzed_at` DATETIME NOT NULL, "+
		"PRIMARY KEY (`session_id`, `test_id`), "+
		"KEY `idx_classification` (`classification`))", e.table)

	if _, err := e.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", e.table, err)
	}
	return nil
}

func (e *MySQLExporter) insertQuery() string {
	return fmt.Sprintf("INSERT INTO `%s` ("+
		"`session_id`, `test_id`, `name`, `suite`, `file`, "+
		"`total_runs`, `passed`, `failed`, `skipped`, `pending`, `other`, "+
		"`failure_rate`, `success_rate`, `is_flaky`, `classification`, "+
		"`average_duration`, `duration_variance`, `confidence`, "+
		"`failure_messages`, `tags`, `analyzed_at`"+
		") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) "+
		"ON DUPLICATE KEY UPDATE "+
		"`total_runs` = VALUES(`total_runs`), `passed` = VALUES(`passed`), "+
		"`failed` = VALUES(`failed`), `skipped` = VALUES(`skipped`), "+
		"`pending` = VALUES(`pending`), `other` = VALUES(`other`), "+
		"`failure_rate` = VALUES(`failure_rate`), `success_rate` = VALUES(`success_rate`), "+
		"`is_flaky` = VALUES(`is_flaky`), `classification` = VALUES(`classification`), "+
		"`average_duration` = VALUES(`average_duration`), "+
		"`duration_variance` = VALUES(`duration_variance`), "+
		"`confidence` = VALUES(`confidence`), "+
		"`failure_messages` = VALUES(`failure_messages`), `tags` = VALUES(`tags`), "+
		"`analyzed_at` = VALUES(`analyzed_at`)", e.table)
}

// isValidTableName allows only unquoted MySQL identifier characters
func isValidTableName(name string) bool {
	if len(name) == 0 || len(name) > 64 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '$':
		default:
			return false
		}
	}
	return true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
