package database

// Migrations run in order from the stored user_version up to SchemaVersion.
// A new database gets the latest schema directly. To add a column:
//
//	ALTER TABLE turns ADD COLUMN new_column TEXT;
//	PRAGMA user_version = 3;

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"

	"github.com/duluk/chatbot/pkg/logger"
)

const SchemaVersion = 2

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func DBSchema(dbTable string) string {
	return `
	CREATE TABLE IF NOT EXISTS ` + dbTable + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		session_file TEXT NOT NULL DEFAULT '',
		prompt TEXT NOT NULL,
		response TEXT NOT NULL,
		model_name TEXT NOT NULL,
		temperature REAL NOT NULL,
		input_tokens INTEGER,
		output_tokens INTEGER,
		est_input_tokens INTEGER
	);
	`
}

func SchemaQueryV1(dbTable string) string {
	return `
	CREATE TABLE IF NOT EXISTS ` + dbTable + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		session_file TEXT NOT NULL DEFAULT '',
		prompt TEXT NOT NULL,
		response TEXT NOT NULL,
		model_name TEXT NOT NULL,
		temperature REAL NOT NULL
	);

	PRAGMA user_version = 1;
	`
}

func SchemaQueryV2(dbTable string) string {
	return `
	ALTER TABLE ` + dbTable + ` ADD COLUMN input_tokens INTEGER;
	ALTER TABLE ` + dbTable + ` ADD COLUMN output_tokens INTEGER;
	ALTER TABLE ` + dbTable + ` ADD COLUMN est_input_tokens INTEGER;

	PRAGMA user_version = 2;
	`
}

func getSchemaSQL(schemaVersion int, dbTable string) string {
	switch schemaVersion {
	case 1:
		return SchemaQueryV1(dbTable)
	case 2:
		return SchemaQueryV2(dbTable)
	default:
		return ""
	}
}

func applySchema(db *sql.DB, dbTable string, schemaVersion int) error {
	query := getSchemaSQL(schemaVersion, dbTable)
	if query == "" {
		return fmt.Errorf("no schema for version %d", schemaVersion)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if _, err = tx.Exec(query); err != nil {
		tx.Rollback()
		return fmt.Errorf("error applying schema version %d: %w", schemaVersion, err)
	}

	return tx.Commit()
}

func schemaVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("PRAGMA user_version").Scan(&version)
	return version, err
}

func setSchemaVersion(db *sql.DB, schemaVersion int) error {
	verStr := strconv.Itoa(schemaVersion)
	_, err := db.Exec(`PRAGMA user_version = ` + verStr)
	return err
}

// migrate brings the table up to SchemaVersion.
func migrate(db *sql.DB, dbTable string) error {
	currentVersion, err := schemaVersion(db)
	if err != nil {
		return fmt.Errorf("error reading schema version: %w", err)
	}

	if currentVersion == 0 {
		// First time we've seen this database, so it gets the latest schema.
		if _, err := db.Exec(DBSchema(dbTable)); err != nil {
			return fmt.Errorf("error creating table %s: %w", dbTable, err)
		}
		return setSchemaVersion(db, SchemaVersion)
	}

	for i := currentVersion + 1; i <= SchemaVersion; i++ {
		logger.Info("Migrating database", "table", dbTable, "version", i)
		if err := applySchema(db, dbTable, i); err != nil {
			return err
		}
	}

	return nil
}
