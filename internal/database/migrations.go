package database

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// secondaryIndexes back the board and access queries. Position uniqueness
// is declared on the models.
var secondaryIndexes = []index{
	{"tasks", "idx_tasks_project_list", "project_id, list_id"},
	{"field_values", "idx_field_values_field_id", "field_id"},
	{"project_members", "idx_project_members_role", "project_id, role"},
}

// AddIndexes adds indexes gorm tags do not express
func AddIndexes(db *gorm.DB) error {
	m := db.Migrator()
	for _, idx := range secondaryIndexes {
		if m.HasIndex(idx.table, idx.name) {
			log.WithField("index", idx.name).Debug("index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithFields(log.Fields{"index": idx.name, "table": idx.table}).Info("created index")
	}

	return nil
}

// MigrateDatabase runs all database migrations
func MigrateDatabase(db *gorm.DB) error {
	if err := Migrate(db); err != nil {
		return err
	}
	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}
	return nil
}
