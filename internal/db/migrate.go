package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Tables returns the schema records in dependency order.
func Tables() []any {
	return []any{
		&ClientRecord{},
		&ProposalRecord{},
		&ItemRecord{},
	}
}

// Migrate creates every table that does not exist yet. Existing tables are
// never altered or dropped, so it is safe to call on every start.
func Migrate(ctx context.Context, db *gorm.DB) error {
	m := db.WithContext(ctx).Migrator()
	for _, table := range Tables() {
		if m.HasTable(table) {
			continue
		}
		if err := m.CreateTable(table); err != nil {
			return fmt.Errorf("create table %T: %w", table, err)
		}
	}
	return nil
}
