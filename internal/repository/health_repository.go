package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Table is one row of pg_catalog.pg_tables.
type Table struct {
	Schema string `db:"schemaname" json:"schemaname"`
	Name   string `db:"tablename" json:"tablename"`
}

type HealthRepository struct {
	DB *sqlx.DB
}

func NewHealthRepository(db *sqlx.DB) *HealthRepository {
	return &HealthRepository{DB: db}
}

// Tables lists the user tables visible to the connection.
func (r *HealthRepository) Tables(ctx context.Context) ([]Table, error) {
	const q = `
		SELECT schemaname, tablename
		FROM pg_catalog.pg_tables
		WHERE schemaname NOT IN ('pg_catalog', 'information_schema')
		ORDER BY schemaname, tablename
	`
	tables := []Table{}
	if err := r.DB.SelectContext(ctx, &tables, q); err != nil {
		return nil, wrap("HealthRepository.Tables", err)
	}
	return tables, nil
}
