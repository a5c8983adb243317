package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQL cannot parameterize identifiers, so every schema name is validated
// against this pattern before it is spliced into DDL.
var schemaNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// tenantMigrations are applied, in order, to every new tenant schema. Each
// statement is idempotent so a partially provisioned schema can be repaired
// by re-running Provision.
var tenantMigrations = []struct {
	name string
	stmt string
}{
	{
		name: "create_products",
		stmt: "CREATE TABLE IF NOT EXISTS `%s`.products (" +
			"id VARCHAR(36) PRIMARY KEY, " +
			"sku VARCHAR(255) NOT NULL UNIQUE, " +
			"name VARCHAR(255) NOT NULL, " +
			"description VARCHAR(1000) NOT NULL DEFAULT '', " +
			"category VARCHAR(255) NOT NULL, " +
			"price DECIMAL(10,2) NOT NULL, " +
			"stock_quantity INT NOT NULL DEFAULT 0, " +
			"reorder_level INT NOT NULL DEFAULT 10, " +
			"active BOOLEAN NOT NULL DEFAULT TRUE, " +
			"version BIGINT NOT NULL DEFAULT 0, " +
			"created_at TIMESTAMP NOT NULL, " +
			"updated_at TIMESTAMP NOT NULL" +
			")",
	},
	{
		name: "create_stock_adjustments",
		stmt: "CREATE TABLE IF NOT EXISTS `%s`.stock_adjustments (" +
			"id VARCHAR(36) PRIMARY KEY, " +
			"product_id VARCHAR(36) NOT NULL, " +
			"product_sku VARCHAR(255) NOT NULL, " +
			"adjustment_type VARCHAR(50) NOT NULL, " +
			"quantity_change INT NOT NULL, " +
			"previous_quantity INT NOT NULL, " +
			"new_quantity INT NOT NULL, " +
			"reason VARCHAR(500) NOT NULL DEFAULT '', " +
			"created_at TIMESTAMP NOT NULL" +
			")",
	},
}

// Provisioner creates and migrates tenant schemas through an administrative
// handle on the MySQL server.
type Provisioner struct {
	admin  *sql.DB
	logger *zap.Logger
}

func NewProvisioner(admin *sql.DB, logger *zap.Logger) *Provisioner {
	return &Provisioner{admin: admin, logger: logger}
}

// Provision creates the tenant schema and its tables. Idempotent: an
// already-provisioned schema is a no-op, which makes retry after a partial
// failure safe. The schema must exist and be durable before table creation
// is attempted; MySQL DDL is implicitly committed, so statement order gives
// that guarantee.
func (p *Provisioner) Provision(ctx context.Context, schema string) error {
	if !schemaNamePattern.MatchString(schema) {
		return fmt.Errorf("invalid schema name %q", schema)
	}

	if _, err := p.admin.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	for _, m := range tenantMigrations {
		if _, err := p.admin.ExecContext(ctx, fmt.Sprintf(m.stmt, schema)); err != nil {
			return fmt.Errorf("migration %s for schema %s: %w", m.name, schema, err)
		}
	}

	p.logger.Info("tenant schema provisioned", zap.String("schema", schema))
	return nil
}

// EnsureMaster creates the master schema's tenants table.
func EnsureMaster(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tenants (
			tenant_id VARCHAR(64) PRIMARY KEY,
			tenant_name VARCHAR(255) NOT NULL,
			schema_name VARCHAR(64) NOT NULL UNIQUE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create tenants table: %w", err)
	}
	return nil
}

// SchemaDSN rewrites a DSN to point at the given schema, keeping every other
// connection parameter intact.
func SchemaDSN(baseDSN, schema string) (string, error) {
	cfg, err := mysql.ParseDSN(baseDSN)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	cfg.DBName = schema
	return cfg.FormatDSN(), nil
}
