package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/tenant-inventory/internal/core/domain"
)

// mysqlDupEntry is the server error for a unique-key violation.
const mysqlDupEntry = 1062

func isDupEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDupEntry
}

// TenantStore persists tenant registry rows in the master schema.
type TenantStore struct {
	db *sql.DB
}

func NewTenantStore(db *sql.DB) *TenantStore {
	return &TenantStore{db: db}
}

func (s *TenantStore) Create(ctx context.Context, t domain.Tenant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (tenant_id, tenant_name, schema_name, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.SchemaName, t.Active, t.CreatedAt, t.UpdatedAt,
	)
	if isDupEntry(err) {
		return fmt.Errorf("tenant %s: %w", t.ID, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (s *TenantStore) GetByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := s.db.QueryRowContext(ctx, `
		SELECT tenant_id, tenant_name, schema_name, active, created_at, updated_at
		FROM tenants WHERE tenant_id = ?`, tenantID,
	).Scan(&t.ID, &t.Name, &t.SchemaName, &t.Active, &t.CreatedAt, &t.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query tenant: %w", err)
	}
	return &t, nil
}

func (s *TenantStore) List(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tenant_id, tenant_name, schema_name, active, created_at, updated_at
		FROM tenants`)
	if err != nil {
		return nil, fmt.Errorf("query tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.SchemaName, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *TenantStore) SetActive(ctx context.Context, tenantID string, active bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tenants SET active = ?, updated_at = NOW() WHERE tenant_id = ?`,
		active, tenantID,
	)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	// RowsAffected is 0 both for a missing tenant and for a no-op toggle,
	// so confirm existence separately.
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := s.GetByID(ctx, tenantID); err != nil {
			return err
		}
	}
	return nil
}
