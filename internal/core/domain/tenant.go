package domain

import (
	"regexp"
	"time"
)

// Tenant is a registry entry for one isolated customer. The record itself
// lives in the master schema; the tenant's products and adjustments live in
// the schema named by SchemaName.
type Tenant struct {
	ID         string    `json:"tenant_id"`
	Name       string    `json:"tenant_name"`
	SchemaName string    `json:"schema_name"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const schemaPrefix = "tenant_"

// Tenant ids become part of schema names, so the charset is restricted to
// what can be safely embedded in a quoted MySQL identifier, and the length
// keeps the derived schema name under MySQL's 64-character limit.
var tenantIDPattern = regexp.MustCompile(`^[a-z0-9_]{1,50}$`)

func ValidTenantID(id string) bool {
	return tenantIDPattern.MatchString(id)
}

// SchemaFor derives the schema name for a tenant id.
func SchemaFor(tenantID string) string {
	return schemaPrefix + tenantID
}
