// Package config holds runtime configuration: built-in defaults overlaid
// with INVENTORY_* environment variables.
package config

import "time"

type Config struct {
	HTTPAddr string

	MySQL MySQL
	Redis Redis
	Sweep Sweep
}

type MySQL struct {
	// MasterDSN points at the master schema; per-tenant DSNs are derived
	// from it by swapping the schema name.
	MasterDSN       string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Redis struct {
	Addr     string
	PoolSize int
}

type Sweep struct {
	DailyEvery  time.Duration
	HourlyEvery time.Duration
	AlertTTL    time.Duration
}

func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		MySQL: MySQL{
			MasterDSN:       "root:root@tcp(localhost:3306)/inventory_master?parseTime=true",
			MaxOpenConns:    50,
			MaxIdleConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: Redis{
			Addr:     "localhost:6379",
			PoolSize: 100,
		},
		Sweep: Sweep{
			DailyEvery:  24 * time.Hour,
			HourlyEvery: time.Hour,
			AlertTTL:    time.Hour,
		},
	}
}

// Load returns defaults overlaid with the environment.
func Load() Config {
	cfg := Default()
	FromEnv(&cfg)
	return cfg
}
