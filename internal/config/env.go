package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays INVENTORY_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("INVENTORY_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("INVENTORY_MYSQL_DSN"); v != "" {
		cfg.MySQL.MasterDSN = v
	}
	if v := os.Getenv("INVENTORY_MYSQL_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MySQL.MaxOpenConns = n
		}
	}
	if v := os.Getenv("INVENTORY_MYSQL_MAX_IDLE_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MySQL.MaxIdleConns = n
		}
	}
	if v := os.Getenv("INVENTORY_MYSQL_CONN_MAX_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MySQL.ConnMaxLifetime = d
		}
	}
	if v := os.Getenv("INVENTORY_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("INVENTORY_REDIS_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.PoolSize = n
		}
	}
	if v := os.Getenv("INVENTORY_SWEEP_DAILY_EVERY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sweep.DailyEvery = d
		}
	}
	if v := os.Getenv("INVENTORY_SWEEP_HOURLY_EVERY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sweep.HourlyEvery = d
		}
	}
	if v := os.Getenv("INVENTORY_ALERT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sweep.AlertTTL = d
		}
	}
}
