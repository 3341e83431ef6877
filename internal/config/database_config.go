package config

type DatabaseConfig interface {
	GetDatabaseURL() string
	GetRunMigrations() bool
}

type Database struct{}

var _ DatabaseConfig = Database{}

// GetDatabaseURL is the Postgres DSN. Empty keeps role and profile rows in memory.
func (Database) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

func (Database) GetRunMigrations() bool {
	return getBool("RUN_MIGRATIONS", true)
}

type CacheConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetSessionKeyPrefix() string
}

type Cache struct{}

var _ CacheConfig = Cache{}

// GetRedisAddr locates Redis for persisted sessions. Empty keeps them in memory.
func (Cache) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}

func (Cache) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Cache) GetRedisDB() int {
	return getInt("REDIS_DB", 0)
}

func (Cache) GetSessionKeyPrefix() string {
	return GetEnv("SESSION_KEY_PREFIX", "hrportal:session")
}
