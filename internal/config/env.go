package config

import "os"

// OverrideFromEnv applies every TASKBOARD_* variable that is set
func OverrideFromEnv(cfg *Config) {
	if env := os.Getenv("TASKBOARD_ENV"); env != "" {
		cfg.Env = env
	}
	OverrideServerFromEnv(&cfg.Server)
	OverrideDBFromEnv(&cfg.DB)
	OverrideLogFromEnv(&cfg.Log)
	OverrideClientFromEnv(&cfg.Client)
}

// OverrideServerFromEnv overrides the HTTP settings
func OverrideServerFromEnv(cfg *ServerConfig) {
	if addr := os.Getenv("TASKBOARD_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if origin := os.Getenv("TASKBOARD_CORS_ORIGIN"); origin != "" {
		cfg.CORSOrigin = origin
	}
}

// OverrideDBFromEnv overrides the store settings
func OverrideDBFromEnv(cfg *DBConfig) {
	if driver := os.Getenv("TASKBOARD_DB_DRIVER"); driver != "" {
		cfg.Driver = driver
	}
	if path := os.Getenv("TASKBOARD_DB_PATH"); path != "" {
		cfg.Path = path
	}
	if dsn := os.Getenv("TASKBOARD_DB_DSN"); dsn != "" {
		cfg.DSN = dsn
	}
}

// OverrideLogFromEnv overrides the logging settings
func OverrideLogFromEnv(cfg *LogConfig) {
	if level := os.Getenv("TASKBOARD_LOG_LEVEL"); level != "" {
		cfg.Level = level
	}
	if file := os.Getenv("TASKBOARD_LOG_FILE"); file != "" {
		cfg.File = file
	}
}

// OverrideClientFromEnv overrides the API client settings
func OverrideClientFromEnv(cfg *ClientConfig) {
	if url := os.Getenv("TASKBOARD_API_URL"); url != "" {
		cfg.APIURL = url
	}
}
