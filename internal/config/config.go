package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"esbtracker/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	DBURL                   string
	DBDisablePreparedBinary bool
	CORSAllowedOrigins      []string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	PprofEnabled            bool
	PprofAddr               string

	ESBBaseURL               string
	ESBTimeout               time.Duration
	ESBMaxRetries            int
	ESBLocationCacheTTL      time.Duration
	ESBCircuitEnabled        bool
	ESBCircuitFailureCount   int
	ESBCircuitOpenTimeout    time.Duration
	ESBCircuitHalfOpenMaxReq int

	ScanInterval      time.Duration
	MatchRetention    time.Duration
	ScanLogRetention  time.Duration
	RetentionInterval time.Duration

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration

	LogLevel logging.Level
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	esbTimeout, err := time.ParseDuration(getEnv("ESB_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ESB_TIMEOUT: %w", err)
	}
	if esbTimeout <= 0 {
		return Config{}, fmt.Errorf("ESB_TIMEOUT must be > 0")
	}
	esbMaxRetries, err := getEnvAsInt("ESB_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESB_MAX_RETRIES: %w", err)
	}
	if esbMaxRetries < 1 {
		return Config{}, fmt.Errorf("ESB_MAX_RETRIES must be >= 1")
	}
	esbLocationCacheTTL, err := time.ParseDuration(getEnv("ESB_LOCATION_CACHE_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ESB_LOCATION_CACHE_TTL: %w", err)
	}
	if esbLocationCacheTTL <= 0 {
		return Config{}, fmt.Errorf("ESB_LOCATION_CACHE_TTL must be > 0")
	}
	esbCircuitEnabled, err := strconv.ParseBool(getEnv("ESB_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ESB_CIRCUIT_ENABLED: %w", err)
	}
	esbCircuitFailureCount, err := getEnvAsInt("ESB_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESB_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if esbCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("ESB_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	esbCircuitOpenTimeout, err := time.ParseDuration(getEnv("ESB_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ESB_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if esbCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("ESB_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	esbCircuitHalfOpenMaxReq, err := getEnvAsInt("ESB_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESB_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if esbCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("ESB_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	scanInterval, err := time.ParseDuration(getEnv("SCAN_INTERVAL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCAN_INTERVAL: %w", err)
	}
	if scanInterval <= 0 {
		return Config{}, fmt.Errorf("SCAN_INTERVAL must be > 0")
	}
	matchRetention, err := time.ParseDuration(getEnv("MATCH_RETENTION", "720h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_RETENTION: %w", err)
	}
	if matchRetention <= 0 {
		return Config{}, fmt.Errorf("MATCH_RETENTION must be > 0")
	}
	scanLogRetention, err := time.ParseDuration(getEnv("SCAN_LOG_RETENTION", "2160h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCAN_LOG_RETENTION: %w", err)
	}
	if scanLogRetention <= 0 {
		return Config{}, fmt.Errorf("SCAN_LOG_RETENTION must be > 0")
	}
	retentionInterval, err := time.ParseDuration(getEnv("RETENTION_INTERVAL", "168h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RETENTION_INTERVAL: %w", err)
	}
	if retentionInterval <= 0 {
		return Config{}, fmt.Errorf("RETENTION_INTERVAL must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cfg := Config{
		AppEnv:                   appEnv,
		ServiceName:              getEnv("APP_SERVICE_NAME", "esbtracker-api"),
		ServiceVersion:           getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                 getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                    getEnv("DB_URL", ""),
		DBDisablePreparedBinary:  dbDisablePreparedBinary,
		CORSAllowedOrigins:       splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:              readTimeout,
		WriteTimeout:             writeTimeout,
		PprofEnabled:             pprofEnabled,
		PprofAddr:                pprofAddr,
		ESBBaseURL:               strings.TrimSpace(getEnv("ESB_BASE_URL", "https://football.esportsbattle.com/api")),
		ESBTimeout:               esbTimeout,
		ESBMaxRetries:            esbMaxRetries,
		ESBLocationCacheTTL:      esbLocationCacheTTL,
		ESBCircuitEnabled:        esbCircuitEnabled,
		ESBCircuitFailureCount:   esbCircuitFailureCount,
		ESBCircuitOpenTimeout:    esbCircuitOpenTimeout,
		ESBCircuitHalfOpenMaxReq: esbCircuitHalfOpenMaxReq,
		ScanInterval:             scanInterval,
		MatchRetention:           matchRetention,
		ScanLogRetention:         scanLogRetention,
		RetentionInterval:        retentionInterval,
		UptraceEnabled:           uptraceEnabled,
		UptraceDSN:               uptraceDSN,
		PyroscopeEnabled:         pyroscopeEnabled,
		PyroscopeServerAddress:   pyroscopeServerAddress,
		PyroscopeAuthToken:       strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:      pyroscopeUploadRate,
		LogLevel:                 parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(v))
	switch normalized {
	case EnvDev, EnvStage, EnvProd:
		return normalized, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
