package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDatabaseDriver = "postgres"
	defaultSQLiteDSN      = "decorhub.db"
	defaultPGPort         = "5432"
	defaultRedisAddr      = "localhost:6379"
	defaultAppPort        = "5000"
	defaultGRPCPort       = "9090"
	defaultAppEnv         = "local"
	defaultSessionDriver  = "redis"
	defaultSessionTTL     = 24 * time.Hour
	defaultMaxOpenConns   = 20
	defaultMaxIdleConns   = 10
	defaultConnIdleTime   = 10 * time.Second
	defaultAcquireTimeout = 30 * time.Second
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges config/app.json, .env and the process environment (in that
// order, later sources win). It runs once per process.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":        defaultAppEnv,
		"APP_PORT":       defaultAppPort,
		"GRPC_PORT":      defaultGRPCPort,
		"DB_DRIVER":      defaultDatabaseDriver,
		"PGPORT":         defaultPGPort,
		"REDIS_ADDR":     defaultRedisAddr,
		"SESSION_DRIVER": defaultSessionDriver,
	}
}

// ── Application ──────────────────────────────────────────────────────────────

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// IsProduction reports whether APP_ENV names a production deployment.
func IsProduction() bool {
	switch strings.ToLower(AppEnv()) {
	case "production", "prod":
		return true
	}
	return false
}

func AppPort() string {
	_ = Load()
	return get("APP_PORT", defaultAppPort)
}

func GRPCPort() string {
	_ = Load()
	return get("GRPC_PORT", defaultGRPCPort)
}

// CORSOrigins returns the comma-separated CORS_ORIGINS list, "*" when unset.
func CORSOrigins() []string {
	_ = Load()
	raw := get("CORS_ORIGINS", "*")
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// TrustedProxies parses TRUSTED_PROXIES, a comma-separated list of IPs or
// CIDRs whose forwarding headers are believed. Unparseable entries are
// skipped; unset means no proxy is trusted.
func TrustedProxies() []netip.Prefix {
	_ = Load()
	var out []netip.Prefix
	for _, s := range strings.Split(get("TRUSTED_PROXIES", ""), ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			a = a.Unmap()
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}

// ── Database ─────────────────────────────────────────────────────────────────

// DatabaseConfig describes how to reach the relational store and how large
// the connection pool may grow.
type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	AcquireTimeout  time.Duration
}

func DatabaseDriver() string {
	_ = Load()

	driver := strings.ToLower(get("DB_DRIVER", defaultDatabaseDriver))
	switch driver {
	case "sqlite", "postgres", "mysql", "sqlserver":
		return driver
	default:
		return defaultDatabaseDriver
	}
}

// Database assembles the store configuration. For postgres the DSN is
// DATABASE_URL when set, otherwise it is built from the PG* variables.
func Database() DatabaseConfig {
	_ = Load()

	cfg := DatabaseConfig{
		Driver:          DatabaseDriver(),
		MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", defaultMaxOpenConns),
		MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", defaultMaxIdleConns),
		ConnMaxIdleTime: getDuration("DB_CONN_MAX_IDLE_TIME", defaultConnIdleTime),
		AcquireTimeout:  getDuration("DB_ACQUIRE_TIMEOUT", defaultAcquireTimeout),
	}

	if dsn := get("DATABASE_URL", ""); dsn != "" {
		cfg.DSN = dsn
		return cfg
	}

	switch cfg.Driver {
	case "postgres":
		cfg.DSN = postgresDSN()
	case "sqlite":
		cfg.DSN = get("DATABASE_DSN", defaultSQLiteDSN)
	default:
		cfg.DSN = get("DATABASE_DSN", "")
	}
	return cfg
}

func postgresDSN() string {
	sslmode := "disable"
	if IsProduction() {
		sslmode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(get("PGUSER", ""), get("PGPASSWORD", "")),
		Host:     get("PGHOST", "") + ":" + get("PGPORT", defaultPGPort),
		Path:     "/" + get("PGDATABASE", ""),
		RawQuery: "sslmode=" + sslmode,
	}
	return u.String()
}

// Validate reports every required variable that is missing. A non-nil
// result is a fatal startup condition.
func Validate() error {
	_ = Load()

	var missing []string
	switch DatabaseDriver() {
	case "postgres":
		if get("DATABASE_URL", "") == "" {
			for _, key := range []string{"PGHOST", "PGUSER", "PGPASSWORD", "PGDATABASE"} {
				if get(key, "") == "" {
					missing = append(missing, key)
				}
			}
		}
	case "mysql", "sqlserver":
		if get("DATABASE_URL", "") == "" && get("DATABASE_DSN", "") == "" {
			missing = append(missing, "DATABASE_URL")
		}
	}

	if SessionDriver() == "redis" && get("REDIS_ADDR", "") == "" {
		missing = append(missing, "REDIS_ADDR")
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ── Sessions / Redis ─────────────────────────────────────────────────────────

// SessionDriver is "redis" or "memory".
func SessionDriver() string {
	_ = Load()
	if strings.ToLower(get("SESSION_DRIVER", defaultSessionDriver)) == "memory" {
		return "memory"
	}
	return "redis"
}

func SessionTTL() time.Duration {
	_ = Load()
	return getDuration("SESSION_TTL", defaultSessionTTL)
}

// SessionSecure defaults to true in production.
func SessionSecure() bool {
	_ = Load()
	return getBool("SESSION_SECURE", IsProduction())
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string {
	_ = Load()
	return get("STORAGE_DISK", "local")
}

func StorageLocalRoot() string {
	_ = Load()
	return get("STORAGE_LOCAL_ROOT", "storage")
}

func StorageURL() string {
	_ = Load()
	return get("STORAGE_URL", "http://localhost:"+AppPort()+"/storage")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func StorageS3URL() string      { _ = Load(); return get("S3_URL", "") }

// ── Notifications / logging ──────────────────────────────────────────────────

// InquiryNotifyTo is the address that receives new-inquiry e-mails.
// Empty disables the notification.
func InquiryNotifyTo() string {
	_ = Load()
	return get("INQUIRY_NOTIFY_TO", "")
}

func LogMongoURI() string { _ = Load(); return get("LOG_MONGO_URI", "") }
func LogMongoDB() string  { _ = Load(); return get("LOG_MONGO_DB", "decorhub") }

// ── Loading ──────────────────────────────────────────────────────────────────

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	mergeProcessEnv(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		s, ok := val.(string)
		if !ok {
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		return err
	}
	for key, value := range env {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(value)
	}
	return nil
}

func mergeProcessEnv(out map[string]string) {
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		out[strings.ToUpper(key)] = strings.TrimSpace(value)
	}
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(get(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(get(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

// getDuration accepts Go duration strings ("30s") or a bare number of seconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := get(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Set overrides a key for the rest of the process. Intended for tests and
// CLI flags.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}
