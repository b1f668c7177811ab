package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Pin        PinConfig
	LoginLimit LoginRateLimitConfig
	Flags      FeatureFlagsConfig
	Tax        TaxConfig
	Shop       ShopConfig
	Checkout   CheckoutConfig
	Inventory  InventoryConfig
	Media      MediaConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.Flags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TINDAHAN_APP_ENV" required:"true"`
	Port         string `envconfig:"TINDAHAN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TINDAHAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TINDAHAN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TINDAHAN_DB_DSN"`
	Driver string `envconfig:"TINDAHAN_DB_DRIVER" default:"postgres"`

	// SQLitePath backs the local-only deployment mode.
	SQLitePath string `envconfig:"TINDAHAN_DB_SQLITE_PATH" default:"tindahan.db"`

	LegacyHost     string `envconfig:"TINDAHAN_DB_HOST"`
	LegacyPort     int    `envconfig:"TINDAHAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TINDAHAN_DB_USER"`
	LegacyPassword string `envconfig:"TINDAHAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"TINDAHAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"TINDAHAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TINDAHAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TINDAHAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TINDAHAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TINDAHAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TINDAHAN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TINDAHAN_REDIS_ADDR"`
	Password     string        `envconfig:"TINDAHAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"TINDAHAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TINDAHAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TINDAHAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TINDAHAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TINDAHAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TINDAHAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TINDAHAN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TINDAHAN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TINDAHAN_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PinConfig struct {
	ArgonMemoryKB    int `envconfig:"TINDAHAN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TINDAHAN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TINDAHAN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TINDAHAN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TINDAHAN_ARGON_KEY_LEN" default:"32"`
}

type LoginRateLimitConfig struct {
	Window        time.Duration `envconfig:"TINDAHAN_LOGIN_RATE_LIMIT_WINDOW" default:"1m"`
	CashierLimit  int           `envconfig:"TINDAHAN_LOGIN_RATE_LIMIT_CASHIER_LIMIT" default:"5"`
	TerminalLimit int           `envconfig:"TINDAHAN_LOGIN_RATE_LIMIT_TERMINAL_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TINDAHAN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TINDAHAN_AUTO_MIGRATE" default:"false"`
}

type TaxConfig struct {
	// VATRate is the tax fraction assumed already included in shelf prices.
	VATRate float64 `envconfig:"TINDAHAN_TAX_VAT_RATE" default:"0.12"`
}

type ShopConfig struct {
	DefaultName    string `envconfig:"TINDAHAN_SHOP_DEFAULT_NAME" default:"Tindahan"`
	DefaultAddress string `envconfig:"TINDAHAN_SHOP_DEFAULT_ADDRESS" default:""`
	DefaultTaxID   string `envconfig:"TINDAHAN_SHOP_DEFAULT_TAX_ID" default:""`
}

type CheckoutConfig struct {
	TerminalSuccessRate  float64       `envconfig:"TINDAHAN_CHECKOUT_TERMINAL_SUCCESS_RATE" default:"0.7"`
	TerminalPairingDelay time.Duration `envconfig:"TINDAHAN_CHECKOUT_TERMINAL_PAIRING_DELAY" default:"2s"`
	OrderNumberPrefix    string        `envconfig:"TINDAHAN_CHECKOUT_ORDER_NUMBER_PREFIX" default:"OR"`
}

type InventoryConfig struct {
	DefaultLowStockThreshold int `envconfig:"TINDAHAN_INVENTORY_LOW_STOCK_THRESHOLD" default:"5"`
}

type MediaConfig struct {
	UploadDir   string `envconfig:"TINDAHAN_MEDIA_UPLOAD_DIR" default:"public/uploads"`
	MaxUploadMB int    `envconfig:"TINDAHAN_MEDIA_MAX_UPLOAD_MB" default:"8"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
