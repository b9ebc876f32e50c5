// Package config loads API service configuration from defaults, an optional
// YAML file and EDUTRACK_ environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/edutrack/edutrack/api/pkg/tokens"
	"github.com/edutrack/edutrack/common/httputil"
)

// PlaceholderSecret is the shipped default JWT secret. It is refused in production.
const PlaceholderSecret = "change-this-in-production"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Environment string          `mapstructure:"environment" yaml:"environment"`
	Server      ServerConfig    `mapstructure:"server" yaml:"server"`
	Auth        AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Cookie      CookieConfig    `mapstructure:"cookie" yaml:"cookie"`
	CORS        CORSConfig      `mapstructure:"cors" yaml:"cors"`
	Database    DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Redis       RedisConfig     `mapstructure:"redis" yaml:"redis"`
	RateLimit   RateLimitConfig `mapstructure:"ratelimit" yaml:"ratelimit"`
	NATS        NATSConfig      `mapstructure:"nats" yaml:"nats"`
	Audit       AuditConfig     `mapstructure:"audit" yaml:"audit"`
	Logging     LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// TrustedProxies lists proxy addresses or CIDR ranges whose forwarding
	// headers identify the client. Empty means the peer address is the client.
	TrustedProxies []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`
}

// AuthConfig is injected into the token codec and the auth service.
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTAlgorithm    string        `mapstructure:"jwt_algorithm" yaml:"jwt_algorithm"`
	Issuer          string        `mapstructure:"issuer" yaml:"issuer"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl" yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl" yaml:"refresh_token_ttl"`
	BcryptCost      int           `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost"`
}

// Validate checks the secret, algorithm and token lifetimes.
func (a *AuthConfig) Validate() error {
	if a.JWTSecret == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	if !tokens.SupportedAlgorithm(a.JWTAlgorithm) {
		return fmt.Errorf("auth.jwt_algorithm %q is not supported (use HS256, HS384 or HS512)", a.JWTAlgorithm)
	}
	if a.AccessTokenTTL <= 0 || a.RefreshTokenTTL <= 0 {
		return errors.New("auth token lifetimes must be positive")
	}
	if a.RefreshTokenTTL <= a.AccessTokenTTL {
		return fmt.Errorf("auth.refresh_token_ttl (%s) must be longer than auth.access_token_ttl (%s)",
			a.RefreshTokenTTL, a.AccessTokenTTL)
	}
	return nil
}

// CookieConfig controls the attributes of the token cookies. Nil Secure and
// empty SameSite resolve from the environment during Load.
type CookieConfig struct {
	AccessName  string `mapstructure:"access_name" yaml:"access_name"`
	RefreshName string `mapstructure:"refresh_name" yaml:"refresh_name"`
	Domain      string `mapstructure:"domain" yaml:"domain"`
	Secure      *bool  `mapstructure:"secure" yaml:"secure"`
	SameSite    string `mapstructure:"same_site" yaml:"same_site"`
}

// IsSecure reports whether cookies carry the Secure attribute.
func (c CookieConfig) IsSecure() bool {
	return c.Secure != nil && *c.Secure
}

// SameSiteMode converts SameSite to its net/http value.
func (c CookieConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Type     string         `mapstructure:"type" yaml:"type"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// DSN returns the postgres connection URL with credentials escaped.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     p.Database,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}

type RedisConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

type RateLimitConfig struct {
	Login LoginRateLimitConfig `mapstructure:"login" yaml:"login"`
}

// LoginRateLimitConfig bounds login attempts per client IP.
type LoginRateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Limit   int           `mapstructure:"limit" yaml:"limit"`
	Window  time.Duration `mapstructure:"window" yaml:"window"`
}

type NATSConfig struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Token string `mapstructure:"token" yaml:"token"`
}

type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Subject string `mapstructure:"subject" yaml:"subject"`
	Secret  string `mapstructure:"secret" yaml:"secret"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", EnvDevelopment)

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("auth.jwt_secret", PlaceholderSecret)
	v.SetDefault("auth.jwt_algorithm", tokens.DefaultAlgorithm)
	v.SetDefault("auth.issuer", "edutrack")
	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "168h")
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("cookie.access_name", "access_token")
	v.SetDefault("cookie.refresh_name", "refresh_token")
	v.SetDefault("cookie.domain", "")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("database.type", "memory")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "edutrack")
	v.SetDefault("database.postgres.user", "edutrack")
	v.SetDefault("database.postgres.password", "edutrack")
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("redis.url", "")

	v.SetDefault("ratelimit.login.enabled", false)
	v.SetDefault("ratelimit.login.limit", 10)
	v.SetDefault("ratelimit.login.window", "15m")

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.token", "")

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.subject", "edutrack.audit.auth")
	v.SetDefault("audit.secret", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads configuration. An empty configPath searches for config.yaml in
// the working directory and /etc/edutrack; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/edutrack")
	}

	v.SetEnvPrefix("EDUTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Keys without defaults are only seen by Unmarshal when bound explicitly.
	_ = v.BindEnv("cookie.secure")
	_ = v.BindEnv("cookie.same_site")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// normalize fills environment-dependent cookie attributes and tidies lists.
func (c *Config) normalize() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))

	if c.Cookie.Secure == nil {
		secure := c.IsProduction()
		c.Cookie.Secure = &secure
	}
	if c.Cookie.SameSite == "" {
		if c.IsProduction() {
			c.Cookie.SameSite = "none"
		} else {
			c.Cookie.SameSite = "lax"
		}
	}
	c.Cookie.SameSite = strings.ToLower(c.Cookie.SameSite)

	origins := c.CORS.AllowedOrigins[:0]
	for _, o := range c.CORS.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORS.AllowedOrigins = origins

	proxies := c.Server.TrustedProxies[:0]
	for _, p := range c.Server.TrustedProxies {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	c.Server.TrustedProxies = proxies

	c.Database.Type = strings.ToLower(c.Database.Type)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("environment %q must be development or production", c.Environment)
	}

	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if c.IsProduction() && c.Auth.JWTSecret == PlaceholderSecret {
		return errors.New("auth.jwt_secret must be changed in production")
	}

	switch c.Cookie.SameSite {
	case "lax", "strict":
	case "none":
		if !c.Cookie.IsSecure() {
			return errors.New("cookie.same_site=none requires cookie.secure")
		}
	default:
		return fmt.Errorf("cookie.same_site %q must be lax, strict or none", c.Cookie.SameSite)
	}

	switch c.Database.Type {
	case "memory", "postgres":
	default:
		return fmt.Errorf("database.type %q must be memory or postgres", c.Database.Type)
	}

	if c.RateLimit.Login.Enabled {
		if c.Redis.URL == "" {
			return errors.New("ratelimit.login requires redis.url")
		}
		if c.RateLimit.Login.Limit <= 0 || c.RateLimit.Login.Window <= 0 {
			return errors.New("ratelimit.login limit and window must be positive")
		}
	}

	if _, err := httputil.NewClientIPResolver(c.Server.TrustedProxies); err != nil {
		return fmt.Errorf("server.trusted_proxies: %w", err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	return nil
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.Auth.JWTSecret = mask(c.Auth.JWTSecret)
	out.Database.Postgres.Password = mask(c.Database.Postgres.Password)
	out.NATS.Token = mask(c.NATS.Token)
	out.Audit.Secret = mask(c.Audit.Secret)
	out.CORS.AllowedOrigins = append([]string(nil), c.CORS.AllowedOrigins...)
	out.Server.TrustedProxies = append([]string(nil), c.Server.TrustedProxies...)
	if c.Cookie.Secure != nil {
		secure := *c.Cookie.Secure
		out.Cookie.Secure = &secure
	}
	return &out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
