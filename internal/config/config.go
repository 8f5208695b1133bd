package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vhoang/folio/params"
)

const (
	DefaultListenAddr  = ":3000"
	DefaultCookieName  = "fsid"
	DefaultEnvironment = "development"
)

type MySQLConfig struct {
	Dsn             string `mapstructure:"dsn"`
	TablePrefix     string `mapstructure:"tablePrefix"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns"`
	ConnMaxIdleTime int    `mapstructure:"connMaxIdleTime"`
	ConnMaxLifetime int    `mapstructure:"connMaxLifetime"`
}

type SessionConfig struct {
	MaxAge         time.Duration `mapstructure:"maxAge"`
	CookieName     string        `mapstructure:"cookieName"`
	CookieHttpOnly bool          `mapstructure:"cookieHttpOnly"`
	CookieSecure   bool          `mapstructure:"cookieSecure"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

type StorageConfig struct {
	Backend string      `mapstructure:"backend"` // "memory" or "redis"
	Redis   RedisConfig `mapstructure:"redis"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	TLS      bool   `mapstructure:"tls"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`
}

type MailConfig struct {
	Backend  string     `mapstructure:"backend"` // "smtp" or "none"
	NotifyTo string     `mapstructure:"notifyTo"`
	SMTP     SMTPConfig `mapstructure:"smtp"`
}

type AdminConfig struct {
	// InitialCode seeds the credential store on first start. Required in
	// production; a temporary code is generated otherwise.
	InitialCode string `mapstructure:"initialCode"`
	TOTPIssuer  string `mapstructure:"totpIssuer"`
}

type ContactConfig struct {
	Burst       int           `mapstructure:"burst"`
	RefillEvery time.Duration `mapstructure:"refillEvery"`
}

type Config struct {
	Debug        bool          `mapstructure:"debug"`
	Environment  string        `mapstructure:"environment"`
	SiteName     string        `mapstructure:"siteName"`
	BaseURL      string        `mapstructure:"baseURL"`
	ListenAddr   string        `mapstructure:"listenAddr"`
	ResumePath   string        `mapstructure:"resumePath"`
	AllowOrigins []string      `mapstructure:"allowOrigins"`
	// TrustProxyHeader names a forwarding header (e.g. X-Forwarded-For) to
	// derive the client identity from when running behind a proxy. Empty
	// means the connection address is used directly.
	TrustProxyHeader string        `mapstructure:"trustProxyHeader"`
	Admin            AdminConfig   `mapstructure:"admin"`
	Session          SessionConfig `mapstructure:"session"`
	Storage          StorageConfig `mapstructure:"storage"`
	Mail             MailConfig    `mapstructure:"mail"`
	MySQL            MySQLConfig   `mapstructure:"mysql"`
	Contact          ContactConfig `mapstructure:"contact"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Sanitize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.Environment == "" {
		c.Environment = DefaultEnvironment
	}
	if c.SiteName == "" {
		c.SiteName = "folio"
	}
	if c.Session.MaxAge == 0 {
		c.Session.MaxAge = params.SessionMaxAge
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = DefaultCookieName
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.Mail.Backend == "" {
		c.Mail.Backend = "none"
	}
	if c.Admin.TOTPIssuer == "" {
		c.Admin.TOTPIssuer = c.SiteName
	}
	if c.Contact.Burst == 0 {
		c.Contact.Burst = params.ContactBurst
	}
	if c.Contact.RefillEvery == 0 {
		c.Contact.RefillEvery = params.ContactRefillEvery
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	viper.SetConfigFile(filename)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
