package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env      string
		Build    string
		Debug    bool
		TestMode bool
		AppName  string

		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address
		TeacherEmail     string
		WorkDir          string

		Server   ServerConfig
		Auth     AuthConfig
		Database DatabaseConfig
		Cache    CacheConfig
		Sync     SyncConfig
		I18n     I18nConfig
		Backup   BackupConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	AuthConfig struct {
		Password           string // plain text; hashed at startup
		PasswordHash       string // bcrypt
		CookieName         string
		CookieMaxAge       time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory | none
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool

		// startup must fall back to the local cache quickly when the database is down
		ConnectTimeout time.Duration
		PingAttempts   int
	}

	CacheConfig struct {
		Path string
	}

	SyncConfig struct {
		ProbeInterval time.Duration
	}

	I18nConfig struct {
		Dir     string // optional override of the embedded locales
		Default string
	}

	BackupConfig struct {
		S3Bucket    string
		S3Region    string
		S3Endpoint  string
		S3PathStyle bool
		S3Prefix    string
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

// RemoteEnabled reports whether a remote backend is configured at all.
func (dbc DatabaseConfig) RemoteEnabled() bool {
	return dbc.Engine != "" && dbc.Engine != "none"
}

// AuthEnabled reports whether the shared password gate is active.
func (ac AuthConfig) AuthEnabled() bool {
	return ac.Password != "" || ac.PasswordHash != ""
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "develop")
	conf.SetDefault("appName", "Cuaderno")
	conf.SetDefault("secretKey", "k2u!8g#d9^w7q=lp0$x@v3z*c5(m)n6b-r4t&y1e+s")
	conf.SetDefault("defaultFromEmail", "Cuaderno <noreply@localhost>")
	conf.SetDefault("teacherEmail", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")

	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.disableReqLogs", false)

	conf.SetDefault("auth.password", "")
	conf.SetDefault("auth.passwordHash", "")
	conf.SetDefault("auth.cookieName", "cuaderno_auth")
	conf.SetDefault("auth.cookieMaxAge", 365*24*time.Hour)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", 5432)
	conf.SetDefault("database.name", "cuaderno")
	conf.SetDefault("database.user", "cuaderno")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "postgres")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("database.connectTimeout", 3*time.Second)
	conf.SetDefault("database.pingAttempts", 3)

	conf.SetDefault("cache.path", filepath.Join("var", "cache.db"))
	conf.SetDefault("sync.probeInterval", 30*time.Second)
	conf.SetDefault("i18n.dir", "")
	conf.SetDefault("i18n.default", "es")

	conf.SetDefault("backup.s3.bucket", "")
	conf.SetDefault("backup.s3.region", "us-east-1")
	conf.SetDefault("backup.s3.endpoint", "")
	conf.SetDefault("backup.s3.pathStyle", false)
	conf.SetDefault("backup.s3.prefix", "backups/")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
		conf.SetDefault("database.engine", "memory")
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(conf.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Env:              env,
		Build:            conf.GetString("build"),
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		AppName:          conf.GetString("appName"),
		SecretKey:        conf.GetString("secretKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		DefaultFromEmail: *fromEmail,
		TeacherEmail:     conf.GetString("teacherEmail"),
		WorkDir:          wd,
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Address:         conf.GetString("server.address"),
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  conf.GetBool("server.disableReqLogs"),
		},
		Auth: AuthConfig{
			Password:           conf.GetString("auth.password"),
			PasswordHash:       conf.GetString("auth.passwordHash"),
			CookieName:         conf.GetString("auth.cookieName"),
			CookieMaxAge:       conf.GetDuration("auth.cookieMaxAge"),
			JWTExpirationDelta: conf.GetDuration("auth.cookieMaxAge"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(conf.GetString("database.engine")),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetInt("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),

			ConnectTimeout: conf.GetDuration("database.connectTimeout"),
			PingAttempts:   conf.GetInt("database.pingAttempts"),
		},
		Cache: CacheConfig{
			Path: conf.GetString("cache.path"),
		},
		Sync: SyncConfig{
			ProbeInterval: conf.GetDuration("sync.probeInterval"),
		},
		I18n: I18nConfig{
			Dir:     conf.GetString("i18n.dir"),
			Default: conf.GetString("i18n.default"),
		},
		Backup: BackupConfig{
			S3Bucket:    conf.GetString("backup.s3.bucket"),
			S3Region:    conf.GetString("backup.s3.region"),
			S3Endpoint:  conf.GetString("backup.s3.endpoint"),
			S3PathStyle: conf.GetBool("backup.s3.pathStyle"),
			S3Prefix:    conf.GetString("backup.s3.prefix"),
		},
	}
}
