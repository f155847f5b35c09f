package module

import (
	"net/url"
	"strconv"

	"apiloader/internal/platform/config"
	perr "apiloader/internal/platform/errors"
	"apiloader/internal/platform/store"
	"apiloader/internal/platform/validate"
)

// DBOptions describes the destination database
type DBOptions struct {
	Driver string `env:"DB_DRIVER" validate:"oneof=postgres sqlite"`

	// URL wins over the discrete postgres fields when set
	URL      string `env:"DB_URL"`
	Host     string `env:"DB_HOST"`
	Port     int    `env:"DB_PORT" validate:"gte=1,lte=65535"`
	Name     string `env:"DB_NAME"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	SSLMode  string `env:"DB_SSLMODE" validate:"oneof=disable allow prefer require verify-ca verify-full"`

	// Path is the sqlite file, or :memory:
	Path string `env:"DB_PATH" validate:"required_if=Driver sqlite"`

	MaxConns int  `env:"DB_MAX_CONNS" validate:"gte=1"`
	LogSQL   bool `env:"DB_LOG_SQL"`
	SlowMs   int  `env:"DB_SLOW_MS" validate:"gte=0"`
}

// DBFromConfig reads DB_* from cfg
func DBFromConfig(cfg config.Conf) DBOptions {
	db := cfg.Prefix("DB_")
	return DBOptions{
		Driver:   db.MayString("DRIVER", "postgres"),
		URL:      db.MayString("URL", ""),
		Host:     db.MayString("HOST", "localhost"),
		Port:     db.MayInt("PORT", 5432),
		Name:     db.MayString("NAME", ""),
		User:     db.MayString("USER", ""),
		Password: db.MayString("PASSWORD", ""),
		SSLMode:  db.MayString("SSLMODE", "disable"),
		Path:     db.MayString("PATH", ""),
		MaxConns: db.MayInt("MAX_CONNS", 4),
		LogSQL:   db.MayBool("LOG_SQL", false),
		SlowMs:   db.MayInt("SLOW_MS", 500),
	}
}

// Validate checks the database options
func (o DBOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return err
	}
	if o.Driver == string(store.DialectPostgres) && o.URL == "" && (o.Host == "" || o.Name == "") {
		return perr.WithField(perr.InvalidArgf("postgres needs DB_URL or DB_HOST and DB_NAME"), "DB_NAME")
	}
	return nil
}

// PostgresURL renders the discrete fields as a pgx connection URL
func (o DBOptions) PostgresURL() string {
	if o.URL != "" {
		return o.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     o.Host + ":" + strconv.Itoa(o.Port),
		Path:     "/" + o.Name,
		RawQuery: url.Values{"sslmode": {o.SSLMode}}.Encode(),
	}
	switch {
	case o.User != "" && o.Password != "":
		u.User = url.UserPassword(o.User, o.Password)
	case o.User != "":
		u.User = url.User(o.User)
	}
	return u.String()
}

// StoreConfig builds the store config for appName
func (o DBOptions) StoreConfig(appName string) store.Config {
	return store.Config{
		AppName: appName,
		Driver:  o.Driver,
		PG: store.PGConfig{
			URL:         o.PostgresURL(),
			MaxConns:    int32(o.MaxConns),
			LogSQL:      o.LogSQL,
			SlowQueryMs: o.SlowMs,
		},
		SQLite: store.SQLiteConfig{
			Path:        o.Path,
			LogSQL:      o.LogSQL,
			SlowQueryMs: o.SlowMs,
		},
	}
}
