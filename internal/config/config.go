package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "GEOGATE"

type AppConfig struct {
	v *viper.Viper
}

func NewAppConfig() *AppConfig {
	c := &AppConfig{v: viper.New()}

	setDefaults(c.v)

	return c
}

// Load merges every readable file in order. Returns true if at least one was loaded.
func (c *AppConfig) Load(filename ...string) bool {
	loaded := false

	for _, name := range filename {
		if name == "" {
			continue
		}

		c.v.SetConfigFile(name)

		if err := c.v.MergeInConfig(); err != nil {
			slog.Info(fmt.Sprintf("error loading config: %s", err.Error()))
		} else {
			loaded = true
		}
	}

	return loaded
}

// LoadEnv makes GEOGATE_STORE_URL override store.url and so on.
func (c *AppConfig) LoadEnv() {
	c.v.SetEnvPrefix(EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()
}

// BindFlags binds every flag of the set, flag "api-addr" to key "api_addr".
func (c *AppConfig) BindFlags(fs *pflag.FlagSet) error {
	var err error

	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}

		err = c.v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})

	return err
}

func (c *AppConfig) Bool(key string) bool {
	return c.v.GetBool(key)
}

func (c *AppConfig) String(key string) string {
	return c.v.GetString(key)
}

func (c *AppConfig) Int(key string) int {
	return c.v.GetInt(key)
}

func (c *AppConfig) Duration(key string) time.Duration {
	return c.v.GetDuration(key)
}

func (c *AppConfig) Set(key string, v any) {
	c.v.Set(key, v)
}

func (c *AppConfig) APIAddr() string {
	return c.v.GetString("api_addr")
}

func (c *AppConfig) DB() string {
	return c.v.GetString("db")
}

func (c *AppConfig) UsersFile() string {
	return c.v.GetString("users_file")
}

func (c *AppConfig) ClientsFile() string {
	return c.v.GetString("clients_file")
}

func (c *AppConfig) LogRequests() bool {
	return c.v.GetBool("log_requests")
}

func (c *AppConfig) StoreURL() string {
	return strings.TrimRight(c.v.GetString("store.url"), "/")
}

func (c *AppConfig) StoreLogin() string {
	return c.v.GetString("store.login")
}

func (c *AppConfig) StorePassword() string {
	return c.v.GetString("store.password")
}

func (c *AppConfig) StoreTimeout() time.Duration {
	return c.v.GetDuration("store.timeout")
}

func (c *AppConfig) GateOpen() bool {
	return c.v.GetBool("gate.open")
}

func (c *AppConfig) GateAddr() string {
	return c.v.GetString("gate.addr")
}

func (c *AppConfig) GateCacheTTL() time.Duration {
	return c.v.GetDuration("gate.cache_ttl")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_addr", ":8080")
	v.SetDefault("db", "geogate.sqlite")
	v.SetDefault("users_file", "users.yml")
	v.SetDefault("clients_file", "clients.yml")
	v.SetDefault("log_requests", false)

	v.SetDefault("store.url", "http://127.0.0.1:8080")
	v.SetDefault("store.login", "")
	v.SetDefault("store.password", "")
	v.SetDefault("store.timeout", time.Second*5)

	v.SetDefault("gate.open", false)
	v.SetDefault("gate.addr", ":8081")
	v.SetDefault("gate.cache_ttl", time.Minute)
}
