package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "SHOPCART_CONFIG_FILE"
	envPrefix         = "SHOPCART"
)

type consumers struct {
	IdentityGroup string `mapstructure:"identity_group"`
}

type topics struct {
	CartSnapshots  string `mapstructure:"cart_snapshots"`
	IdentityEvents string `mapstructure:"identity_events"`
}

type tls struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

// Enabled reports whether all certificate paths are set.
func (t tls) Enabled() bool {
	return t.CA != "" && t.Cert != "" && t.Key != ""
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	TLS                tls       `mapstructure:"tls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
	StoragePath        string    `mapstructure:"storage_path"`
}

// Enabled reports whether the service talks to Kafka at all.
func (b broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	SQLDB          string     `mapstructure:"sql_db"`
	LocalStorePath string     `mapstructure:"local_store_path"`
	RemoteAttempts int        `mapstructure:"remote_attempts"`
	Broker         broker     `mapstructure:"broker"`
}

// Load reads the file named by the --config flag or SHOPCART_CONFIG_FILE
// and exits the process on failure.
func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the YAML config. Keys missing in the file take defaults,
// unknown keys are an error. SHOPCART_* env vars override file values,
// e.g. SHOPCART_BROKER_STORAGE_PATH.
func LoadFile(path string) (Config, error) {
	const op = "config.LoadFile"

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.RemoteAttempts < 1 {
		return Config{}, fmt.Errorf(
			"%s: remote_attempts must be positive, got %d", op, cfg.RemoteAttempts,
		)
	}

	if cfg.Broker.Enabled() && len(cfg.Broker.SchemaRegistryURLs) == 0 {
		return Config{}, fmt.Errorf(
			"%s: schema_registry_urls are required with seed_brokers", op,
		)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("local_store_path", "./data/carts")
	v.SetDefault("remote_attempts", 1)
	v.SetDefault("broker.topics.cart_snapshots", "cart_snapshots")
	v.SetDefault("broker.topics.identity_events", "identity_events")
	v.SetDefault("broker.consumers.identity_group", "shopcart-identity")
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	template := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	SQLDB=%q
	LocalStorePath=%q
	RemoteAttempts=%d

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	StoragePath=%q
	Topics:
		CartSnapshots=%q
		IdentityEvents=%q
	Consumers:
		IdentityGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(template, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		redactDSN(c.SQLDB),
		c.LocalStorePath,
		c.RemoteAttempts,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.StoragePath,
		c.Broker.Topics.CartSnapshots,
		c.Broker.Topics.IdentityEvents,
		c.Broker.Consumers.IdentityGroup,
	)
}

// redactDSN hides the password of a postgres URL.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return dsn
	}
	return u.Redacted()
}
