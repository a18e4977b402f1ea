package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	ServerURL        string
	ClioURL          string
	IPFSGateway      string
	MarketplaceURL   string
	MetadataURL      string
	RefreshInterval  time.Duration
	MinXRP           int64
	SkipCurrency     string
	LogLevel         string
	DiscordToken     string
	CMCAPIKey        string
	CMCConversionURL string

	TwitterAccounts []TwitterAccount
	Collections     []Collection
}

// TwitterAccount is one set of posting credentials. Values in the config
// file may reference environment variables as ${VAR}.
type TwitterAccount struct {
	Name           string `mapstructure:"name"`
	ConsumerKey    string `mapstructure:"consumer_key"`
	ConsumerSecret string `mapstructure:"consumer_secret"`
	AccessToken    string `mapstructure:"access_token"`
	AccessSecret   string `mapstructure:"access_secret"`
}

// Collection binds a token issuer to its announcement destinations.
type Collection struct {
	Name             string `mapstructure:"name"`
	Issuer           string `mapstructure:"issuer"`
	TwitterAccount   int    `mapstructure:"twitter_account"`
	DiscordChannelID string `mapstructure:"discord_channel_id"`
	DiscordRoleID    string `mapstructure:"discord_role_id"`
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NFTWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server", "wss://xrplcluster.com")
	v.SetDefault("ipfs-gateway", "https://ipfs.io/ipfs")
	v.SetDefault("marketplace-url", "https://nft.onxrp.com")
	v.SetDefault("refresh-interval", 10*time.Minute)
	v.SetDefault("min-xrp", int64(100))
	v.SetDefault("skip-currency", "XPUNK")
	v.SetDefault("log-level", "info")
	v.SetDefault("cmc-conversion-url", "https://pro-api.coinmarketcap.com/v2/tools/price-conversion")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		ServerURL:        v.GetString("server"),
		ClioURL:          v.GetString("clio-server"),
		IPFSGateway:      v.GetString("ipfs-gateway"),
		MarketplaceURL:   v.GetString("marketplace-url"),
		MetadataURL:      v.GetString("metadata-url"),
		RefreshInterval:  v.GetDuration("refresh-interval"),
		MinXRP:           v.GetInt64("min-xrp"),
		SkipCurrency:     v.GetString("skip-currency"),
		LogLevel:         v.GetString("log-level"),
		DiscordToken:     expand(v.GetString("discord-token")),
		CMCAPIKey:        expand(v.GetString("cmc-api-key")),
		CMCConversionURL: v.GetString("cmc-conversion-url"),
	}

	if err := v.UnmarshalKey("twitter_accounts", &cfg.TwitterAccounts); err != nil {
		return Config{}, fmt.Errorf("decode twitter_accounts: %w", err)
	}
	if err := v.UnmarshalKey("collections", &cfg.Collections); err != nil {
		return Config{}, fmt.Errorf("decode collections: %w", err)
	}

	for i := range cfg.TwitterAccounts {
		a := &cfg.TwitterAccounts[i]
		a.ConsumerKey = expand(a.ConsumerKey)
		a.ConsumerSecret = expand(a.ConsumerSecret)
		a.AccessToken = expand(a.AccessToken)
		a.AccessSecret = expand(a.AccessSecret)
	}

	return cfg, nil
}

// Validate rejects configurations the process cannot start with. These abort
// startup with a diagnostic instead of entering the restart loop.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server url is required")
	}
	if len(c.Collections) == 0 {
		return fmt.Errorf("at least one collection is required")
	}

	seen := make(map[string]struct{}, len(c.Collections))
	for _, col := range c.Collections {
		if col.Issuer == "" {
			return fmt.Errorf("collection %q: issuer is required", col.Name)
		}
		if _, dup := seen[col.Issuer]; dup {
			return fmt.Errorf("collection %q: issuer %s configured twice", col.Name, col.Issuer)
		}
		seen[col.Issuer] = struct{}{}

		if col.TwitterAccount < 0 || col.TwitterAccount >= len(c.TwitterAccounts) {
			return fmt.Errorf("collection %q: twitter account index %d out of range", col.Name, col.TwitterAccount)
		}
		if col.DiscordChannelID != "" && c.DiscordToken == "" {
			return fmt.Errorf("collection %q: discord channel set but no bot token", col.Name)
		}
	}

	for i, a := range c.TwitterAccounts {
		if a.ConsumerKey == "" || a.ConsumerSecret == "" || a.AccessToken == "" || a.AccessSecret == "" {
			return fmt.Errorf("twitter account %d (%s): incomplete credentials", i, a.Name)
		}
	}

	return nil
}

// expand substitutes ${VAR} references so credentials can live in the
// environment while structure lives in the config file.
func expand(s string) string {
	return os.ExpandEnv(s)
}
