package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SyncConfig tunes catalog reconciliation. The defaults reproduce the
// provider's current catalog shape; a mounted sync.yml can extend them
// without a redeploy.
type SyncConfig struct {
	// Field names whose option list is filled from the per-payment extra map.
	OptionFields []string `mapstructure:"optionFields"`
	// Currencies whose bank tables are keyed by bank id. For these the
	// bank_code options carry the raw bank row and the redundant
	// bank_id/bank_name fields are dropped from the form.
	BankIDKeyedCurrencies []string `mapstructure:"bankIdKeyedCurrencies"`
	// TTL in seconds for the distributed sync lock.
	LockTTLSeconds int `mapstructure:"lockTtlSeconds"`
}

func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		OptionFields:          []string{"bank_code", "bank_type", "pix_type", "wallet_type", "account_type"},
		BankIDKeyedCurrencies: []string{"IDR"},
		LockTTLSeconds:        300,
	}
}

func (c SyncConfig) OptionField(name string) bool {
	for _, field := range c.OptionFields {
		if field == name {
			return true
		}
	}
	return false
}

func (c SyncConfig) BankIDKeyed(currency string) bool {
	for _, code := range c.BankIDKeyedCurrencies {
		if strings.EqualFold(code, currency) {
			return true
		}
	}
	return false
}

type SyncConfigHolder struct {
	current atomic.Value // holds SyncConfig
}

func NewSyncConfigHolder() (*SyncConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("sync")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/payadmin/config")
	v.AddConfigPath("/etc/payadmin")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PAYADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultSyncConfig()
		v.SetDefault("sync.optionFields", defaults.OptionFields)
		v.SetDefault("sync.bankIdKeyedCurrencies", defaults.BankIDKeyedCurrencies)
		v.SetDefault("sync.lockTtlSeconds", defaults.LockTTLSeconds)
	}

	var cfg SyncConfig
	if err := v.UnmarshalKey("sync", &cfg); err != nil {
		return nil, err
	}
	if err := validateSyncConfig(cfg); err != nil {
		return nil, err
	}

	holder := &SyncConfigHolder{}
	holder.current.Store(cfg)

	v.OnConfigChange(func(_ fsnotify.Event) {
		var next SyncConfig
		if err := v.UnmarshalKey("sync", &next); err != nil {
			log.Printf("config: sync config reload failed: %v", err)
			return
		}
		if err := validateSyncConfig(next); err != nil {
			log.Printf("config: sync config rejected: %v", err)
			return
		}
		holder.current.Store(next)
	})
	v.WatchConfig()

	return holder, nil
}

// NewStaticSyncConfigHolder wraps a fixed config, for tests.
func NewStaticSyncConfigHolder(cfg SyncConfig) *SyncConfigHolder {
	holder := &SyncConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *SyncConfigHolder) Current() SyncConfig {
	return h.current.Load().(SyncConfig)
}

func validateSyncConfig(cfg SyncConfig) error {
	if len(cfg.OptionFields) == 0 {
		return errors.New("sync.optionFields must not be empty")
	}
	if cfg.LockTTLSeconds <= 0 {
		return errors.New("sync.lockTtlSeconds must be positive")
	}
	return nil
}
