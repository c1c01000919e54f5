package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RegisterPolicy controls how a terminal degrades when the durable store is
// unreachable, plus guard rails on cart size.
type RegisterPolicy struct {
	FallbackCapacity int `mapstructure:"fallbackCapacity"`
	MaxLinesPerBill  int `mapstructure:"maxLinesPerBill"`
	SequenceRetries  int `mapstructure:"sequenceRetries"`
}

func DefaultRegisterPolicy() RegisterPolicy {
	return RegisterPolicy{
		FallbackCapacity: 256,
		MaxLinesPerBill:  200,
		SequenceRetries:  3,
	}
}

// RegisterPolicyHolder exposes the current policy and swaps it atomically on
// config file change.
type RegisterPolicyHolder struct {
	current atomic.Value // holds RegisterPolicy
}

func NewRegisterPolicyHolder() (*RegisterPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("register")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/tillpoint/config")
	v.AddConfigPath("/etc/tillpoint")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TILLPOINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRegisterPolicy()
	v.SetDefault("register.fallbackCapacity", defaults.FallbackCapacity)
	v.SetDefault("register.maxLinesPerBill", defaults.MaxLinesPerBill)
	v.SetDefault("register.sequenceRetries", defaults.SequenceRetries)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var policy RegisterPolicy
	if err := v.UnmarshalKey("register", &policy); err != nil {
		return nil, err
	}
	if err := validateRegisterPolicy(policy); err != nil {
		return nil, err
	}

	holder := &RegisterPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RegisterPolicy
		if err := v.UnmarshalKey("register", &updated); err != nil {
			log.Printf("[register-config] reload failed: %v", err)
			return
		}
		if err := validateRegisterPolicy(updated); err != nil {
			log.Printf("[register-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
	})

	return holder, nil
}

// StaticRegisterPolicyHolder wraps a fixed policy with no file watching.
func StaticRegisterPolicyHolder(policy RegisterPolicy) *RegisterPolicyHolder {
	holder := &RegisterPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func (h *RegisterPolicyHolder) Current() RegisterPolicy {
	return h.current.Load().(RegisterPolicy)
}

func validateRegisterPolicy(p RegisterPolicy) error {
	if p.FallbackCapacity <= 0 {
		return errors.New("register.fallbackCapacity must be positive")
	}
	if p.MaxLinesPerBill <= 0 {
		return errors.New("register.maxLinesPerBill must be positive")
	}
	if p.SequenceRetries <= 0 {
		return errors.New("register.sequenceRetries must be positive")
	}
	return nil
}
