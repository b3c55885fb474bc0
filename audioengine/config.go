package audioengine

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// BaseURL of the media bridge; empty selects the in-process noop engine.
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ProbeInterval time.Duration `mapstructure:"probe_interval"`

	RetryInitialInterval time.Duration `mapstructure:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `mapstructure:"retry_max_interval"`
	RetryMaxElapsedTime  time.Duration `mapstructure:"retry_max_elapsed_time"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("base_url"), "")
	v.SetDefault(p("timeout"), "10s")
	v.SetDefault(p("probe_interval"), "15s")
	v.SetDefault(p("retry_initial_interval"), "100ms")
	v.SetDefault(p("retry_max_interval"), "1s")
	v.SetDefault(p("retry_max_elapsed_time"), "3s")
}
