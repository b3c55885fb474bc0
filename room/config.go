package room

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ID          string `mapstructure:"id"`
	MaxSpeakers int    `mapstructure:"max_speakers"`

	InactivityThreshold time.Duration `mapstructure:"inactivity_threshold"`
	WarnThreshold       time.Duration `mapstructure:"warn_threshold"`
	SweepInterval       time.Duration `mapstructure:"sweep_interval"`

	FadeDuration          time.Duration `mapstructure:"fade_duration"`
	EmergencyFadeDuration time.Duration `mapstructure:"emergency_fade_duration"`
	ConnectDelay          time.Duration `mapstructure:"connect_delay"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("id"), "main")
	v.SetDefault(p("max_speakers"), 2)
	v.SetDefault(p("inactivity_threshold"), "120s")
	v.SetDefault(p("warn_threshold"), "90s")
	v.SetDefault(p("sweep_interval"), "30s")
	v.SetDefault(p("fade_duration"), "1000ms")
	v.SetDefault(p("emergency_fade_duration"), "500ms")
	v.SetDefault(p("connect_delay"), "300ms")
}
