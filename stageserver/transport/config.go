package transport

import (
	"github.com/spf13/viper"
)

type Config struct {
	// AdminToken protects the admin endpoints. Empty leaves them open,
	// which is only acceptable for local development.
	AdminToken     string   `mapstructure:"admin_token"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("admin_token"), "")
	v.SetDefault(p("allowed_origins"), []string{"*"})
}
