package bootstrap

import (
	"github.com/estatly/mediasign/config"
)

// Config is the constraint for application configuration types. Structs
// embedding config.ServiceConfig get GetServiceConfig through promotion and
// only add their own ApplyDefaults and Validate.
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Server server.Config `yaml:"server" mapstructure:"server"`
//	}
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
