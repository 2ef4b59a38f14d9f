package serializer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/configstore/xmlb/config"
	"github.com/configstore/xmlb/logging"
	"github.com/configstore/xmlb/xinclude"
)

// WithConfig applies loaded settings. Options set after it take precedence.
func WithConfig(cfg *config.Config) func(*Options) {
	return func(o *Options) {
		if cfg.Log.Level != "" {
			// config.Load validated the level
			if l, err := logging.NewZap(cfg.Log.Level); err == nil {
				o.Logger = l
			}
		}

		if cfg.Serializer.XInclude {
			logger := o.Logger
			o.Resolver = xinclude.New(func(xo *xinclude.Options) {
				xo.MaxDepth = cfg.XInclude.MaxDepth
				xo.Logger = logger
			})
		} else {
			o.Resolver = xinclude.Nop
		}

		if cfg.Metrics.Enabled {
			o.Registerer = prometheus.DefaultRegisterer
		}
	}
}
