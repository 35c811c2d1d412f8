package catalog

import "github.com/okian/techmatch/pkg/logger"

// Option applies a configuration option to the Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used for resolution events.
func WithLogger(l logger.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.log = l
		}
	}
}
