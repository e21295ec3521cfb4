// internal/core/services/types.go
package services

import "time"

// Cache keys shared by services and adapters.
const (
	CacheKeyProductList = "products:list"
	CacheKeyCartPrefix  = "cart:"
	CacheKeyDashboard   = "dashboard:summary"
)

// Defaults applied when a config value is left zero.
const (
	DefaultProductCacheTTL = 5 * time.Minute
	DefaultCartTTL         = 12 * time.Hour
	DefaultLowStock        = 5
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
