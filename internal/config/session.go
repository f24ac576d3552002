package config

import "time"

// CheckoutConfig controls checkout session storage in Redis.
type CheckoutConfig struct {
	TTL    time.Duration // session lifetime; expiry abandons the checkout
	Prefix string        // Redis key prefix for session entries
}

// LoadCheckoutConfig reads checkout settings from the environment.
// The 15 minute default matches how long a customer is given to pay
// before the seats they picked go back on the market.
func LoadCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		TTL:    parseDur(getenv("CHECKOUT_TTL", "15m")),
		Prefix: getenv("CHECKOUT_PREFIX", "checkout"),
	}
}
