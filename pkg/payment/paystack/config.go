package paystack

import "errors"

// Config holds Paystack API credentials and endpoints.
type Config struct {
	SecretKey   string
	PublicKey   string
	BaseURL     string
	CallbackURL string
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("secret key is required")
	}
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	return nil
}
