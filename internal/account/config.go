package account

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is 2^10 bcrypt rounds.
const DefaultHashCost = 10

// Config is shared by the credential hasher and the confirmation token service.
type Config struct {
	HashCost int
}

// ConfigFromEnv reads HASH_COST. Unset or unparsable values fall back to the default.
func ConfigFromEnv() Config {
	cost := DefaultHashCost
	if v := os.Getenv("HASH_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cost = n
		}
	}
	return Config{HashCost: cost}
}

// cost returns the effective bcrypt cost, rejecting values bcrypt would
// silently replace.
func (c Config) cost() (int, error) {
	if c.HashCost == 0 {
		return DefaultHashCost, nil
	}
	if c.HashCost < bcrypt.MinCost || c.HashCost > bcrypt.MaxCost {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidHashCost, c.HashCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return c.HashCost, nil
}

// Validate reports whether the configuration can be used.
func (c Config) Validate() error {
	_, err := c.cost()
	return err
}
