package config

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// StoreConfig describes the JSON file that holds products, customers and transactions.
type StoreConfig struct {
	Path        string        `koanf:"path"`
	LockTimeout time.Duration `koanf:"lockTimeout"`
	LockRetry   time.Duration `koanf:"lockRetry"`
}

const defaultStorePath = "data/inventory.json"
const defaultLockTimeout = 5 * time.Second
const defaultLockRetry = 10 * time.Millisecond

// String returns a string representation of the StoreConfig.
func (c *StoreConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Store ---\n")
	b.WriteString(fmt.Sprintf("  path: %s\n", c.Path))
	b.WriteString(fmt.Sprintf("  lockTimeout: %s\n", c.LockTimeout))
	b.WriteString(fmt.Sprintf("  lockRetry: %s\n", c.LockRetry))
	return b.String()
}

func (c *StoreConfig) Validate() error {
	if c.Path == "" {
		log.Println("Using default value for store.path")
		c.Path = defaultStorePath
	}
	if c.LockTimeout <= 0 {
		log.Println("Using default value for store.lockTimeout")
		c.LockTimeout = defaultLockTimeout
	}
	if c.LockRetry <= 0 {
		c.LockRetry = defaultLockRetry
	}
	if c.LockRetry >= c.LockTimeout {
		return fmt.Errorf("store.lockRetry (%s) must be shorter than store.lockTimeout (%s)", c.LockRetry, c.LockTimeout)
	}
	return nil
}
