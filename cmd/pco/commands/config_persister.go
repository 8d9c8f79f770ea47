package commands

import (
	"sync"
	"time"
)

// ConfigPersister implements the auth.ConfigPersister interface by writing
// refreshed tokens back to the configuration file.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateToken stores the access token, its expiry and a rotated refresh token.
func (p *ConfigPersister) UpdateToken(token string, expiresAt time.Time, refreshToken string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config, err := loadConfig()
	if err != nil {
		return err
	}

	config.Token = token
	if !expiresAt.IsZero() {
		config.TokenExpiresAt = &expiresAt
	}

	if refreshToken != "" {
		config.RefreshToken = refreshToken
	}

	now := time.Now()
	config.LastRefreshed = &now

	return saveConfig(config)
}
