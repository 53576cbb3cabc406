// Package profile resolves the runtime configuration of the buyer agent
// from the process environment.
package profile

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultRelay is used when the RELAY environment variable is unset.
const DefaultRelay = "wss://relay.damus.io"

// Profile is the validated runtime configuration.
type Profile struct {
	// Addr is the listen address of the HTTP service.
	Addr string
	// OpenAIAPIKey authenticates both the chat model and the embedder.
	OpenAIAPIKey string
	// BuyerAgentKey is the agent's Nostr private key in nsec form.
	// Empty means a fresh keypair must be generated and persisted.
	BuyerAgentKey string
	// Relay is the websocket address of the marketplace relay.
	Relay string

	DBUsername string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
}

// required lists the environment variables without which the process
// cannot start. Absence of any of them is a fatal configuration error.
var required = []string{
	"OPENAI_API_KEY",
	"DB_USERNAME",
	"DB_PASSWORD",
	"DB_HOST",
	"DB_PORT",
	"DB_NAME",
}

// Load reads the environment and returns a validated Profile.
func Load() (*Profile, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("ADDR", ":8080")

	for _, key := range required {
		if v.GetString(key) == "" {
			return nil, errors.Errorf("%s environment variable is not set", key)
		}
	}

	p := &Profile{
		Addr:          v.GetString("ADDR"),
		OpenAIAPIKey:  v.GetString("OPENAI_API_KEY"),
		BuyerAgentKey: v.GetString("BUYER_AGENT_KEY"),
		Relay:         v.GetString("RELAY"),

		DBUsername: v.GetString("DB_USERNAME"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBName:     v.GetString("DB_NAME"),
	}
	if p.Relay == "" {
		p.Relay = DefaultRelay
	}
	return p, nil
}

// DSN returns the Postgres connection string for lib/pq.
func (p *Profile) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		p.DBUsername, p.DBPassword, p.DBHost, p.DBPort, p.DBName,
	)
}
