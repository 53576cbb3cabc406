// Package nostr holds the agent's marketplace identity and relay access:
// key handling, the public agent profile, and NIP-15 listing retrieval.
package nostr

import (
	"fmt"
	"os"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/pkg/errors"
)

// keyEnvVar is the environment variable the generated key is persisted under.
const keyEnvVar = "BUYER_AGENT_KEY"

// Keys is the agent's Nostr keypair.
type Keys struct {
	PrivateKey string // hex
	PublicKey  string // hex
	Nsec       string
	Npub       string
}

// ParseKeys decodes an nsec-encoded private key.
func ParseKeys(nsec string) (*Keys, error) {
	prefix, data, err := nip19.Decode(nsec)
	if err != nil {
		return nil, errors.Wrap(err, "decode agent key")
	}
	if prefix != "nsec" {
		return nil, errors.Errorf("agent key has prefix %q, want nsec", prefix)
	}
	sk, ok := data.(string)
	if !ok {
		return nil, errors.New("agent key did not decode to a private key")
	}
	return keysFromPrivate(sk)
}

// GenerateAndSaveKeys creates a fresh keypair and appends it to the .env
// file at envPath so the identity survives restarts.
func GenerateAndSaveKeys(envPath string) (*Keys, error) {
	keys, err := keysFromPrivate(nostr.GeneratePrivateKey())
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(envPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "open env file")
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s=%s\n", keyEnvVar, keys.Nsec); err != nil {
		return nil, errors.Wrap(err, "persist agent key")
	}
	return keys, nil
}

// LoadOrGenerateKeys parses nsec when given, otherwise generates a keypair
// and persists it to envPath.
func LoadOrGenerateKeys(nsec, envPath string) (*Keys, error) {
	if nsec != "" {
		return ParseKeys(nsec)
	}
	return GenerateAndSaveKeys(envPath)
}

func keysFromPrivate(sk string) (*Keys, error) {
	pk, err := nostr.GetPublicKey(sk)
	if err != nil {
		return nil, errors.Wrap(err, "derive public key")
	}
	nsec, err := nip19.EncodePrivateKey(sk)
	if err != nil {
		return nil, errors.Wrap(err, "encode nsec")
	}
	npub, err := nip19.EncodePublicKey(pk)
	if err != nil {
		return nil, errors.Wrap(err, "encode npub")
	}
	return &Keys{PrivateKey: sk, PublicKey: pk, Nsec: nsec, Npub: npub}, nil
}
