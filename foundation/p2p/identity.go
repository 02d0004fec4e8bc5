package p2p

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/libp2p/go-libp2p/core/crypto"
)

// LoadIdentity returns the node's private key stored at the path. A new
// Ed25519 key is generated and saved when the file does not exist. An empty
// path produces an ephemeral key.
func LoadIdentity(path string) (crypto.PrivKey, error) {
	if path == "" {
		return generateIdentity()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		key, err := crypto.UnmarshalPrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal identity %s: %w", path, err)
		}
		return key, nil

	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read identity %s: %w", path, err)
	}

	key, err := generateIdentity()
	if err != nil {
		return nil, err
	}

	if err := saveIdentity(path, key); err != nil {
		return nil, err
	}

	return key, nil
}

// saveIdentity writes the key readable only by the owner.
func saveIdentity(path string, key crypto.PrivKey) error {
	data, err := crypto.MarshalPrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write identity %s: %w", path, err)
	}

	return nil
}

// generateIdentity creates a new Ed25519 keypair for the peer identity.
func generateIdentity() (crypto.PrivKey, error) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}

	return priv, nil
}
