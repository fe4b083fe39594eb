package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore is a simple local-first key management surface.
//
// EXPERIMENTAL: this filesystem-backed storage is not part of the stable
// protocol core API and may change in MINOR releases.
//
// Layout:
//   - one directory per human identity under the store root
//   - root.key holds the human's hex-encoded Ed25519 seed (0600)
//   - agents/<name>.key holds HKDF-derived agent seeds
//
// Key distribution and revocation propagation are out of scope; the store
// only persists local seeds.
type KeyStore struct {
	Directory string
}

// KeyEntry describes one stored identity and its derived agent keys.
type KeyEntry struct {
	Identifier string
	Agents     []string
}

// GetDefaultDirectory returns ~/.dcp/keys.
func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".dcp", "keys"), nil
}

// CreateKeyStore opens a store rooted at directory, defaulting to ~/.dcp/keys.
func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootKeyPath(identifier string) string {
	return filepath.Join(ks.Directory, identifier, "root.key")
}

func (ks *KeyStore) agentKeyPath(identifier, agent string) string {
	return filepath.Join(ks.Directory, identifier, "agents", agent+".key")
}

// CheckKeyName rejects identifiers that would escape the store layout.
func CheckKeyName(identifier string) error {
	if identifier == "" {
		return errors.New("identifier cannot be empty")
	}
	for _, char := range identifier {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in identifier", char)
	}
	return nil
}

// ParseSeedHex decodes a 32-byte Ed25519 seed from hex (0x prefix allowed).
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func (ks *KeyStore) saveSeedToFile(filePath string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadSeedFromFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(strings.TrimSpace(string(data)))
}

// InitializeRootKey stores a root human seed and returns its keypair.
func (ks *KeyStore) InitializeRootKey(identifier string, seed []byte, overwrite bool) (*Keypair, string, error) {
	if err := CheckKeyName(identifier); err != nil {
		return nil, "", err
	}
	filePath := ks.rootKeyPath(identifier)
	if err := ks.saveSeedToFile(filePath, seed, overwrite); err != nil {
		return nil, "", err
	}
	kp, err := KeypairFromSeed(seed)
	if err != nil {
		return nil, "", err
	}
	return kp, filePath, nil
}

// DeriveAgentKey derives and stores an agent seed under a human identity.
func (ks *KeyStore) DeriveAgentKey(from, agent string, overwrite bool) (*Keypair, string, error) {
	if err := CheckKeyName(from); err != nil {
		return nil, "", err
	}
	if err := CheckKeyName(agent); err != nil {
		return nil, "", err
	}
	rootSeed, err := ks.loadSeedFromFile(ks.rootKeyPath(from))
	if err != nil {
		return nil, "", err
	}
	agentSeed, err := DeriveAgentSeed(rootSeed, agent)
	if err != nil {
		return nil, "", err
	}
	filePath := ks.agentKeyPath(from, agent)
	if err := ks.saveSeedToFile(filePath, agentSeed, overwrite); err != nil {
		return nil, "", err
	}
	kp, err := KeypairFromSeed(agentSeed)
	if err != nil {
		return nil, "", err
	}
	return kp, filePath, nil
}

// ExportPublicKey returns the base64 public key for a stored identity,
// or for one of its derived agents when agent is non-empty.
func (ks *KeyStore) ExportPublicKey(identifier, agent string) (string, error) {
	if err := CheckKeyName(identifier); err != nil {
		return "", err
	}
	var seed []byte
	var err error
	if agent == "" {
		seed, err = ks.loadSeedFromFile(ks.rootKeyPath(identifier))
	} else {
		if err := CheckKeyName(agent); err != nil {
			return "", err
		}
		seed, err = ks.loadSeedFromFile(ks.agentKeyPath(identifier, agent))
	}
	if err != nil {
		return "", err
	}
	kp, err := KeypairFromSeed(seed)
	if err != nil {
		return "", err
	}
	return kp.PublicKeyB64, nil
}

// LoadSecret resolves a base64 secret key from one of: an inline hex seed,
// an explicit key file, or a stored identity (optionally one of its agents).
func (ks *KeyStore) LoadSecret(seedHex, signerName, agentName, keyFile string) (string, error) {
	var seed []byte
	var err error
	switch {
	case seedHex != "":
		seed, err = ParseSeedHex(seedHex)
	case keyFile != "":
		seed, err = ks.loadSeedFromFile(keyFile)
	case signerName != "":
		if err := CheckKeyName(signerName); err != nil {
			return "", err
		}
		if agentName == "" {
			seed, err = ks.loadSeedFromFile(ks.rootKeyPath(signerName))
		} else {
			if err := CheckKeyName(agentName); err != nil {
				return "", err
			}
			seed, err = ks.loadSeedFromFile(ks.agentKeyPath(signerName, agentName))
		}
	default:
		return "", errors.New("no signer provided")
	}
	if err != nil {
		return "", err
	}
	kp, err := KeypairFromSeed(seed)
	if err != nil {
		return "", err
	}
	return kp.SecretKeyB64, nil
}

// ListKeys enumerates stored identities and their agent keys, sorted.
func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var identifiers []string
	for _, entry := range entries {
		if entry.IsDir() {
			identifiers = append(identifiers, entry.Name())
		}
	}
	sort.Strings(identifiers)

	var result []KeyEntry
	for _, identifier := range identifiers {
		agentsDir := filepath.Join(ks.Directory, identifier, "agents")
		agentEntries, aerr := os.ReadDir(agentsDir)
		var agents []string
		if aerr == nil {
			for _, agentEntry := range agentEntries {
				if agentEntry.IsDir() {
					continue
				}
				if strings.HasSuffix(agentEntry.Name(), ".key") {
					agents = append(agents, strings.TrimSuffix(agentEntry.Name(), ".key"))
				}
			}
			sort.Strings(agents)
		}
		result = append(result, KeyEntry{Identifier: identifier, Agents: agents})
	}
	return result, nil
}
