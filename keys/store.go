package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore keeps named caller seeds on the local filesystem.
//
// Layout: <Directory>/<name>/root.key and <Directory>/<name>/roles/<role>.key.
// Each file holds "<scheme>:<hex seed>"; a bare hex seed is read as ed25519.
type KeyStore struct {
	Directory string
}

// KeyEntry lists one stored identity and its derived roles.
type KeyEntry struct {
	Name  string
	Roles []string
}

// DefaultDirectory is ~/.xdao/ensbridge/keys.
func DefaultDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".xdao", "ensbridge", "keys"), nil
}

func OpenKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootPath(name string) string {
	return filepath.Join(ks.Directory, name, "root.key")
}

func (ks *KeyStore) rolePath(name, role string) string {
	return filepath.Join(ks.Directory, name, "roles", role+".key")
}

// CheckName accepts [A-Za-z0-9_-]+.
func CheckName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in name", c)
	}
	return nil
}

func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimPrefix(strings.TrimSpace(seedHex), "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", SeedSize, len(data))
	}
	return data, nil
}

// ParseKeyFile parses the contents of a key file.
func ParseKeyFile(contents string) (Scheme, []byte, error) {
	contents = strings.TrimSpace(contents)
	scheme := Ed25519
	if alg, rest, ok := strings.Cut(contents, ":"); ok {
		scheme, contents = Scheme(alg), rest
	}
	if scheme != Ed25519 && scheme != Dilithium3 {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
	seed, err := ParseSeedHex(contents)
	if err != nil {
		return "", nil, err
	}
	return scheme, seed, nil
}

func writeKeyFile(path string, scheme Scheme, seed []byte, overwrite bool) error {
	if len(seed) != SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s:%s\n", scheme, hex.EncodeToString(seed)); err != nil {
		return err
	}
	return f.Close()
}

// LoadSignerFile reads a key file and returns its signer.
func LoadSignerFile(path string) (Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	scheme, seed, err := ParseKeyFile(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewSigner(scheme, seed)
}

// Init stores seed as the root key of name and returns its public key.
func (ks *KeyStore) Init(name string, scheme Scheme, seed []byte, overwrite bool) (PublicKey, string, error) {
	if err := CheckName(name); err != nil {
		return PublicKey{}, "", err
	}
	s, err := NewSigner(scheme, seed)
	if err != nil {
		return PublicKey{}, "", err
	}
	path := ks.rootPath(name)
	if err := writeKeyFile(path, s.Public().Scheme, seed, overwrite); err != nil {
		return PublicKey{}, "", err
	}
	return s.Public(), path, nil
}

// Derive stores a role key derived from name's root key. The role key uses
// the root key's scheme.
func (ks *KeyStore) Derive(name, role string, overwrite bool) (PublicKey, string, error) {
	if err := CheckName(name); err != nil {
		return PublicKey{}, "", err
	}
	data, err := os.ReadFile(ks.rootPath(name))
	if err != nil {
		return PublicKey{}, "", err
	}
	scheme, root, err := ParseKeyFile(string(data))
	if err != nil {
		return PublicKey{}, "", err
	}
	seed, err := DeriveRoleSeed(root, role)
	if err != nil {
		return PublicKey{}, "", err
	}
	s, err := NewSigner(scheme, seed)
	if err != nil {
		return PublicKey{}, "", err
	}
	path := ks.rolePath(name, role)
	if err := writeKeyFile(path, scheme, seed, overwrite); err != nil {
		return PublicKey{}, "", err
	}
	return s.Public(), path, nil
}

// Signer loads the signer for name, or for one of its roles when role is set.
func (ks *KeyStore) Signer(name, role string) (Signer, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	if role == "" {
		return LoadSignerFile(ks.rootPath(name))
	}
	if err := CheckName(role); err != nil {
		return nil, fmt.Errorf("role: %w", err)
	}
	return LoadSignerFile(ks.rolePath(name, role))
}

func (ks *KeyStore) List() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]KeyEntry, 0, len(names))
	for _, name := range names {
		var roles []string
		if roleEntries, err := os.ReadDir(filepath.Join(ks.Directory, name, "roles")); err == nil {
			for _, r := range roleEntries {
				if !r.IsDir() && strings.HasSuffix(r.Name(), ".key") {
					roles = append(roles, strings.TrimSuffix(r.Name(), ".key"))
				}
			}
			sort.Strings(roles)
		}
		out = append(out, KeyEntry{Name: name, Roles: roles})
	}
	return out, nil
}
