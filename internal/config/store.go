package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Credential keys managed through the settings API
const (
	KeyAdzunaAppID  = "ADZUNA_APP_ID"
	KeyAdzunaAPIKey = "ADZUNA_API_KEY"
)

// DefaultCredentialsFile is where credentials are persisted when no path is configured
const DefaultCredentialsFile = ".env.local"

// CredentialKeys lists the keys the settings API may read and write
var CredentialKeys = []string{KeyAdzunaAppID, KeyAdzunaAPIKey}

// Store is the runtime configuration service. Values live in memory and are
// persisted as KEY=value lines in a single file. Writes hold a lock across
// the whole read-modify-write so concurrent saves cannot interleave.
type Store struct {
	path string

	fileMu sync.Mutex
	mu     sync.RWMutex
	values map[string]string
}

// NewStore loads a store from path. A missing file yields an empty store.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultCredentialsFile
	}

	s := &Store{path: path, values: make(map[string]string)}

	content, err := readIfExists(path)
	if err != nil {
		return nil, err
	}
	if content != "" {
		parsed, err := godotenv.Parse(strings.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
		}
		s.values = parsed
	}

	return s, nil
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Get returns the stored value for key, falling back to the process
// environment.
func (s *Store) Get(key string) string {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if ok && v != "" {
		return v
	}
	return os.Getenv(key)
}

// Missing returns the keys that resolve to an empty value, in argument order
func (s *Store) Missing(keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(s.Get(k)) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

// Present reports which of CredentialKeys currently have a value
func (s *Store) Present() map[string]bool {
	present := make(map[string]bool, len(CredentialKeys))
	for _, k := range CredentialKeys {
		present[k] = s.Get(k) != ""
	}
	return present
}

// Set persists a single key
func (s *Store) Set(key, value string) error {
	return s.SetMany(map[string]string{key: value})
}

// SetMany persists several keys at once. Existing lines for those keys and
// blank lines are dropped, the new pairs are appended in key order, and the
// in-memory values are updated once the file is written.
func (s *Store) SetMany(pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}
	for k, v := range pairs {
		if err := validatePair(k, v); err != nil {
			return err
		}
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	content, err := readIfExists(s.path)
	if err != nil {
		return err
	}

	var kept []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, replaced := pairs[lineKey(line)]; replaced {
			continue
		}
		kept = append(kept, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan credentials file: %w", err)
	}

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		kept = append(kept, k+"="+quoteValue(pairs[k]))
	}

	if err := writeAtomic(s.path, strings.Join(kept, "\n")+"\n"); err != nil {
		return err
	}

	s.mu.Lock()
	for k, v := range pairs {
		s.values[k] = v
	}
	s.mu.Unlock()

	return nil
}

func validatePair(key, value string) error {
	if key == "" {
		return fmt.Errorf("config key is empty")
	}
	if strings.ContainsAny(key, "= \t\r\n#") {
		return fmt.Errorf("config key %q contains invalid characters", key)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("config value for %s must be a single line", key)
	}
	return nil
}

// lineKey extracts the key of a KEY=value line, tolerating "export " prefixes
func lineKey(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}
	line = strings.TrimPrefix(line, "export ")
	key, _, _ := strings.Cut(line, "=")
	return strings.TrimSpace(key)
}

func quoteValue(v string) string {
	if !strings.ContainsAny(v, " \t#\"'\\$") {
		return v
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`).Replace(v)
	return `"` + escaped + `"`
}

func readIfExists(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}
	return string(data), nil
}

// writeAtomic writes via a temp file in the same directory so readers never
// see a partial file.
func writeAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set credentials file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close credentials file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}
