package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration, read from ~/.rdm.yaml or the path in
// RDM_CONFIG.
type Config struct {
	Server       string `yaml:"server"`
	Token        string `yaml:"token"`
	RefreshToken string `yaml:"refreshToken"`
	RefreshURL   string `yaml:"refreshUrl"`

	path string
}

func configPath() (string, error) {
	if p := os.Getenv("RDM_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".rdm.yaml"), nil
}

// LoadConfig reads the CLI configuration file.
func LoadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Server == "" {
		return nil, fmt.Errorf("config %s: server is required", path)
	}
	cfg.path = path
	return &cfg, nil
}

// Save writes the configuration back, preserving restrictive permissions
// since it holds tokens.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", c.path, err)
	}
	return nil
}

// fileCredentials serves the token from the config file and exchanges the
// refresh token at the auth server when the access token is rejected. The
// refreshed pair is persisted so the next invocation starts valid.
type fileCredentials struct {
	mu         sync.Mutex
	cfg        *Config
	httpClient *http.Client
}

func newFileCredentials(cfg *Config) *fileCredentials {
	return &fileCredentials{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (f *fileCredentials) Token(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cfg.Token == "" {
		return "", fmt.Errorf("no token configured; set token in %s", f.cfg.path)
	}
	return f.cfg.Token, nil
}

func (f *fileCredentials) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cfg.RefreshURL == "" || f.cfg.RefreshToken == "" {
		return fmt.Errorf("no refresh credentials configured")
	}

	payload, err := json.Marshal(map[string]string{"refreshToken": f.cfg.RefreshToken})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.RefreshURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	var out struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}
	if out.Token == "" {
		return fmt.Errorf("refresh response carried no token")
	}

	f.cfg.Token = out.Token
	if out.RefreshToken != "" {
		f.cfg.RefreshToken = out.RefreshToken
	}
	return f.cfg.Save()
}
