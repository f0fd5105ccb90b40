// Package accountimport registers accounts in bulk from a YAML file, for
// seeding a fresh deployment without clicking through the admin bot.
package accountimport

import (
	"context"
	"errors"
	"fmt"
	"os"

	yaml "go.yaml.in/yaml/v3"

	"groupfarm/internal/storage"
)

// Entry describes one account in the import file.
type Entry struct {
	Phone   string `yaml:"phone"`
	Session string `yaml:"session"`
	Label   string `yaml:"label,omitempty"`
	Proxy   *Proxy `yaml:"proxy,omitempty"`
}

type Proxy struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

type Store interface {
	AccountByPhone(ctx context.Context, phone string) (storage.Account, error)
	AddAccount(ctx context.Context, phone, sessionPath, label string) (int64, error)
	UpdateProxy(ctx context.Context, id int64, p storage.ProxyConfig) error
}

// Load parses the import file.
func Load(path string) ([]Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := yaml.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, e := range entries {
		if e.Phone == "" || e.Session == "" {
			return nil, fmt.Errorf("entry %d: phone and session are required", i)
		}
	}
	return entries, nil
}

// Apply registers the entries, skipping phones that already exist. It
// returns how many accounts were added.
func Apply(ctx context.Context, store Store, entries []Entry) (int, error) {
	added := 0
	for _, e := range entries {
		if _, err := store.AccountByPhone(ctx, e.Phone); err == nil {
			continue
		} else if !errors.Is(err, storage.ErrNotFound) {
			return added, err
		}

		id, err := store.AddAccount(ctx, e.Phone, e.Session, e.Label)
		if err != nil {
			return added, fmt.Errorf("add %s: %w", e.Phone, err)
		}
		if e.Proxy != nil {
			p := storage.ProxyConfig{
				Host:     e.Proxy.Host,
				Port:     e.Proxy.Port,
				Username: e.Proxy.Username,
				Password: e.Proxy.Password,
			}
			if err := store.UpdateProxy(ctx, id, p); err != nil {
				return added, fmt.Errorf("proxy for %s: %w", e.Phone, err)
			}
		}
		added++
	}
	return added, nil
}
