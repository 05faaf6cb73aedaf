// Package backend selects and assembles a persistence variant: the embedded
// SQLite database, the file-backed key-value store, or the remote API
// client.
package backend

import (
	"fmt"
	"path/filepath"

	"tally/internal/config"
	"tally/internal/kv"
	"tally/internal/log"
	"tally/internal/persist"
	"tally/internal/remote"
	"tally/internal/storage"
	"tally/internal/store"
)

type Type string

const (
	SQLiteBackend Type = "sqlite"
	FileBackend   Type = "file"
	RemoteBackend Type = "remote"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, FileBackend, RemoteBackend:
		return true
	}
	return false
}

// Result is the assembled persistence surface. Users is the store backing
// local authentication; Tokens persists the session credential between
// process lifetimes. Cleanup may be nil.
type Result struct {
	Store   store.Backend
	Users   persist.UserStore
	Tokens  persist.TokenStore
	Cleanup func() error
}

type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create builds the backend named by the configuration. tokens supplies the
// current credential token to the remote client per request.
func (f *Factory) Create(cfg *config.Config, tokens remote.TokenSource) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLiteBackend:
		return f.createSQLite(cfg)
	case FileBackend:
		return f.createFile(cfg)
	default:
		return f.createRemote(cfg, tokens)
	}
}

func (f *Factory) createSQLite(cfg *config.Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}

	tokens, err := f.sessionTokens(cfg)
	if err != nil {
		repo.Close()
		return nil, err
	}

	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &Result{Store: repo, Users: repo, Tokens: tokens, Cleanup: repo.Close}, nil
}

func (f *Factory) createFile(cfg *config.Config) (*Result, error) {
	kvStore, err := kv.Open(filepath.Join(cfg.DataDir, "tally.json"))
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}
	repo := kv.NewRepository(kvStore)

	f.logger.Info("Initialized file backend", "data_dir", cfg.DataDir)
	return &Result{Store: repo, Users: repo, Tokens: repo}, nil
}

func (f *Factory) createRemote(cfg *config.Config, tokens remote.TokenSource) (*Result, error) {
	client := remote.NewClient(cfg.RemoteAPIURL, tokens)

	sessionTokens, err := f.sessionTokens(cfg)
	if err != nil {
		return nil, err
	}

	users, err := f.localUsers(cfg)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Initialized remote backend", "api_url", cfg.RemoteAPIURL)
	return &Result{Store: client, Users: users, Tokens: sessionTokens}, nil
}

// sessionTokens opens the kv file persisting the credential token. It is
// separate from the data backend: even the SQLite and remote variants keep
// the session token in a small local file.
func (f *Factory) sessionTokens(cfg *config.Config) (persist.TokenStore, error) {
	kvStore, err := kv.Open(filepath.Join(cfg.DataDir, "session.json"))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return kv.NewRepository(kvStore), nil
}

// localUsers backs local authentication when the data backend itself holds
// no users (the remote variant).
func (f *Factory) localUsers(cfg *config.Config) (persist.UserStore, error) {
	kvStore, err := kv.Open(filepath.Join(cfg.DataDir, "users.json"))
	if err != nil {
		return nil, fmt.Errorf("open users store: %w", err)
	}
	return kv.NewRepository(kvStore), nil
}
