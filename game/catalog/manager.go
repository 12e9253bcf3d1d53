package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
)

// Manager resolves catalog ids from a JSON catalog directory and then an
// optional remote store. The built-in developed games are a separate id space
// served by ListDevelopedGames and GetDevelopedGame.
type Manager struct {
	catalogDir string
	games      map[int64]*GameInfo
	developed  []DevelopedGame
	remote     Source
	mu         sync.RWMutex
}

// NewManager creates a catalog manager. An empty catalogDir disables the
// file-backed catalog; a nil remote disables the store lookup.
func NewManager(catalogDir string, remote Source) (*Manager, error) {
	if catalogDir != "" {
		if _, err := os.Stat(catalogDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog directory does not exist: %s", catalogDir)
		}
	}

	m := &Manager{
		catalogDir: catalogDir,
		games:      make(map[int64]*GameInfo),
		developed:  builtinGames(),
		remote:     remote,
	}

	if err := m.RefreshCache(); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	return m, nil
}

// RefreshCache reloads the catalog directory from disk. Invalid files are
// skipped with a warning so one bad entry does not hide the rest.
func (m *Manager) RefreshCache() error {
	games := make(map[int64]*GameInfo)

	if m.catalogDir != "" {
		files, err := catalogFiles(m.catalogDir)
		if err != nil {
			return err
		}

		for _, path := range files {
			game, problems := readGameFile(path)
			if len(problems) > 0 {
				slog.Warn("skipping invalid catalog file", "file", path, "errors", problems)
				continue
			}
			if _, dup := games[game.ID]; dup {
				slog.Warn("skipping duplicate catalog id", "file", path, "id", game.ID)
				continue
			}
			games[game.ID] = game
		}
	}

	m.mu.Lock()
	m.games = games
	m.mu.Unlock()

	slog.Debug("catalog loaded", "dir", m.catalogDir, "games", len(games))
	return nil
}

// GetGameInfo resolves a catalog id
func (m *Manager) GetGameInfo(ctx context.Context, id int64) (*GameInfo, error) {
	if id <= 0 {
		return nil, ErrGameNotFound
	}

	m.mu.RLock()
	game, ok := m.games[id]
	m.mu.RUnlock()
	if ok {
		copied := *game
		return &copied, nil
	}

	if m.remote != nil {
		game, err := m.remote.GetGame(ctx, id)
		if err == nil {
			return game, nil
		}
		if !errors.Is(err, ErrGameNotFound) {
			return nil, err
		}
	}

	return nil, ErrGameNotFound
}

// ListGames returns the file-backed catalog ordered by id
func (m *Manager) ListGames() []*GameInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*GameInfo, 0, len(m.games))
	for _, g := range m.games {
		copied := *g
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// ListDevelopedGames returns the active built-in games
func (m *Manager) ListDevelopedGames() []DevelopedGame {
	result := make([]DevelopedGame, 0, len(m.developed))
	for _, g := range m.developed {
		if g.IsActive {
			result = append(result, g)
		}
	}
	return result
}

// GetDevelopedGame returns an active built-in game by id
func (m *Manager) GetDevelopedGame(id int64) (*DevelopedGame, error) {
	for _, g := range m.developed {
		if g.ID == id && g.IsActive {
			copied := g
			return &copied, nil
		}
	}
	return nil, ErrGameNotFound
}
