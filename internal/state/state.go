// Package state holds the application state shared by userdeck commands:
// the loaded user list, favorites and list filters.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/KaramelBytes/userdeck-cli/internal/users"
	"github.com/KaramelBytes/userdeck-cli/internal/utils"
)

const stateFileName = "state.json"

// persisted is the on-disk subset of State. The user list lives in the cache.
type persisted struct {
	Favorites []string      `json:"favorites"`
	Filters   users.Filters `json:"filters"`
}

// State is an explicit container passed to the code that needs it. It is
// safe for concurrent use.
type State struct {
	mu        sync.RWMutex
	users     []users.User
	favorites map[string]struct{}
	filters   users.Filters

	// on-disk directory of state.json; empty means in-memory only
	rootDir string
}

// New returns an empty in-memory state rooted at dir. Call Save to persist.
func New(dir string) *State {
	return &State{
		favorites: make(map[string]struct{}),
		filters:   users.DefaultFilters(),
		rootDir:   dir,
	}
}

// Load restores favorites and filters from dir. A missing file yields defaults.
func Load(dir string) (*State, error) {
	s := New(dir)
	path := filepath.Join(dir, stateFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	var p persisted
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	for _, id := range p.Favorites {
		s.favorites[id] = struct{}{}
	}
	if p.Filters != (users.Filters{}) {
		s.filters = p.Filters
	}
	return s, nil
}

// Save writes favorites and filters using an atomic write.
func (s *State) Save() error {
	if s.rootDir == "" {
		return errors.New("state directory not set")
	}
	if err := utils.EnsureDir(s.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	s.mu.RLock()
	p := persisted{Favorites: s.favoritesLocked(), Filters: s.filters}
	s.mu.RUnlock()
	data, err := utils.PrettyJSON(p)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.rootDir, stateFileName), data)
}

// SetUsers replaces the loaded user list.
func (s *State) SetUsers(list []users.User) {
	cp := append([]users.User(nil), list...)
	s.mu.Lock()
	s.users = cp
	s.mu.Unlock()
}

// Users returns a copy of the loaded user list.
func (s *State) Users() []users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]users.User(nil), s.users...)
}

// ToggleFavorite flips the favorite flag for id and returns the new value.
func (s *State) ToggleFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.favorites[id]; ok {
		delete(s.favorites, id)
		return false
	}
	s.favorites[id] = struct{}{}
	return true
}

// IsFavorite reports whether id is marked as favorite.
func (s *State) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[id]
	return ok
}

// Favorites returns the favorite IDs in sorted order.
func (s *State) Favorites() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favoritesLocked()
}

func (s *State) favoritesLocked() []string {
	ids := make([]string, 0, len(s.favorites))
	for id := range s.favorites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SetFilters replaces the active filters.
func (s *State) SetFilters(f users.Filters) {
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
}

// Filters returns the active filters.
func (s *State) Filters() users.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// Visible returns the loaded users that pass the active filters.
func (s *State) Visible() []users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return users.Filter(s.users, s.filters)
}

// FavoriteUsers returns loaded users marked as favorite, in list order.
func (s *State) FavoriteUsers() []users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []users.User
	for _, u := range s.users {
		if _, ok := s.favorites[u.ID]; ok {
			out = append(out, u)
		}
	}
	return out
}
