package player

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Info describes a registered player for listings.
type Info struct {
	Name     string    `json:"name"`
	FullName string    `json:"full_name"`
	Path     string    `json:"path"`
	Params   []float64 `json:"params,omitempty"`
}

// Registry holds known engines by name and resolves full names such as
// "Bot_params_300" into located players.
type Registry struct {
	mu         sync.RWMutex
	players    map[string]Player
	enginesDir string
}

// NewRegistry creates an empty registry that falls back to searching
// enginesDir for names it does not know.
func NewRegistry(enginesDir string) *Registry {
	return &Registry{
		players:    make(map[string]Player),
		enginesDir: enginesDir,
	}
}

// Register adds p under its Name, replacing any previous entry.
func (r *Registry) Register(p Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[p.Name] = p
}

// Resolve returns the located player for full. Registered engines are used
// as is; otherwise the executable is searched for with Locate. Parameters in
// full always override the registered ones.
func (r *Registry) Resolve(full string) (Player, error) {
	p, err := FromName(full)
	if err != nil {
		return Player{}, err
	}

	r.mu.RLock()
	known, ok := r.players[p.Name]
	r.mu.RUnlock()

	if ok {
		if p.Params == nil {
			p.Params = known.Params
		}
		p.Path = known.Path
		return p, nil
	}

	path, err := Locate(p.Name, r.enginesDir)
	if err != nil {
		return Player{}, err
	}
	p.Path = path
	return p, nil
}

// Discover registers every executable regular file in dir and returns how
// many were added.
func (r *Registry) Discover(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read engines dir: %w", err)
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path, err := filepath.Abs(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		if !isExecutable(path) {
			continue
		}
		r.Register(Player{Name: e.Name(), Path: path})
		n++
	}
	return n, nil
}

// List returns all registered players sorted by name for a stable API response.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.players))
	for name, p := range r.players {
		infos = append(infos, Info{
			Name:     name,
			FullName: p.FullName(),
			Path:     p.Path,
			Params:   p.Params,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}
