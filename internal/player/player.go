package player

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// paramsMarker separates an engine name from its numeric parameters, as in
// "QuintBot_params_300_500_0.5".
const paramsMarker = "_params_"

// EnginesDirName is the directory next to the running executable that is
// searched for engines.
const EnginesDirName = "engines"

// ErrNotFound is returned when no executable can be found for an engine name.
var ErrNotFound = errors.New("engine not found")

// ErrInvalidName is returned for full names whose parameters do not parse.
var ErrInvalidName = errors.New("invalid player name")

// Player identifies an engine executable together with the numeric
// parameters it is started with.
type Player struct {
	Name   string    `json:"name"`
	Params []float64 `json:"params,omitempty"`
	Path   string    `json:"path,omitempty"`
}

// FromName parses a full name such as "Bot_params_300_0.5" into the name
// "Bot" and the parameters [300, 0.5]. Names without the marker have no
// parameters. The returned Player has no Path yet.
func FromName(full string) (Player, error) {
	name, rest, ok := strings.Cut(full, paramsMarker)
	if !ok {
		return Player{Name: full}, nil
	}
	if name == "" {
		return Player{}, fmt.Errorf("%w %q: empty engine name", ErrInvalidName, full)
	}

	var params []float64
	for _, s := range strings.Split(rest, "_") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Player{}, fmt.Errorf("%w %q: parameter %q: %v", ErrInvalidName, full, s, err)
		}
		params = append(params, v)
	}
	return Player{Name: name, Params: params}, nil
}

// FullName returns the display name: the executable name without its file
// extension, followed by the parameters if there are any.
func (p Player) FullName() string {
	name := filepath.Base(p.Name)
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	if len(p.Params) == 0 {
		return name
	}
	return name + paramsMarker + strings.Join(p.Args(), "_")
}

// Args returns the parameters formatted as command-line arguments.
func (p Player) Args() []string {
	args := make([]string, len(p.Params))
	for i, v := range p.Params {
		args[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return args
}

// Command returns the executable to start, falling back to Name when the
// player has not been located.
func (p Player) Command() string {
	if p.Path != "" {
		return p.Path
	}
	return p.Name
}

// Locate finds the executable for name. It tries, in order: name itself
// (which may be on PATH or a path), name in the working directory, and name
// in enginesDir. An empty enginesDir means the "engines" directory next to
// the running executable.
func Locate(name, enginesDir string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("locate engine: %w: empty name", ErrNotFound)
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	if wd, err := os.Getwd(); err == nil {
		if candidate := filepath.Join(wd, name); isExecutable(candidate) {
			return candidate, nil
		}
	}

	if enginesDir == "" {
		if exe, err := os.Executable(); err == nil {
			enginesDir = filepath.Join(filepath.Dir(exe), EnginesDirName)
		}
	}
	if enginesDir != "" {
		candidate := filepath.Join(enginesDir, name)
		if abs, err := filepath.Abs(candidate); err == nil {
			candidate = abs
		}
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("locate engine %q: %w", name, ErrNotFound)
}

// Resolve parses full and locates its executable.
func Resolve(full, enginesDir string) (Player, error) {
	p, err := FromName(full)
	if err != nil {
		return Player{}, err
	}
	path, err := Locate(p.Name, enginesDir)
	if err != nil {
		return Player{}, err
	}
	p.Path = path
	return p, nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0o111 != 0
}
