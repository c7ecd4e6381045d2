package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultMatchFile is the options file read by the clop command.
const DefaultMatchFile = "clop-quinttest-options.yaml"

// ErrInvalidMatchFile is returned when a match file is missing required keys.
var ErrInvalidMatchFile = errors.New("invalid match file")

// MatchFile describes a match between a tuned engine and a fixed opponent.
type MatchFile struct {
	EngineName         string    `yaml:"engine_name"`
	EngineParameters   []float64 `yaml:"engine_parameters"`
	OpponentName       string    `yaml:"opponent_name"`
	OpponentParameters []float64 `yaml:"opponent_parameters"`
	TimeControl        string    `yaml:"time_control"`
	Games              int       `yaml:"games"`
	Concurrency        int       `yaml:"concurrency"`
}

// LoadMatchFile reads and validates a YAML match file. Games and
// concurrency default to 1.
func LoadMatchFile(path string) (MatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MatchFile{}, fmt.Errorf("read match file: %w", err)
	}
	return ParseMatchFile(data)
}

// ParseMatchFile decodes and validates a YAML match file.
func ParseMatchFile(data []byte) (MatchFile, error) {
	var mf MatchFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return MatchFile{}, fmt.Errorf("%w: %v", ErrInvalidMatchFile, err)
	}

	switch {
	case mf.EngineName == "":
		return MatchFile{}, fmt.Errorf("%w: engine_name is required", ErrInvalidMatchFile)
	case mf.OpponentName == "":
		return MatchFile{}, fmt.Errorf("%w: opponent_name is required", ErrInvalidMatchFile)
	case mf.TimeControl == "":
		return MatchFile{}, fmt.Errorf("%w: time_control is required", ErrInvalidMatchFile)
	case mf.Games < 0 || mf.Concurrency < 0:
		return MatchFile{}, fmt.Errorf("%w: games and concurrency must not be negative", ErrInvalidMatchFile)
	}

	if mf.Games == 0 {
		mf.Games = 1
	}
	if mf.Concurrency == 0 {
		mf.Concurrency = 1
	}
	return mf, nil
}
