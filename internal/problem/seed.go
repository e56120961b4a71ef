package problem

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedSet is the content of one seed file: problems authored by Owner.
type SeedSet struct {
	Path     string
	Owner    string
	Problems []NewProblem
}

type seedFile struct {
	Owner    string        `yaml:"owner"`
	Problems []seedProblem `yaml:"problems"`
}

type seedProblem struct {
	Topic   string   `yaml:"topic"`
	Tags    []string `yaml:"tags"`
	Prompt  string   `yaml:"prompt"`
	Content any      `yaml:"content"`
}

// LoadSeed reads every *.yaml / *.yml file under dir. Files that are not
// valid YAML or have no owner are skipped with a warning; a problem that
// fails validation fails the whole load.
func LoadSeed(dir string) ([]SeedSet, error) {
	var sets []SeedSet
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !(strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")) {
			return nil
		}

		set, ok, err := loadSeedFile(path)
		if err != nil {
			return err
		}
		if ok {
			sets = append(sets, set)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading seed: %w", err)
	}

	total := 0
	for _, s := range sets {
		total += len(s.Problems)
	}
	slog.Info("seed loaded", "files", len(sets), "problems", total)
	return sets, nil
}

func loadSeedFile(path string) (SeedSet, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedSet{}, false, err
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		slog.Warn("skipping invalid seed YAML", "path", path, "error", err)
		return SeedSet{}, false, nil
	}
	if f.Owner == "" {
		slog.Warn("skipping seed file without owner", "path", path)
		return SeedSet{}, false, nil
	}

	set := SeedSet{Path: path, Owner: f.Owner}
	for i, sp := range f.Problems {
		np, err := sp.toNewProblem()
		if err != nil {
			return SeedSet{}, false, fmt.Errorf("%s: problem %d: %w", path, i, err)
		}
		set.Problems = append(set.Problems, np)
	}
	return set, true, nil
}

func (sp seedProblem) toNewProblem() (NewProblem, error) {
	raw, err := json.Marshal(sp.Content)
	if err != nil {
		return NewProblem{}, fmt.Errorf("encode content: %w", err)
	}
	content, err := DecodeContent(raw)
	if err != nil {
		return NewProblem{}, err
	}

	np := NewProblem{
		Topic:   Topic(sp.Topic),
		Tags:    sp.Tags,
		Prompt:  sp.Prompt,
		Content: content,
	}
	if err := ValidateNew(np); err != nil {
		return NewProblem{}, err
	}
	return np, nil
}
