package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/questsim/types"
	"gopkg.in/yaml.v3"
)

// YAMLSource serves adventures stored as one YAML document per adventure:
// <Dir>/<id>.yaml (or .yml) with id, title, scenes and guide keys.
type YAMLSource struct {
	Dir string
}

// Load reads and normalizes one adventure file.
func (y YAMLSource) Load(adventureID string) (Adventure, error) {
	path, err := y.path(adventureID)
	if err != nil {
		return Adventure{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Adventure{}, fmt.Errorf("read adventure %s: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Adventure{}, fmt.Errorf("parse adventure %s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	adv, err := NormalizeAdventure(raw)
	if err != nil {
		return Adventure{}, fmt.Errorf("normalize adventure %s: %w", path, err)
	}
	if adv.ID == "" {
		adv.ID = adventureID
	}
	return adv, nil
}

// FetchScenes implements Source.
func (y YAMLSource) FetchScenes(ctx context.Context, adventureID string) ([]types.Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	adv, err := y.Load(adventureID)
	if err != nil {
		return nil, err
	}
	return adv.Scenes, nil
}

// FetchGuide implements Source.
func (y YAMLSource) FetchGuide(ctx context.Context, adventureID string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	adv, err := y.Load(adventureID)
	if err != nil {
		return nil, err
	}
	return adv.Guide, nil
}

// List returns the adventure ids found in Dir, sorted.
func (y YAMLSource) List() ([]string, error) {
	entries, err := os.ReadDir(y.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading adventure directory %s: %w", y.Dir, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == ".yaml" || ext == ".yml" {
			ids = append(ids, strings.TrimSuffix(name, ext))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (y YAMLSource) path(adventureID string) (string, error) {
	if adventureID == "" || strings.ContainsAny(adventureID, `/\`) {
		return "", fmt.Errorf("invalid adventure id %q", adventureID)
	}
	for _, ext := range []string{".yaml", ".yml"} {
		p := filepath.Join(y.Dir, adventureID+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrAdventureNotFound, adventureID, y.Dir)
}
