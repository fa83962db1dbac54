// Package probe answers player questions by looking for the information in
// the adventure's presentation surface. ContentProbe stands in for that
// surface by searching the fetched content directly.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nathoo/questsim/engine/rules"
	"github.com/nathoo/questsim/types"
)

// DefaultStrategyTimeout bounds each lookup strategy.
const DefaultStrategyTimeout = 250 * time.Millisecond

// Result is the outcome of one lookup.
type Result struct {
	Found        bool
	FoundIn      string
	SearchPath   []string
	Interactions int
}

// Probe is the bridge to wherever players would find information. It is
// treated as opaque, fallible and possibly slow.
type Probe interface {
	Lookup(ctx context.Context, q types.PlayerQuestion) (Result, error)
	CaptureDiagnostic(ctx context.Context, label string) (string, error)
}

// Attacher is implemented by probes that index the run's content once it
// has been fetched.
type Attacher interface {
	Attach(scenes []types.Scene, flags rules.FlagChecker)
}

// Strategy is one named way of finding an answer. It returns where the
// answer was found.
type Strategy struct {
	Name string
	Find func(ctx context.Context, ix *Index, q types.PlayerQuestion) (string, bool)
}

// DefaultStrategies are tried in order: the scene's NPC list, the
// conversation guide, the scene text, then every other scene.
var DefaultStrategies = []Strategy{
	{Name: "scene_npcs", Find: findInSceneNPCs},
	{Name: "conversation_guide", Find: findInConversation},
	{Name: "scene_text", Find: findInSceneText},
	{Name: "global_search", Find: findGlobally},
}

// Options configures a ContentProbe.
type Options struct {
	// Timeout bounds each strategy; zero uses DefaultStrategyTimeout.
	Timeout time.Duration
	// ArtifactDir receives diagnostic captures. Empty disables writing;
	// CaptureDiagnostic then returns an empty path.
	ArtifactDir string
	// Strategies overrides DefaultStrategies.
	Strategies []Strategy
}

// ContentProbe implements Probe over normalized scenes.
type ContentProbe struct {
	opts Options

	mu       sync.Mutex
	ix       *Index
	last     *lookupRecord
	captures int
}

type lookupRecord struct {
	Question types.PlayerQuestion `json:"question"`
	Result   Result               `json:"result"`
	At       time.Time            `json:"at"`
}

// NewContentProbe returns a probe with no content attached.
func NewContentProbe(opts Options) *ContentProbe {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultStrategyTimeout
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = DefaultStrategies
	}
	return &ContentProbe{opts: opts, ix: NewIndex(nil, nil)}
}

// Attach indexes the scenes. flags gates conversation topics; nil means no
// flags are set.
func (p *ContentProbe) Attach(scenes []types.Scene, flags rules.FlagChecker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ix = NewIndex(scenes, flags)
}

// Lookup runs each strategy under its own timeout until one finds an
// answer. A strategy that times out is recorded in the search path and
// the next one is tried. The only error is a cancelled parent context.
func (p *ContentProbe) Lookup(ctx context.Context, q types.PlayerQuestion) (Result, error) {
	p.mu.Lock()
	ix := p.ix
	p.mu.Unlock()

	var res Result
	for _, s := range p.opts.Strategies {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Interactions++
		where, ok, err := runStrategy(ctx, p.opts.Timeout, s, ix, q)
		if err != nil {
			res.SearchPath = append(res.SearchPath, s.Name+" (timeout)")
			continue
		}
		res.SearchPath = append(res.SearchPath, s.Name)
		if ok {
			res.Found = true
			res.FoundIn = where
			break
		}
	}

	p.mu.Lock()
	p.last = &lookupRecord{Question: q, Result: res, At: time.Now()}
	p.mu.Unlock()
	return res, nil
}

func runStrategy(ctx context.Context, timeout time.Duration, s Strategy, ix *Index, q types.PlayerQuestion) (string, bool, error) {
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type answer struct {
		where string
		ok    bool
	}
	done := make(chan answer, 1)
	go func() {
		where, ok := s.Find(sctx, ix, q)
		done <- answer{where, ok}
	}()

	select {
	case a := <-done:
		return a.where, a.ok, nil
	case <-sctx.Done():
		return "", false, sctx.Err()
	}
}

// CaptureDiagnostic writes the most recent lookup to a JSON file in the
// artifact directory and returns its path.
func (p *ContentProbe) CaptureDiagnostic(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.opts.ArtifactDir == "" {
		return "", nil
	}

	p.mu.Lock()
	p.captures++
	n := p.captures
	last := p.last
	p.mu.Unlock()

	if err := os.MkdirAll(p.opts.ArtifactDir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	doc := struct {
		Label  string        `json:"label"`
		Lookup *lookupRecord `json:"lookup,omitempty"`
	}{Label: label, Lookup: last}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diagnostic: %w", err)
	}

	path := filepath.Join(p.opts.ArtifactDir, fmt.Sprintf("%03d-%s.json", n, slug(label)))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write diagnostic: %w", err)
	}
	return path, nil
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if len(out) > 60 {
		out = out[:60]
	}
	if out == "" {
		out = "capture"
	}
	return out
}
