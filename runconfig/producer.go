package runconfig

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/LegacyCodeHQ/testscope/blaze"
	"github.com/LegacyCodeHQ/testscope/internal/devlog"
	"github.com/LegacyCodeHQ/testscope/pytest"
)

// ErrNotTestContext is returned when a context designates no runnable test.
var ErrNotTestContext = errors.New("selection is not inside a runnable Python test")

// TargetFinder maps a source file to the test target that runs it.
type TargetFinder interface {
	TestTargetForSource(file string) (blaze.Target, bool, error)
}

// Context is a cursor position inside a source file. Line and Column are
// 1-based; Column 0 selects the first non-blank character of the line.
type Context struct {
	File   string
	Source []byte
	Line   int
	Column int
}

// Selection is what a Context resolves to.
type Selection struct {
	Target   blaze.Target
	Location pytest.TestLocation
	Element  pytest.Element
}

// Filter returns the selection's test filter.
func (s *Selection) Filter() (string, bool) {
	return s.Location.TestFilter()
}

// Producer creates run configurations from contexts and recognizes
// configurations it would have created.
type Producer struct {
	targets     TargetFinder
	buildSystem string
	log         devlog.Logger
}

// Option configures a Producer.
type Option func(*Producer)

// WithBuildSystem sets the build tool name used in configuration names.
func WithBuildSystem(name string) Option {
	return func(p *Producer) {
		p.buildSystem = name
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log devlog.Logger) Option {
	return func(p *Producer) {
		p.log = log
	}
}

// NewProducer returns a Producer resolving targets through targets.
func NewProducer(targets TargetFinder, opts ...Option) *Producer {
	p := &Producer{
		targets:     targets,
		buildSystem: DefaultBuildSystem,
		log:         devlog.Nop{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Select resolves c without touching any configuration. It reports false
// when c is not a Python test file or no test target owns the file.
func (p *Producer) Select(ctx context.Context, c Context) (*Selection, bool, error) {
	return p.selectContext(ctx, c, true)
}

func (p *Producer) selectContext(ctx context.Context, c Context, requireTestFile bool) (*Selection, bool, error) {
	if filepath.Ext(c.File) != ".py" {
		return nil, false, nil
	}

	f, err := pytest.Parse(ctx, c.Source)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()
	f.Path = c.File

	if requireTestFile && !pytest.IsTestFile(c.File, f) {
		p.log.Debug("not a test file", map[string]any{"file": c.File})
		return nil, false, nil
	}

	target, ok, err := p.targets.TestTargetForSource(c.File)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find test target for %s: %w", c.File, err)
	}
	if !ok {
		p.log.Debug("no test target", map[string]any{"file": c.File})
		return nil, false, nil
	}

	loc, err := f.LocationAt(c.Line, c.Column)
	if err != nil {
		return nil, false, err
	}
	testLocation := pytest.Resolve(f, loc)

	return &Selection{
		Target:   target,
		Location: testLocation,
		Element:  testLocation.SourceElement(f),
	}, true, nil
}

// SetupFromContext points cfg at the test selected by c. Existing test
// filter flags are replaced; other flags are kept. It reports false, leaving
// cfg untouched, when c is not a test context.
func (p *Producer) SetupFromContext(ctx context.Context, cfg *Configuration, c Context) (*Selection, bool, error) {
	sel, ok, err := p.Select(ctx, c)
	if err != nil || !ok {
		return nil, false, err
	}

	target := sel.Target.Label.String()
	cfg.Target = target
	cfg.Command = CommandTest

	flags := blaze.StripTestFilter(cfg.Flags)
	name := nameBuilder{buildSystem: p.buildSystem, command: CommandTest}
	if filter, ok := sel.Filter(); ok {
		flags = append(flags, blaze.FormatTestFilter(filter))
		name = name.withFilter(filter, target)
	} else {
		name = name.withTarget(target)
	}
	cfg.Flags = flags
	cfg.Name = name.build()
	cfg.NameChangedByUser = true

	p.log.Info("configured test", map[string]any{
		"file":    c.File,
		"line":    c.Line,
		"target":  target,
		"element": string(sel.Element.Kind),
		"name":    cfg.Name,
	})
	return sel, true, nil
}

// IsConfigFromContext reports whether cfg already runs exactly what c
// selects: same target and byte-identical test filter flag, or neither
// side filtering.
func (p *Producer) IsConfigFromContext(ctx context.Context, cfg *Configuration, c Context) (bool, error) {
	if cfg.Command != CommandTest {
		return false, nil
	}

	sel, ok, err := p.selectContext(ctx, c, false)
	if err != nil || !ok {
		return false, err
	}
	if sel.Target.Label.String() != cfg.Target {
		return false, nil
	}

	filter, hasFilter := sel.Filter()
	flag, hasFlag := cfg.TestFilterFlag()
	if !hasFilter && !hasFlag {
		return true, nil
	}
	return hasFilter && hasFlag && flag == blaze.FormatTestFilter(filter), nil
}

// Ensure returns the stored configuration matching c, or sets up a new one
// from defaults, stores it and saves the store. The boolean reports whether
// the configuration was created.
func (p *Producer) Ensure(ctx context.Context, store *Store, c Context, defaults []string) (*Configuration, bool, error) {
	for _, existing := range store.Configurations() {
		matches, err := p.IsConfigFromContext(ctx, existing, c)
		if err != nil {
			return nil, false, err
		}
		if matches {
			p.log.Debug("reusing configuration", map[string]any{"name": existing.Name})
			return existing, false, nil
		}
	}

	cfg := &Configuration{Flags: append([]string(nil), defaults...)}
	_, ok, err := p.SetupFromContext(ctx, cfg, c)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, ErrNotTestContext
	}

	store.Add(cfg)
	if err := store.Save(); err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}
