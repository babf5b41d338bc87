package syntax

import (
	"fmt"
	"regexp"
)

// Config is the textual form of a Syntax, as found in configuration files
type Config struct {
	Blocks     []BlockConfig `yaml:"blocks"`
	Region     RegionConfig  `yaml:"region"`
	StripLines []string      `yaml:"strip_lines"`
	Cleanups   []string      `yaml:"cleanups"`
}

// BlockConfig describes one block pattern
type BlockConfig struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// RegionConfig describes the region marker. A nil IgnoreIDs selects
// DefaultIgnoreIDs; an empty list disables ignoring.
type RegionConfig struct {
	Marker    string   `yaml:"marker"`
	IgnoreIDs []string `yaml:"ignore_ids"`
}

// Compile builds a Syntax from cfg, filling unset parts with the defaults
func Compile(cfg Config) (*Syntax, error) {
	syn := &Syntax{}

	blocks := cfg.Blocks
	if len(blocks) == 0 {
		blocks = []BlockConfig{{Name: DefaultPatternName, Start: DefaultBlockStart, End: DefaultBlockEnd}}
	}
	seen := make(map[string]bool, len(blocks))
	for i, b := range blocks {
		name := b.Name
		if name == "" {
			name = fmt.Sprintf("pattern-%d", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("block pattern %q declared twice", name)
		}
		seen[name] = true

		p, err := NewBlockPattern(name, b.Start, b.End)
		if err != nil {
			return nil, err
		}
		syn.Blocks = append(syn.Blocks, p)
	}

	marker := cfg.Region.Marker
	if marker == "" {
		marker = DefaultRegionMarker
	}
	ignore := cfg.Region.IgnoreIDs
	if ignore == nil {
		ignore = DefaultIgnoreIDs
	}
	region, err := NewRegionPattern(marker, ignore)
	if err != nil {
		return nil, err
	}
	syn.Region = region

	if syn.Filters.StripLines, err = compileAll("strip_lines", cfg.StripLines); err != nil {
		return nil, err
	}
	if syn.Filters.Cleanups, err = compileAll("cleanups", cfg.Cleanups); err != nil {
		return nil, err
	}

	return syn, nil
}

func compileAll(field string, exprs []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", field, expr, err)
		}
		res = append(res, re)
	}
	return res, nil
}
