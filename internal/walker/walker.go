// Package walker lists the candidate files of a source or documentation tree.
package walker

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dshills/docsync/pkg/types"
)

// DefaultExcludes are skipped in every tree
var DefaultExcludes = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/target/**",
}

// Options controls which files a Walker returns. Patterns are doublestar
// globs matched against the slash-separated path relative to the root.
type Options struct {
	Include       []string `yaml:"include"`
	Exclude       []string `yaml:"exclude"`
	IncludeHidden bool     `yaml:"include_hidden"`
	UseGitignore  bool     `yaml:"use_gitignore"`
}

// DefaultOptions returns options that include every file and honour .gitignore
func DefaultOptions() Options {
	return Options{UseGitignore: true}
}

// Validate checks every pattern is a well-formed glob
func (o Options) Validate() error {
	for _, p := range append(append([]string{}, o.Include...), o.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// Walker lists files below a root
type Walker struct {
	opts Options
}

// New creates a Walker
func New(opts Options) *Walker {
	return &Walker{opts: opts}
}

// Files returns the sorted list of candidate files below root. A root that
// names a regular file yields only that file.
func (w *Walker) Files(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &types.IOError{Op: "stat", Path: root, Err: err}
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	excludes := append([]string{}, DefaultExcludes...)
	excludes = append(excludes, w.opts.Exclude...)
	if w.opts.UseGitignore {
		ignored, err := LoadGitignore(filepath.Join(root, ".gitignore"))
		if err != nil {
			return nil, err
		}
		excludes = append(excludes, ignored...)
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return &types.IOError{Op: "walk", Path: p, Err: err}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if !w.opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if matchDir(excludes, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if !w.opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if matchAny(excludes, rel) {
			return nil
		}
		if len(w.opts.Include) > 0 && !matchAny(w.opts.Include, rel) {
			return nil
		}

		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// matchDir reports whether a directory, and so everything below it, is excluded
func matchDir(patterns []string, rel string) bool {
	return matchAny(patterns, rel) || matchAny(patterns, rel+"/")
}

// LoadGitignore reads a .gitignore file and translates its rules to doublestar
// patterns. A missing file yields no patterns. Negated rules are not
// supported and are dropped.
func LoadGitignore(file string) ([]string, error) {
	f, err := os.Open(file)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &types.IOError{Op: "read", Path: file, Err: err}
	}
	defer func() { _ = f.Close() }()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, TranslateGitignore(scanner.Text())...)
	}
	if err := scanner.Err(); err != nil {
		return nil, &types.IOError{Op: "read", Path: file, Err: err}
	}
	return patterns, nil
}

// TranslateGitignore converts one .gitignore line into doublestar patterns
func TranslateGitignore(line string) []string {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return nil
	}

	line = strings.TrimSuffix(line, "/")
	anchored := strings.HasPrefix(line, "/") || strings.Contains(line, "/")
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return nil
	}
	if !anchored {
		line = "**/" + line
	}

	var out []string
	for _, p := range []string{line, path.Join(line, "**")} {
		if doublestar.ValidatePattern(p) {
			out = append(out, p)
		}
	}
	return out
}
