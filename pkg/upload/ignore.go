package upload

import (
	"fmt"

	"github.com/gobwas/glob"
)

// IgnoreListVersion changes whenever DefaultIgnorePatterns does. What can ever
// be uploaded depends on this list, so treat edits as a contract change.
const IgnoreListVersion = 1

// DefaultIgnorePatterns covers build output, VCS internals, secrets and
// binary assets. Matching is fnmatch-like: '*' crosses '/'.
var DefaultIgnorePatterns = []string{
	"*/.terraform/*", ".terraform",
	"*/.terragrunt-cache/*", ".terragrunt-cache",
	"*.tfstate", "*.tfstate*",
	"*/.tfsec/*", ".tfsec",
	".vmc-makefile", "*/.centralized-makefile",
	"Pipfile", "*/Pipfile", "Pipfile.lock", "*/Pipfile.lock",
	".test-plans", "*/.test-plans", ".cache", "*/.cache",
	"*.pyc", "*/*.pyc", "*.pyo", "*/*.pyo", "*.zip", "*/*.zip",
	"__pycache__", "*/__pycache__", ".tox", "*/.tox",
	"*.egg-info", "*/*.egg-info", ".coverage", "*/.coverage",
	".pytest_cache", "*/.pytest_cache", "nosetests.xml", "*/nosetests.xml",
	"coverage.xml", "*/coverage.xml", "htmlcov/", "*/htmlcov/",
	"report.xml", "*/report.xml", "build/*", "*/build/*", "dist/*",
	"*/dist/*", "test-generated*.yml", "*/test-generated*.yml",
	".DS_Store", "._.DS_Store", ".librarian", ".idea", ".vscode",
	".history", "*swp", ".envrc", ".direnv", ".editorconfig",
	".external_modules", "modules/*", ".terraform.lock.hcl", "*.png",
	"*.jpg", "*.jpeg", "*.bmp", ".test-data", "*.plan", "*plan.out",
	"*plan.summary", "*/.git/hooks", "*/.git/info", "*/.git/logs",
	"*/.git/objects", "*/.git/refs", "*/.gitignore", "*/.git-credentials",
	"*/manifest.json", ".checkov.yaml", "*/saml/*",
}

type rule struct {
	pattern string
	matcher glob.Glob
}

// RuleSet is an ordered, immutable set of ignore patterns.
type RuleSet struct {
	rules []rule
}

// NewRuleSet compiles patterns. No separators are declared, so '*' and '?'
// match '/' as well.
func NewRuleSet(patterns []string) (*RuleSet, error) {
	rs := &RuleSet{rules: make([]rule, 0, len(patterns))}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		rs.rules = append(rs.rules, rule{pattern: p, matcher: g})
	}
	return rs, nil
}

// MustRuleSet is NewRuleSet for pattern lists known at compile time.
func MustRuleSet(patterns []string) *RuleSet {
	rs, err := NewRuleSet(patterns)
	if err != nil {
		panic(err)
	}
	return rs
}

var defaultRules = MustRuleSet(DefaultIgnorePatterns)

// DefaultRules returns the compiled DefaultIgnorePatterns.
func DefaultRules() *RuleSet {
	return defaultRules
}

// IsIgnored reports whether any pattern matches path exactly as given. The
// path is not cleaned, case-folded or made relative.
func (rs *RuleSet) IsIgnored(path string) bool {
	_, ok := rs.Match(path)
	return ok
}

// Match returns the first pattern that matches path.
func (rs *RuleSet) Match(path string) (string, bool) {
	for _, r := range rs.rules {
		if r.matcher.Match(path) {
			return r.pattern, true
		}
	}
	return "", false
}

// Patterns returns a copy of the source patterns in order.
func (rs *RuleSet) Patterns() []string {
	out := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = r.pattern
	}
	return out
}

// Len is the number of patterns.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}
