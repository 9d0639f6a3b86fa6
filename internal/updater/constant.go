package updater

import (
	"fmt"
	"regexp"
)

var identifier = regexp.MustCompile(`^\w+$`)

// Constant rewrites a `static const String <name> = '...'` literal with the
// semantic version and, when configured, a companion
// `static const int <buildName> = N;` with the build identifier.
type Constant struct {
	name      string
	buildName string
	version   *regexp.Regexp
}

// NewConstant returns a Constant updater. An empty name matches any
// constant whose name ends in "Version".
func NewConstant(name, buildName string) (*Constant, error) {
	ident := `\w*[Vv]ersion`
	if name != "" {
		if !identifier.MatchString(name) {
			return nil, fmt.Errorf("invalid constant name %q", name)
		}
		ident = regexp.QuoteMeta(name)
	}
	if buildName != "" && !identifier.MatchString(buildName) {
		return nil, fmt.Errorf("invalid build constant name %q", buildName)
	}
	return &Constant{
		name:      name,
		buildName: buildName,
		version:   regexp.MustCompile(`static\s+const\s+String\s+` + ident + `\s*=\s*(['"])([^'"\n]*)(['"])`),
	}, nil
}

func (*Constant) Name() string { return KindConstant }

// Match locates the quoted version literal, quotes excluded.
func (c *Constant) Match(content []byte) (Location, bool) {
	m := c.version.FindSubmatchIndex(content)
	if m == nil {
		return Location{}, false
	}
	return Location{Start: m[4], End: m[5]}, true
}

func (c *Constant) Render(content []byte, v Values) ([]byte, error) {
	loc, ok := c.Match(content)
	if !ok {
		return nil, fmt.Errorf("%w: version constant %s", ErrPatternNotFound, c.describe())
	}
	out := splice(content, loc, v.Semantic())

	if c.buildName == "" {
		return out, nil
	}
	re := c.buildPattern(v.Placeholder)
	m := re.FindSubmatchIndex(out)
	if m == nil {
		return nil, fmt.Errorf("%w: build constant %q", ErrPatternNotFound, c.buildName)
	}
	// Group 1 spans the value including any quotes around a placeholder.
	return splice(out, Location{Start: m[2], End: m[3]}, c.buildLiteral(v)), nil
}

// buildPattern matches an integer or the placeholder token, quoted or bare.
func (c *Constant) buildPattern(placeholder string) *regexp.Regexp {
	value := `\d+`
	if placeholder != "" {
		value = `\d+|` + regexp.QuoteMeta(placeholder)
	}
	return regexp.MustCompile(`static\s+const\s+int\s+` + regexp.QuoteMeta(c.buildName) +
		`\s*=\s*(['"]?(?:` + value + `)['"]?)\s*;`)
}

// buildLiteral is the numeric build ID, or the placeholder token for
// anything that cannot be an int literal.
func (c *Constant) buildLiteral(v Values) string {
	if b := v.Build(); isDigits(b) {
		return b
	}
	if v.Placeholder != "" {
		return v.Placeholder
	}
	return v.Build()
}

func (c *Constant) describe() string {
	if c.name == "" {
		return "matching *Version"
	}
	return fmt.Sprintf("%q", c.name)
}
