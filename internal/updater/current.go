package updater

import (
	"regexp"

	"github.com/indaco/versync/internal/parser"
	"github.com/tidwall/gjson"
)

// Reporter is implemented by updaters that can read back the version a
// file currently carries.
type Reporter interface {
	Current(content []byte) (string, bool)
}

var (
	manifestValue = regexp.MustCompile(`(?m)^version:[ \t]*['"]?([^\s'"#]+)`)
	latestEntry   = regexp.MustCompile(`(?m)^## \[([^\]\n]+)\] - \d{4}-\d{2}-\d{2}`)
)

// Current reads the version from content with u, if u supports it.
func Current(u Updater, content []byte) (string, bool) {
	r, ok := u.(Reporter)
	if !ok {
		return "", false
	}
	return r.Current(content)
}

func (*Manifest) Current(content []byte) (string, bool) {
	return firstGroup(manifestValue, content)
}

func (c *Constant) Current(content []byte) (string, bool) {
	loc, ok := c.Match(content)
	if !ok {
		return "", false
	}
	return string(content[loc.Start:loc.End]), true
}

func (b *Badge) Current(content []byte) (string, bool) {
	loc, ok := b.Match(content)
	if !ok {
		return "", false
	}
	return string(content[loc.Start:loc.End]), true
}

func (*PackageJSON) Current(content []byte) (string, bool) {
	return jsonString(content, keyVersion)
}

func (*JSONMetadata) Current(content []byte) (string, bool) {
	return jsonString(content, keyVersion)
}

func (f *Field) Current(content []byte) (string, bool) {
	v, err := parser.Extract(content, f.spec)
	if err != nil {
		return "", false
	}
	return v, true
}

// Current returns the version of the most recent dated entry.
func (*Changelog) Current(content []byte) (string, bool) {
	return firstGroup(latestEntry, content)
}

func firstGroup(re *regexp.Regexp, content []byte) (string, bool) {
	m := re.FindSubmatch(content)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}

func jsonString(content []byte, key string) (string, bool) {
	res := gjson.GetBytes(content, key)
	if res.Type != gjson.String {
		return "", false
	}
	return res.Str, true
}
