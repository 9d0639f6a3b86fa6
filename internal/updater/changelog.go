package updater

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/indaco/versync/internal/semver"
)

const (
	// DateLayout is the date format of changelog entry headings.
	DateLayout = "2006-01-02"

	// titleOffset is how many lines after the title a first entry goes.
	titleOffset = 3
)

var (
	datedHeading = regexp.MustCompile(`(?m)^## \[[^\]\n]+\] - \d{4}-\d{2}-\d{2}`)
	titleLine    = regexp.MustCompile(`(?m)^# [^\n]*$`)
)

// sections maps each bump kind to the category its entry opens with.
var sections = map[semver.BumpKind]string{
	semver.BumpMajor: "Breaking Changes",
	semver.BumpMinor: "Added",
	semver.BumpPatch: "Fixed",
	semver.BumpBuild: "Technical",
}

// Changelog inserts a new dated entry above the most recent one.
type Changelog struct{}

// NewChangelog returns a Changelog updater.
func NewChangelog() *Changelog { return &Changelog{} }

func (*Changelog) Name() string { return KindChangelog }

// Match returns the insertion point: the first dated heading, else the
// line titleOffset lines below the title, else the start of the file.
func (*Changelog) Match(content []byte) (Location, bool) {
	if loc := datedHeading.FindIndex(content); loc != nil {
		return Location{Start: loc[0], End: loc[0]}, true
	}
	if loc := titleLine.FindIndex(content); loc != nil {
		if at, ok := lineStart(content, loc[0], titleOffset); ok {
			return Location{Start: at, End: at}, true
		}
	}
	return Location{}, true
}

// Render adds an entry for v. When the semantic version already has an
// entry, only a build increment changes the file: it adds a Technical
// section naming the build, once per build.
func (c *Changelog) Render(content []byte, v Values) ([]byte, error) {
	existing := regexp.MustCompile(`(?m)^## \[` + regexp.QuoteMeta(v.Semantic()) + `\][^\n]*(?:\n|\z)`)
	heading := existing.FindIndex(content)
	if heading == nil {
		loc, _ := c.Match(content)
		return splice(content, loc, entry(v)), nil
	}

	if v.Bump != semver.BumpBuild || v.Version.Build.Kind(v.Placeholder) != semver.BuildTimestamp {
		return content, nil
	}
	line := "- Build " + v.Build()
	if bytes.Contains(content, []byte(line+"\n")) {
		return content, nil
	}

	at := heading[1]
	prefix := ""
	switch {
	case at == len(content) && !bytes.HasSuffix(content, []byte("\n")):
		prefix = "\n\n"
	case at == len(content):
		prefix = "\n"
	case content[at] == '\n':
		at++
	}
	section := fmt.Sprintf("%s### %s\n\n%s\n\n", prefix, sections[semver.BumpBuild], line)
	return splice(content, Location{Start: at, End: at}, section), nil
}

func entry(v Values) string {
	section, ok := sections[v.Bump]
	if !ok {
		section = sections[semver.BumpPatch]
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "## [%s] - %s\n\n", v.Semantic(), v.Date.Format(DateLayout))
	fmt.Fprintf(&b, "### %s\n\n", section)
	fmt.Fprintf(&b, "- Version %s\n\n", v.Semantic())
	return b.String()
}

// lineStart returns the offset of the line n lines after the line starting
// at from. It fails when the content has fewer lines.
func lineStart(content []byte, from, n int) (int, bool) {
	at := from
	for i := 0; i < n; i++ {
		nl := bytes.IndexByte(content[at:], '\n')
		if nl < 0 {
			return 0, false
		}
		at += nl + 1
	}
	if at > len(content) {
		return 0, false
	}
	return at, true
}
