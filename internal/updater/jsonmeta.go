package updater

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/indaco/versync/internal/gitinfo"
	"github.com/indaco/versync/internal/semver"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// JSON metadata keys.
const (
	keyVersion     = "version"
	keyBuildNumber = "build_number"
	keyBuildDate   = "build_date"
	keyGitCommit   = "git_commit"
)

// JSONMetadata rewrites the existing version, build_number, build_date and
// git_commit values of a build metadata document in place. git_commit is
// only touched when lookup yields a hash.
type JSONMetadata struct {
	dir    string
	lookup gitinfo.Lookup
}

// NewJSONMetadata returns a JSONMetadata updater for the file at path.
func NewJSONMetadata(path string, lookup gitinfo.Lookup) *JSONMetadata {
	return &JSONMetadata{dir: filepath.Dir(path), lookup: lookup}
}

func (*JSONMetadata) Name() string { return KindJSONMetadata }

func (*JSONMetadata) Match(content []byte) (Location, bool) {
	return matchJSONString(content, keyVersion)
}

func (j *JSONMetadata) Render(content []byte, v Values) ([]byte, error) {
	if !gjson.ValidBytes(content) {
		return nil, fmt.Errorf("invalid JSON document")
	}
	if _, ok := j.Match(content); !ok {
		return nil, fmt.Errorf("%w: %q key", ErrPatternNotFound, keyVersion)
	}

	out, err := sjson.SetBytes(content, keyVersion, v.Semantic())
	if err != nil {
		return nil, err
	}

	if res := gjson.GetBytes(out, keyBuildNumber); res.Exists() {
		if isDigits(v.Build()) && (res.Type == gjson.Number || isPlaceholder(res, v.Placeholder)) {
			out, err = sjson.SetRawBytes(out, keyBuildNumber, []byte(v.Build()))
		} else {
			out, err = sjson.SetBytes(out, keyBuildNumber, v.Build())
		}
		if err != nil {
			return nil, err
		}
	}

	if gjson.GetBytes(out, keyBuildDate).Exists() {
		if out, err = sjson.SetBytes(out, keyBuildDate, v.Date.Format(time.RFC3339)); err != nil {
			return nil, err
		}
	}

	if gjson.GetBytes(out, keyGitCommit).Exists() && j.lookup != nil {
		if hash, herr := j.lookup(j.dir); herr == nil && hash != "" {
			if out, err = sjson.SetBytes(out, keyGitCommit, hash); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// isPlaceholder reports whether res is the quoted placeholder left by prepare.
func isPlaceholder(res gjson.Result, placeholder string) bool {
	if placeholder == "" {
		placeholder = semver.DefaultPlaceholder
	}
	return res.Type == gjson.String && res.Str == placeholder
}

// matchJSONString locates the raw string value of a top-level key.
func matchJSONString(content []byte, key string) (Location, bool) {
	res := gjson.GetBytes(content, key)
	if !res.Exists() || res.Type != gjson.String {
		return Location{}, false
	}
	return Location{Start: res.Index, End: res.Index + len(res.Raw)}, true
}
