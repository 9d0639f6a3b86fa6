package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestReplace_JSONKeepsLayout(t *testing.T) {
	in := "{\n  \"name\": \"app\",\n  \"version\": \"1.0.0\",\n  \"private\": true\n}\n"
	got, err := Replace([]byte(in), Spec{Format: FormatJSON, Field: "version"}, "1.1.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "{\n  \"name\": \"app\",\n  \"version\": \"1.1.0\",\n  \"private\": true\n}\n"
	if string(got) != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestReplace_JSONMissingField(t *testing.T) {
	_, err := Replace([]byte(`{"name": "app"}`), Spec{Format: FormatJSON, Field: "version"}, "1.1.0")
	if !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("expected ErrFieldNotFound, got %v", err)
	}
}

func TestReplace_YAMLKeepsComments(t *testing.T) {
	in := "name: app\n# bumped by release tooling\nversion: 1.0.0\ndescription: demo\n"
	spec := Spec{Format: FormatYAML, Field: "version"}

	got, err := Replace([]byte(in), spec, "1.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, err := Extract(got, spec); err != nil || v != "1.0.1" {
		t.Errorf("Extract after Replace = %q, %v", v, err)
	}
	if !strings.Contains(string(got), "# bumped by release tooling") {
		t.Errorf("comment lost:\n%s", got)
	}
	if !strings.Contains(string(got), "description: demo") {
		t.Errorf("sibling key lost:\n%s", got)
	}
}

func TestReplace_YAMLNested(t *testing.T) {
	in := "app:\n  name: demo\n  version: 2.0.0\n"
	spec := Spec{Format: FormatYAML, Field: "app.version"}

	got, err := Replace([]byte(in), spec, "2.1.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := Extract(got, spec); v != "2.1.0" {
		t.Errorf("nested value = %q, want 2.1.0", v)
	}
}

func TestReplace_YAMLMissingField(t *testing.T) {
	_, err := Replace([]byte("name: app\n"), Spec{Format: FormatYAML, Field: "version"}, "1.0.0")
	if !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("expected ErrFieldNotFound, got %v", err)
	}
}

func TestReplace_TOML(t *testing.T) {
	in := "[package]\nname = \"app\"\nversion = \"0.4.1\"\n"
	spec := Spec{Format: FormatTOML, Field: "package.version"}

	got, err := Replace([]byte(in), spec, "0.5.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := Extract(got, spec); v != "0.5.0" {
		t.Errorf("version = %q, want 0.5.0", v)
	}
	if name, _ := Extract(got, Spec{Format: FormatTOML, Field: "package.name"}); name != "app" {
		t.Errorf("name = %q, want app", name)
	}
}

func TestReplace_Regex(t *testing.T) {
	tests := []struct {
		name    string
		content string
		pattern string
		want    string
		wantErr bool
	}{
		{
			name:    "group only",
			content: "static const String appVersion = '1.0.0';\n",
			pattern: `appVersion = '([^']+)'`,
			want:    "static const String appVersion = '1.2.0';\n",
		},
		{
			name:    "every match",
			content: "a = \"1.0.0\"\nb = \"1.0.0\"\n",
			pattern: `= "([^"]+)"`,
			want:    "a = \"1.2.0\"\nb = \"1.2.0\"\n",
		},
		{
			name:    "group value also appears earlier in match",
			content: "v1.0.0 = 1.0.0\n",
			pattern: `v1\.0\.0 = (\S+)`,
			want:    "v1.0.0 = 1.2.0\n",
		},
		{
			name:    "no match",
			content: "nothing here\n",
			pattern: `version = "([^"]+)"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Replace([]byte(tt.content), Spec{Format: FormatRegex, Pattern: tt.pattern}, "1.2.0")
			if tt.wantErr {
				if !errors.Is(err, ErrNoMatch) {
					t.Errorf("expected ErrNoMatch, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReplace_Raw(t *testing.T) {
	got, err := Replace([]byte("1.0.0\n"), Spec{Format: FormatRaw}, "1.0.1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "1.0.1\n" {
		t.Errorf("got %q", got)
	}
}

func TestFormatForFile(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"package.json", FormatJSON},
		{"app/build_info.json", FormatJSON},
		{"pubspec.yaml", FormatYAML},
		{"Chart.yml", FormatYAML},
		{"Cargo.toml", FormatTOML},
		{"VERSION", FormatRaw},
		{"lib/version.dart", FormatRaw},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := FormatForFile(tt.path); got != tt.want {
				t.Errorf("FormatForFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestFieldForFile(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"package.json", "version"},
		{"rust/Cargo.toml", "package.version"},
		{"pyproject.toml", "project.version"},
		{"pubspec.yaml", "version"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := FieldForFile(tt.path); got != tt.want {
				t.Errorf("FieldForFile(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
