package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"github.com/indaco/versync/internal/core"
	"github.com/indaco/versync/internal/updater"
)

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	// Category is the validation category (e.g., "Targets", "Backups").
	Category string

	// Passed indicates if the check passed.
	Passed bool

	// Message provides details about the validation result.
	Message string

	// Warning indicates if this is a warning rather than an error.
	Warning bool
}

// Validator validates configuration settings.
type Validator struct {
	fs          core.FileSystem
	cfg         *Config
	kinds       *updater.Registry
	validations []ValidationResult
}

// NewValidator creates a new configuration validator.
func NewValidator(fs core.FileSystem, cfg *Config) *Validator {
	return &Validator{
		fs:    fs,
		cfg:   cfg,
		kinds: updater.NewRegistry(nil),
	}
}

// Validate runs all validation checks and returns the results.
func (v *Validator) Validate(ctx context.Context) []ValidationResult {
	v.validations = make([]ValidationResult, 0)

	v.validateManifest()
	v.validateTargets(ctx)
	v.validateSettings()

	return v.validations
}

func (v *Validator) addValidation(category string, passed bool, message string, warning bool) {
	v.validations = append(v.validations, ValidationResult{
		Category: category,
		Passed:   passed,
		Message:  message,
		Warning:  warning,
	})
}

func (v *Validator) validateManifest() {
	t := v.cfg.ManifestTarget()
	switch {
	case t == nil:
		v.addValidation("Manifest", false, fmt.Sprintf("no manifest target for %q", v.cfg.Manifest), false)
	case !t.Required:
		v.addValidation("Manifest", false, fmt.Sprintf("manifest target %q must be required", t.Name), false)
	default:
		v.addValidation("Manifest", true, fmt.Sprintf("canonical manifest is %q", t.Path), false)
	}
}

func (v *Validator) validateTargets(ctx context.Context) {
	names := make(map[string]bool)
	for i, t := range v.cfg.Targets {
		label := t.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			v.addValidation("Targets", false, fmt.Sprintf("target %s: name is required", label), false)
		}
		if names[t.Name] && t.Name != "" {
			v.addValidation("Targets", false, fmt.Sprintf("duplicate target name %q", t.Name), false)
		}
		names[t.Name] = true

		if t.Path == "" {
			v.addValidation("Targets", false, fmt.Sprintf("target %s: path is required", label), false)
			continue
		}
		if !v.kinds.Has(t.Kind) {
			v.addValidation("Targets", false,
				fmt.Sprintf("target %s: unknown kind %q (known: %s)", label, t.Kind, strings.Join(v.kinds.Kinds(), ", ")), false)
			continue
		}
		if t.Pattern != "" {
			v.validatePattern(label, t.Pattern)
		}
		if _, err := v.kinds.New(t.Kind, toUpdaterTarget(t)); err != nil {
			v.addValidation("Targets", false, fmt.Sprintf("target %s: %v", label, err), false)
		}

		if _, err := v.fs.Stat(ctx, v.cfg.Resolve(t.Path)); errors.Is(err, fs.ErrNotExist) {
			v.addValidation("Targets", true, fmt.Sprintf("target %s: %q does not exist yet", label, t.Path), true)
		}
	}
	v.addValidation("Targets", true, fmt.Sprintf("%d target(s) configured", len(v.cfg.Targets)), false)
}

func (v *Validator) validatePattern(label, pattern string) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		v.addValidation("Targets", false, fmt.Sprintf("target %s: invalid pattern: %v", label, err), false)
		return
	}
	if re.NumSubexp() < 1 {
		v.addValidation("Targets", false, fmt.Sprintf("target %s: pattern needs a capturing group", label), false)
	}
}

func (v *Validator) validateSettings() {
	if v.cfg.BackupRetention < 1 {
		v.addValidation("Backups", false, "backup_retention must be at least 1", false)
	}

	if d, err := v.cfg.LockTimeoutDuration(); err != nil {
		v.addValidation("Lock", false, err.Error(), false)
	} else if d <= 0 {
		v.addValidation("Lock", false, "lock_timeout must be positive", false)
	}

	p := v.cfg.Placeholder
	switch {
	case strings.TrimSpace(p) != p || strings.ContainsAny(p, " \t\n+'\""):
		v.addValidation("Placeholder", false, fmt.Sprintf("placeholder %q must be a single bare token", p), false)
	case regexp.MustCompile(`^\d+$`).MatchString(p):
		v.addValidation("Placeholder", false, fmt.Sprintf("placeholder %q must not be numeric", p), false)
	}
}

// UpdaterTarget converts t to the updater package's form with its path resolved.
func (c *Config) UpdaterTarget(t TargetFile) updater.Target {
	ut := toUpdaterTarget(t)
	ut.Path = c.Resolve(t.Path)
	return ut
}

func toUpdaterTarget(t TargetFile) updater.Target {
	return updater.Target{
		Path:          t.Path,
		Field:         t.Field,
		Pattern:       t.Pattern,
		Constant:      t.Constant,
		BuildConstant: t.BuildConstant,
	}
}

// HasErrors returns true if any validation failed.
func HasErrors(results []ValidationResult) bool {
	return ErrorCount(results) > 0
}

// ErrorCount returns the number of failed validations.
func ErrorCount(results []ValidationResult) int {
	count := 0
	for _, r := range results {
		if !r.Passed && !r.Warning {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warnings.
func WarningCount(results []ValidationResult) int {
	count := 0
	for _, r := range results {
		if r.Warning {
			count++
		}
	}
	return count
}
