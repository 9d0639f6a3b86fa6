// Package operations coordinates version reads and multi-file version
// updates: it computes the next version, drives every target file through
// the locked update pipeline, and reports the aggregate result.
package operations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/indaco/versync/internal/atomicfile"
	"github.com/indaco/versync/internal/backup"
	"github.com/indaco/versync/internal/config"
	"github.com/indaco/versync/internal/core"
	"github.com/indaco/versync/internal/discovery"
	"github.com/indaco/versync/internal/gitinfo"
	"github.com/indaco/versync/internal/lock"
	"github.com/indaco/versync/internal/logging"
	"github.com/indaco/versync/internal/parser"
	"github.com/indaco/versync/internal/semver"
	"github.com/indaco/versync/internal/textenc"
	"github.com/indaco/versync/internal/updater"
)

// manifestVersion addresses the value of the top-level version key,
// optionally quoted, ignoring a trailing comment.
var manifestVersion = parser.Spec{
	Format:  parser.FormatRegex,
	Pattern: `(?m)^version:[ \t]*['"]?([^\s'"#]+)`,
}

// Command is one of the closed set of orchestrator commands.
type Command interface {
	Name() string
	isCommand()
}

type (
	// GetCmd reads the full version.
	GetCmd struct{}
	// GetSemanticCmd reads MAJOR.MINOR.PATCH.
	GetSemanticCmd struct{}
	// GetBuildCmd reads the build identifier.
	GetBuildCmd struct{}
	// InfoCmd reads the version and the state of every target.
	InfoCmd struct{}
	// ValidateCmd checks the manifest's version format.
	ValidateCmd struct{}
	// IncrementCmd bumps the version with an immediate build ID.
	IncrementCmd struct{ Kind semver.BumpKind }
	// PrepareCmd bumps the version with the build placeholder.
	PrepareCmd struct{ Kind semver.BumpKind }
	// SetCmd sets an exact semantic version with an immediate build ID.
	SetCmd struct{ Version semver.SemVersion }
)

func (GetCmd) Name() string         { return "get" }
func (GetSemanticCmd) Name() string { return "get-semantic" }
func (GetBuildCmd) Name() string    { return "get-build" }
func (InfoCmd) Name() string        { return "info" }
func (ValidateCmd) Name() string    { return "validate" }
func (IncrementCmd) Name() string   { return "increment" }
func (PrepareCmd) Name() string     { return "prepare" }
func (SetCmd) Name() string         { return "set" }

func (GetCmd) isCommand()         {}
func (GetSemanticCmd) isCommand() {}
func (GetBuildCmd) isCommand()    {}
func (InfoCmd) isCommand()        {}
func (ValidateCmd) isCommand()    {}
func (IncrementCmd) isCommand()   {}
func (PrepareCmd) isCommand()     {}
func (SetCmd) isCommand()         {}

// TargetStatus describes a target file for the info command.
type TargetStatus struct {
	Name     string
	Path     string
	Kind     string
	Required bool
	Exists   bool

	// Version is what the file currently carries, when its kind can tell.
	Version string
	// Drift is set when Version differs from the manifest.
	Drift bool
}

// Report is the result of one command.
type Report struct {
	TxnID    string
	Command  string
	Previous semver.FullVersion
	Current  semver.FullVersion

	Targets []TargetStatus
	// Versions groups the targets by semantic version; info only sets it
	// when they disagree.
	Versions  []discovery.VersionSummary
	Updated   []string
	Unchanged []string
	Skipped   []string
	Warnings  []string
	Failures  []*FileError
	Backups   []*backup.Record

	auditErr error
}

// Err aggregates the failures that make the command fail: required file
// failures and a failed placeholder audit. Optional file failures are
// reported but not fatal.
func (r *Report) Err() error {
	var errs []error
	for _, f := range r.Failures {
		if f.Required {
			errs = append(errs, f)
		}
	}
	if r.auditErr != nil {
		errs = append(errs, r.auditErr)
	}
	return errors.Join(errs...)
}

// Orchestrator executes commands against the configured target files.
type Orchestrator struct {
	cfg    *config.Config
	fs     core.FileSystem
	locks  *lock.Manager
	lookup gitinfo.Lookup
	now    func() time.Time
	log    *logging.Logger
	files  *FileUpdater

	placeholder string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFileSystem sets the filesystem used for reads.
func WithFileSystem(fs core.FileSystem) Option {
	return func(o *Orchestrator) { o.fs = fs }
}

// WithLockManager sets the lock manager.
func WithLockManager(m *lock.Manager) Option {
	return func(o *Orchestrator) { o.locks = m }
}

// WithGitLookup sets how commit hashes are resolved for JSON metadata.
func WithGitLookup(l gitinfo.Lookup) Option {
	return func(o *Orchestrator) { o.lookup = l }
}

// WithClock overrides the time source for build IDs and dates.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.log = logging.OrNop(l) }
}

// NewOrchestrator returns an Orchestrator for cfg.
func NewOrchestrator(cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		cfg:         cfg,
		fs:          core.NewOSFileSystem(),
		lookup:      gitinfo.Default,
		now:         time.Now,
		log:         logging.Nop(),
		placeholder: cfg.Placeholder,
	}
	if o.placeholder == "" {
		o.placeholder = semver.DefaultPlaceholder
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.locks == nil {
		o.locks = lock.NewManager(lock.WithLogger(o.log))
	}

	timeout, err := cfg.LockTimeoutDuration()
	if err != nil {
		return nil, err
	}

	store := backup.NewStore(backup.WithChecksum(cfg.ShouldVerifyChecksum()), backup.WithLogger(o.log))
	o.files = &FileUpdater{
		cfg:   cfg,
		fs:    o.fs,
		locks: o.locks,
		replacer: atomicfile.NewReplacer(store,
			atomicfile.WithBackupDir(cfg.BackupDir),
			atomicfile.WithRetention(cfg.BackupRetention),
			atomicfile.WithLogger(o.log)),
		registry:    updater.NewRegistry(o.lookup),
		lockTimeout: timeout,
		log:         o.log,
	}
	return o, nil
}

// Execute runs cmd. The returned error equals Report.Err() for mutating
// commands, or is the read failure for reading commands.
func (o *Orchestrator) Execute(ctx context.Context, cmd Command) (*Report, error) {
	switch c := cmd.(type) {
	case GetCmd, GetSemanticCmd, GetBuildCmd, ValidateCmd:
		return o.read(ctx, cmd)
	case InfoCmd:
		report, err := o.read(ctx, cmd)
		if err != nil {
			return report, err
		}
		sources := discovery.NewScanner(o.fs).Scan(ctx, o.cfg)
		report.Targets = o.targetStatus(sources, report.Current)
		if !discovery.IsVersionConsistent(sources) {
			report.Versions = discovery.GetVersionSummary(sources)
		}
		return report, nil
	case IncrementCmd:
		return o.mutate(ctx, cmd, c.Kind, nil, semver.ModeImmediate)
	case PrepareCmd:
		return o.mutate(ctx, cmd, c.Kind, nil, semver.ModePlaceholder)
	case SetCmd:
		return o.mutate(ctx, cmd, "", &c.Version, semver.ModeImmediate)
	default:
		return nil, fmt.Errorf("unsupported command %T", cmd)
	}
}

// Current parses the version in the canonical manifest.
func (o *Orchestrator) Current(ctx context.Context) (semver.FullVersion, error) {
	path := o.cfg.Resolve(o.cfg.Manifest)
	data, err := o.fs.ReadFile(ctx, path)
	if err != nil {
		return semver.FullVersion{}, fmt.Errorf("read manifest %q: %w", path, err)
	}
	v, err := parseManifest(textenc.Normalize(data))
	if err != nil {
		return semver.FullVersion{}, fmt.Errorf("manifest %q: %w", path, err)
	}
	return v, nil
}

func parseManifest(content []byte) (semver.FullVersion, error) {
	raw, err := parser.Extract(content, manifestVersion)
	if err != nil {
		return semver.FullVersion{}, err
	}
	return semver.Parse(raw)
}

func (o *Orchestrator) read(ctx context.Context, cmd Command) (*Report, error) {
	report := &Report{Command: cmd.Name()}
	v, err := o.Current(ctx)
	if err != nil {
		return report, err
	}
	report.Previous, report.Current = v, v

	if _, ok := cmd.(ValidateCmd); ok {
		sources := discovery.NewScanner(o.fs).Scan(ctx, o.cfg)
		for _, m := range discovery.DetectMismatches(sources, v) {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s: %s has %s, expected %s", m.Name, m.Path, m.Actual, m.Expected))
		}
		switch v.Build.Kind(o.placeholder) {
		case semver.BuildNone:
			report.Warnings = append(report.Warnings, "version has no build identifier")
		case semver.BuildPlaceholder:
			report.Warnings = append(report.Warnings, "build identifier is still the placeholder")
		case semver.BuildOther:
			report.Warnings = append(report.Warnings, fmt.Sprintf("build identifier %q is not a timestamp", v.Build))
		}
	}
	return report, nil
}

func (o *Orchestrator) targetStatus(sources []discovery.Source, current semver.FullVersion) []TargetStatus {
	drifted := make(map[string]bool)
	for _, m := range discovery.DetectMismatches(sources, current) {
		drifted[m.Name] = true
	}

	out := make([]TargetStatus, 0, len(sources))
	for i, src := range sources {
		out = append(out, TargetStatus{
			Name:     src.Name,
			Path:     src.Path,
			Kind:     src.Kind,
			Required: o.cfg.Targets[i].Required,
			Exists:   src.Exists,
			Version:  src.Version,
			Drift:    drifted[src.Name],
		})
	}
	return out
}

func (o *Orchestrator) mutate(ctx context.Context, cmd Command, kind semver.BumpKind, exact *semver.SemVersion, mode semver.BuildMode) (*Report, error) {
	report := &Report{Command: cmd.Name()}

	// Reject bad input before any file is touched.
	if exact != nil {
		if err := exact.Validate(); err != nil {
			return report, err
		}
	}

	prev, err := o.Current(ctx)
	if err != nil {
		return report, err
	}
	report.Previous = prev

	derive := func(cur semver.FullVersion) (updater.Values, error) {
		k := kind
		var next semver.SemVersion
		if exact != nil {
			next = *exact
			k = bumpBetween(cur.SemVersion, next)
		} else {
			var err error
			if next, err = semver.IncrementFunc(cur.SemVersion, kind); err != nil {
				return updater.Values{}, err
			}
		}
		now := o.now()
		return updater.Values{
			Version:     semver.FullVersion{SemVersion: next, Build: semver.NewBuildID(mode, now, o.placeholder)},
			Bump:        k,
			Date:        now,
			Placeholder: o.placeholder,
		}, nil
	}
	values, err := derive(prev)
	if err != nil {
		return report, err
	}
	report.Current = values.Version

	txn := NewTransaction()
	report.TxnID = txn.ID
	log := o.log.With("txn", txn.ID)
	defer func() {
		txn.Cleanup(log)
		o.fill(report, txn)
	}()

	manifest := o.cfg.ManifestTarget()
	if manifest == nil {
		return report, fmt.Errorf("%w: no manifest target configured", ErrManifestFailed)
	}
	// The manifest is re-parsed under its lock so overlapping runs never
	// derive the same next version.
	resolve := func(content []byte) (updater.Values, error) {
		cur, err := parseManifest(content)
		if err != nil {
			return updater.Values{}, err
		}
		if cur != prev {
			log.Warn().Str("expected", prev.String()).Str("found", cur.String()).Msg("manifest changed while waiting for its lock")
			if values, err = derive(cur); err != nil {
				return updater.Values{}, err
			}
			prev = cur
		}
		return values, nil
	}
	if err := o.applyTarget(ctx, *manifest, resolve, txn, log); err != nil {
		return report, fmt.Errorf("%w: %w", ErrManifestFailed, err)
	}
	report.Previous, report.Current = prev, values.Version

	log.Info().Str("command", cmd.Name()).Str("from", prev.String()).Str("to", values.Version.String()).Msg("updating version")
	if exact != nil && values.Version.SemVersion.Compare(prev.SemVersion) < 0 {
		msg := fmt.Sprintf("new version %s is lower than current %s", values.Version.SemVersion, prev.SemVersion)
		log.Warn().Msg(msg)
		txn.Warn(msg)
	}

	for _, t := range o.cfg.Targets {
		if t == *manifest {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		// Failures are recorded in txn; keep going with the other files.
		_ = o.applyTarget(ctx, t, fixedValues(values), txn, log)
	}

	// The placeholder is the expected interim state after prepare.
	if _, prepare := cmd.(PrepareCmd); !prepare && o.cfg.ShouldAuditPlaceholder() {
		report.auditErr = o.auditPlaceholder(ctx, txn.Touched)
	}

	o.fill(report, txn)
	return report, report.Err()
}

// bumpBetween names the most significant component that differs, which
// picks the changelog section for an explicit set.
func bumpBetween(from, to semver.SemVersion) semver.BumpKind {
	switch {
	case from.Major != to.Major:
		return semver.BumpMajor
	case from.Minor != to.Minor:
		return semver.BumpMinor
	case from.Patch != to.Patch:
		return semver.BumpPatch
	default:
		return semver.BumpBuild
	}
}

// applyTarget runs one file through the pipeline and records the outcome.
// The returned error is nil for outcomes that are not failures.
func (o *Orchestrator) applyTarget(ctx context.Context, t config.TargetFile, resolve Resolver, txn *Transaction, log *logging.Logger) error {
	outcome, err := o.files.Apply(ctx, t, resolve, txn)
	path := o.cfg.Resolve(t.Path)
	if err != nil {
		var ferr *FileError
		if !errors.As(err, &ferr) {
			ferr = &FileError{Name: t.Name, Path: path, Required: t.Required, Err: err}
		}
		log.Error().Str("target", t.Name).Str("path", path).Err(ferr.Err).Msg("update failed")
		txn.Fail(ferr)
		return ferr
	}

	switch outcome {
	case OutcomeMissing:
		if t.Required {
			ferr := &FileError{Name: t.Name, Path: path, Required: true, Err: ErrMissingRequired}
			log.Error().Str("target", t.Name).Str("path", path).Msg("required file not found")
			txn.Fail(ferr)
			return ferr
		}
		msg := fmt.Sprintf("%s: %s not found, skipped", t.Name, t.Path)
		log.Warn().Str("target", t.Name).Str("path", path).Msg("optional file not found, skipped")
		txn.Warn(msg)
		txn.Skipped = append(txn.Skipped, t.Name)
	case OutcomeNoBadge:
		msg := fmt.Sprintf("%s: no version badge in %s", t.Name, t.Path)
		log.Warn().Str("target", t.Name).Str("path", path).Msg("no badge found")
		txn.Warn(msg)
		txn.Skipped = append(txn.Skipped, t.Name)
	case OutcomeUnchanged:
		txn.Unchanged = append(txn.Unchanged, t.Name)
		txn.Touched = append(txn.Touched, path)
	case OutcomeUpdated:
		txn.Updated = append(txn.Updated, t.Name)
		txn.Touched = append(txn.Touched, path)
	}
	return nil
}

// auditPlaceholder fails when any of paths still contains the placeholder.
func (o *Orchestrator) auditPlaceholder(ctx context.Context, paths []string) error {
	token := []byte(o.placeholder)
	var found []string
	for _, p := range paths {
		data, err := o.fs.ReadFile(ctx, p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("placeholder audit: %w", err)
		}
		if bytes.Contains(data, token) {
			found = append(found, p)
		}
	}
	if len(found) > 0 {
		return fmt.Errorf("%w in %s", ErrPlaceholderPresent, strings.Join(found, ", "))
	}
	return nil
}

func (*Orchestrator) fill(r *Report, txn *Transaction) {
	r.Updated = txn.Updated
	r.Skipped = txn.Skipped
	r.Warnings = txn.Warnings
	r.Failures = txn.Failures
	r.Backups = txn.Backups
	r.Unchanged = txn.Unchanged
}
