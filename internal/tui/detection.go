package tui

import (
	"os"

	"golang.org/x/term"
)

// Function variables for testability.
var (
	isTerminalFn = term.IsTerminal
	getenvFn     = os.Getenv
)

// ciEnvs are set by common CI/CD systems.
var ciEnvs = []string{
	"CI",                     // Generic CI indicator
	"CONTINUOUS_INTEGRATION", // Generic CI indicator
	"GITHUB_ACTIONS",         // GitHub Actions
	"GITLAB_CI",              // GitLab CI
	"CIRCLECI",               // CircleCI
	"TRAVIS",                 // Travis CI
	"JENKINS_HOME",           // Jenkins
	"BUILDKITE",              // Buildkite
	"BITBUCKET_BUILD_NUMBER", // Bitbucket Pipelines
	"CODEMAGIC",              // Codemagic
	"CODEBUILD_BUILD_ID",     // AWS CodeBuild
	"TF_BUILD",               // Azure Pipelines
}

// IsInteractive reports whether prompts and spinners may be shown:
// stdout is a terminal and no CI environment variable is set.
func IsInteractive() bool {
	if !IsTTY() {
		return false
	}
	for _, env := range ciEnvs {
		if getenvFn(env) != "" {
			return false
		}
	}
	return true
}

// IsTTY checks if stdout is a terminal.
func IsTTY() bool {
	return isTerminalFn(int(os.Stdout.Fd())) //nolint:gosec // G115: fd is a small value, no overflow risk
}
