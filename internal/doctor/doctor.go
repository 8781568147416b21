// Package doctor is the readiness gate run before any collection: it checks
// that the drive layout exists and that the secrets file is present and
// non-empty, without ever reading secret values into the report.
package doctor

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"ci2/internal/logging"
	"ci2/internal/store"
)

const (
	LevelError = "error"
	LevelWarn  = "warn"
)

type Finding struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// SecretsStatus reports on the secrets file. KeyNames never carries values.
type SecretsStatus struct {
	Path     string   `json:"path"`
	Exists   bool     `json:"exists"`
	KeyNames []string `json:"keyNames,omitempty"`
}

type Report struct {
	Healthy       bool          `json:"healthy"`
	Root          string        `json:"root"`
	RootReachable bool          `json:"rootReachable"`
	Projects      []string      `json:"projects"`
	Missing       []string      `json:"missing,omitempty"`
	Secrets       SecretsStatus `json:"secrets"`
	Findings      []Finding     `json:"findings"`
}

type Service struct {
	Root        string
	Projects    []string
	SecretsPath string
	Logger      *zap.Logger
}

// Run checks the layout under Root for every project in Projects (or
// store.DefaultProjects when empty) and inspects SecretsPath.
func (s *Service) Run(ctx context.Context) Report {
	log := logging.OrNop(s.Logger)
	projects := s.Projects
	if len(projects) == 0 {
		projects = store.DefaultProjects
	}
	report := Report{Root: s.Root, Projects: projects, Findings: []Finding{}}

	if info, err := os.Stat(s.Root); err == nil && info.IsDir() {
		report.RootReachable = true
	} else {
		report.Findings = append(report.Findings, Finding{
			Code:    "ENV_ROOT_UNREACHABLE",
			Level:   LevelError,
			Path:    s.Root,
			Message: "root location is not reachable; is the drive mounted?",
		})
	}

	report.Missing = store.MissingDirs(s.Root, projects)
	for _, d := range report.Missing {
		report.Findings = append(report.Findings, Finding{Code: "ENV_DIR_MISSING", Level: LevelError, Path: d, Message: "missing directory"})
	}
	log.Debug("layout checked", zap.String("root", s.Root), zap.Int("missing", len(report.Missing)))

	if ctx.Err() != nil {
		report.Findings = append(report.Findings, Finding{Code: "ENV_CANCELED", Level: LevelError, Message: ctx.Err().Error()})
		report.Healthy = false
		return report
	}

	report.Secrets, report.Findings = s.checkSecrets(report.Findings)
	log.Debug("secrets checked", zap.String("path", report.Secrets.Path), zap.Int("keys", len(report.Secrets.KeyNames)))

	report.Healthy = true
	for _, f := range report.Findings {
		if f.Level == LevelError {
			report.Healthy = false
			break
		}
	}
	return report
}

func (s *Service) checkSecrets(findings []Finding) (SecretsStatus, []Finding) {
	status := SecretsStatus{Path: s.SecretsPath}
	if s.SecretsPath == "" {
		return status, append(findings, Finding{Code: "ENV_SECRETS_MISSING", Level: LevelError, Message: "no secrets file location resolved"})
	}
	info, err := os.Stat(s.SecretsPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return status, append(findings, Finding{Code: "ENV_SECRETS_MISSING", Level: LevelError, Path: s.SecretsPath, Message: "keys file not found"})
	case err != nil:
		return status, append(findings, Finding{Code: "ENV_SECRETS_UNREADABLE", Level: LevelError, Path: s.SecretsPath, Message: err.Error()})
	case info.IsDir():
		return status, append(findings, Finding{Code: "ENV_SECRETS_UNREADABLE", Level: LevelError, Path: s.SecretsPath, Message: "keys file is a directory"})
	}
	status.Exists = true

	names, err := EnvKeyNames(s.SecretsPath)
	if err != nil {
		return status, append(findings, Finding{Code: "ENV_SECRETS_UNREADABLE", Level: LevelError, Path: s.SecretsPath, Message: err.Error()})
	}
	if len(names) == 0 {
		return status, append(findings, Finding{Code: "ENV_SECRETS_EMPTY", Level: LevelError, Path: s.SecretsPath, Message: "keys file loaded but appears empty"})
	}
	status.KeyNames = names
	return status, findings
}
