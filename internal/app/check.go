package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"ci2/internal/artifact"
	"ci2/internal/config"
	"ci2/internal/doctor"
	"ci2/internal/run"
	"ci2/internal/store"
)

type CheckOptions struct {
	// Create makes missing layout directories under an existing root before
	// checking. A missing root is reported, never created.
	Create bool
}

type CheckResult struct {
	Report  doctor.Report `json:"report"`
	Created []string      `json:"created,omitempty"`
}

// Check runs the readiness gate. When the paths document cannot be loaded
// the built-in root and project list are checked instead and a warning
// finding is added; only a failed --create returns an error.
func (s *Service) Check(ctx context.Context, opts CheckOptions) (CheckResult, error) {
	var (
		configFinding *doctor.Finding
		root          = config.DefaultDriveRoot
		projects      []string
	)
	doc, err := s.LoadConfig()
	if err != nil {
		s.log.Warn("config unavailable, checking defaults", zap.Error(err))
		configFinding = &doctor.Finding{Code: "ENV_CONFIG_UNAVAILABLE", Level: doctor.LevelWarn, Path: s.ConfigPath, Message: err.Error()}
	} else if r, rootErr := doc.DriveRoot(); rootErr != nil {
		configFinding = &doctor.Finding{Code: "ENV_CONFIG_INVALID", Level: doctor.LevelWarn, Path: doc.Path, Message: rootErr.Error()}
	} else {
		root = r
		projects = doc.ProjectKeys()
	}

	var result CheckResult
	if opts.Create {
		if len(projects) == 0 {
			projects = store.DefaultProjects
		}
		created, err := store.EnsureLayout(root, projects)
		result.Created = created
		switch {
		case errors.Is(err, store.ErrRootMissing):
			s.log.Warn("root not reachable, nothing created", zap.String("root", root))
		case err != nil:
			return result, err
		}
		for _, d := range created {
			s.log.Info("created directory", zap.String("path", d))
		}
	}

	svc := &doctor.Service{
		Root:        root,
		Projects:    projects,
		SecretsPath: config.ResolveSecretsPath(doc, s.getenv),
		Logger:      s.log,
	}
	result.Report = svc.Run(ctx)
	if configFinding != nil {
		result.Report.Findings = append([]doctor.Finding{*configFinding}, result.Report.Findings...)
	}
	return result, nil
}

// Runs lists the manifests recorded for a firm and month, oldest first.
func (s *Service) Runs(project, firm, month string) ([]artifact.Manifest, error) {
	if project == "" {
		project = DefaultProject
	}
	if err := checkRunNames(firm, month); err != nil {
		return nil, err
	}
	doc, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	resolved, err := doc.ResolveProject(project)
	if err != nil {
		return nil, err
	}
	dir := run.BuildPaths(resolved.Outputs, firm, month, "").Dir
	return artifact.ListManifests(dir)
}
