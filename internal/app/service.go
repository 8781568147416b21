// Package app wires configuration, run naming and artifact writing into the
// operations exposed by the ci2 command.
package app

import (
	"os"
	"time"

	"go.uber.org/zap"

	"ci2/internal/config"
	"ci2/internal/logging"
	"ci2/internal/run"
)

type Options struct {
	ConfigPath string
	Getenv     func(string) string
	Now        func() time.Time
	Logger     *zap.Logger
}

// Service holds no configuration state: every operation re-reads the paths
// document so edits take effect on the next call.
type Service struct {
	ConfigPath string
	Namer      *run.Namer

	getenv func(string) string
	now    func() time.Time
	log    *zap.Logger
}

func New(opts Options) *Service {
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		ConfigPath: configPath,
		Namer:      &run.Namer{Now: now},
		getenv:     getenv,
		now:        now,
		log:        logging.OrNop(opts.Logger),
	}
}

// LoadConfig reads the paths document from ConfigPath.
func (s *Service) LoadConfig() (*config.Document, error) {
	doc, err := config.Load(s.ConfigPath)
	if err != nil {
		return nil, err
	}
	s.log.Debug("config loaded", zap.String("path", doc.Path), zap.Strings("projects", doc.ProjectKeys()))
	return doc, nil
}

// PathsResult is what `ci2 paths` reports for a project.
type PathsResult struct {
	ConfigPath string `json:"configPath"`
	config.ProjectPaths
	SecretsPath string `json:"secretsPath"`
}

// Paths resolves a project's storage locations and the secrets file.
func (s *Service) Paths(project string) (PathsResult, error) {
	doc, err := s.LoadConfig()
	if err != nil {
		return PathsResult{}, err
	}
	resolved, err := doc.ResolveProject(project)
	if err != nil {
		return PathsResult{}, err
	}
	return PathsResult{
		ConfigPath:   doc.Path,
		ProjectPaths: resolved,
		SecretsPath:  config.ResolveSecretsPath(doc, s.getenv),
	}, nil
}
