package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ci2/internal/artifact"
	"ci2/internal/audit"
	"ci2/internal/run"
)

// DefaultProject is used when no project key is given.
const DefaultProject = "qwass2"

// DefaultNotes is recorded in manifests when the caller gives none.
const DefaultNotes = "V1 micro-collect: no API calls yet; proves folder + file writes work."

// ErrInput marks missing or blank request fields.
var ErrInput = errors.New("COL_INPUT")

type CollectRequest struct {
	Project string
	Firm    string
	Month   string
	Notes   string
}

type CollectResult struct {
	Project      string `json:"project"`
	Firm         string `json:"firm"`
	Month        string `json:"month"`
	RunID        string `json:"runId"`
	Token        string `json:"token"`
	OutDir       string `json:"outDir"`
	DataFile     string `json:"dataFile"`
	ManifestFile string `json:"manifestFile"`
	Rows         int    `json:"rows"`
}

// Collect performs one run: resolve the project's outputs, pick a free run
// token, then write the data file followed by its manifest.
func (s *Service) Collect(ctx context.Context, req CollectRequest) (CollectResult, error) {
	req.Project = strings.TrimSpace(req.Project)
	req.Firm = strings.TrimSpace(req.Firm)
	req.Month = strings.TrimSpace(req.Month)
	if req.Project == "" {
		req.Project = DefaultProject
	}
	if req.Firm == "" {
		return CollectResult{}, fmt.Errorf("%w: firm is required", ErrInput)
	}
	if req.Month == "" {
		return CollectResult{}, fmt.Errorf("%w: month is required", ErrInput)
	}
	if err := checkRunNames(req.Firm, req.Month); err != nil {
		return CollectResult{}, err
	}
	if req.Notes == "" {
		req.Notes = DefaultNotes
	}

	doc, err := s.LoadConfig()
	if err != nil {
		return CollectResult{}, err
	}
	project, err := doc.ResolveProject(req.Project)
	if err != nil {
		return CollectResult{}, err
	}
	ledger := audit.ForOutputs(project.Outputs)
	log := s.log.With(zap.String("project", req.Project), zap.String("firm", req.Firm), zap.String("month", req.Month))

	res, err := s.writeRun(ctx, req, project.Outputs, log)
	s.record(ledger, req, res, err, log)
	if err != nil {
		return CollectResult{}, err
	}
	log.Info("run written", zap.String("token", res.Token), zap.String("dir", res.OutDir))
	return res, nil
}

func (s *Service) writeRun(ctx context.Context, req CollectRequest, outputsRoot string, log *zap.Logger) (CollectResult, error) {
	paths := run.BuildPaths(outputsRoot, req.Firm, req.Month, s.Namer.Token())
	if err := artifact.EnsureDirectory(paths.Dir); err != nil {
		return CollectResult{}, err
	}
	reserved, err := run.Reserve(outputsRoot, req.Firm, req.Month, paths)
	if err != nil {
		return CollectResult{}, fmt.Errorf("%w: %w", artifact.ErrWrite, err)
	}
	if reserved.Token != paths.Token {
		log.Warn("run token already used, suffixing", zap.String("token", paths.Token), zap.String("reserved", reserved.Token))
	}
	paths = reserved
	if err := ctx.Err(); err != nil {
		return CollectResult{}, err
	}

	created := s.now().UTC()
	rows := placeholderRows(req.Firm, req.Month, paths.Token, created)
	if err := artifact.WriteSchemaRows(paths.Data, artifact.StoriesSchema, rows); err != nil {
		return CollectResult{}, err
	}
	log.Debug("data file written", zap.String("path", paths.Data), zap.Int("rows", len(rows)))

	manifest := artifact.Manifest{
		SchemaVersion: artifact.ManifestVersion,
		RunID:         uuid.NewString(),
		Token:         paths.Token,
		Project:       req.Project,
		Firm:          req.Firm,
		Month:         req.Month,
		CreatedUTC:    created,
		OutDir:        paths.Dir,
		Files: map[string]string{
			artifact.KindStoriesCSV:   paths.Data,
			artifact.KindManifestJSON: paths.Manifest,
		},
		DataSchema: artifact.StoriesSchema.Tag(),
		Notes:      req.Notes,
	}
	if err := artifact.WriteManifest(paths.Manifest, manifest); err != nil {
		// The data file was created by this run; without its manifest it is unpaired.
		if rmErr := os.Remove(paths.Data); rmErr != nil {
			log.Warn("remove unpaired data file", zap.String("path", paths.Data), zap.Error(rmErr))
		}
		return CollectResult{}, err
	}

	return CollectResult{
		Project:      req.Project,
		Firm:         req.Firm,
		Month:        req.Month,
		RunID:        manifest.RunID,
		Token:        paths.Token,
		OutDir:       paths.Dir,
		DataFile:     paths.Data,
		ManifestFile: paths.Manifest,
		Rows:         len(rows),
	}, nil
}

// checkRunNames rejects a firm or month that would name the current or parent
// directory, which would move the run outside the project's outputs.
func checkRunNames(firm, month string) error {
	if slug := run.Slugify(firm); slug == "." || slug == ".." {
		return fmt.Errorf("%w: firm %q does not name a directory", ErrInput, firm)
	}
	if month == "." || month == ".." {
		return fmt.Errorf("%w: month %q does not name a directory", ErrInput, month)
	}
	return nil
}

// placeholderRows stands in for collected stories until a real source exists.
func placeholderRows(firm, month, token string, now time.Time) []artifact.Row {
	return []artifact.Row{{
		"id":            "dummy-" + token,
		"firm":          firm,
		"month":         month,
		"title":         fmt.Sprintf("[DUMMY] Micro collect for %s %s", firm, month),
		"source":        "ci2-smoketest",
		"published_utc": now.Format(time.RFC3339),
		"url":           "",
		"snippet":       "This is a placeholder row to validate the new architecture.",
	}}
}

func (s *Service) record(ledger *audit.Logger, req CollectRequest, res CollectResult, runErr error, log *zap.Logger) {
	ev := audit.Event{
		Operation: "collect",
		Project:   req.Project,
		Token:     res.Token,
		Status:    audit.StatusOK,
		Fields:    map[string]string{"firm": req.Firm, "month": req.Month},
	}
	if runErr != nil {
		ev.Status = audit.StatusError
		ev.Code = errorCode(runErr)
		ev.Message = runErr.Error()
	} else {
		ev.Fields["run_id"] = res.RunID
		ev.Fields["manifest"] = res.ManifestFile
		ev.Fields["data"] = res.DataFile
	}
	if err := ledger.Log(ev); err != nil {
		log.Warn("audit ledger write failed", zap.String("path", ledger.Path()), zap.Error(err))
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, artifact.ErrSchemaMismatch):
		return artifact.ErrSchemaMismatch.Error()
	case errors.Is(err, artifact.ErrWrite):
		return artifact.ErrWrite.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "COL_CANCELED"
	}
	return ""
}
