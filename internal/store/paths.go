// Package store describes the fixed directory layout of the shared drive:
// <root>/db/<project> and <root>/outputs/<project>.
package store

import "path/filepath"

// DefaultProjects are the projects expected on the drive when no config is
// available to enumerate them.
var DefaultProjects = []string{"qwass2", "scum2", "werk2", "dorian2"}

func DBRoot(root string) string {
	return filepath.Join(root, "db")
}

func OutputsRoot(root string) string {
	return filepath.Join(root, "outputs")
}

func ProjectDBDir(root, project string) string {
	return filepath.Join(DBRoot(root), project)
}

func ProjectOutputsDir(root, project string) string {
	return filepath.Join(OutputsRoot(root), project)
}

// RequiredDirs lists, in check order, every directory the layout needs:
// the root, both area roots, then a db/outputs pair per project.
func RequiredDirs(root string, projects []string) []string {
	dirs := []string{root, DBRoot(root), OutputsRoot(root)}
	for _, p := range projects {
		dirs = append(dirs, ProjectDBDir(root, p), ProjectOutputsDir(root, p))
	}
	return dirs
}
