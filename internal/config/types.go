package config

// Section and field names of the paths document.
const (
	SectionRoot     = "ci2"
	SectionProjects = "projects"
	SectionKeys     = "keys"
	SectionLogging  = "logging"

	FieldDriveRoot = "drive_root"
	FieldDB        = "db"
	FieldOutputs   = "outputs"
	FieldEnvFile   = "env_file"
)

// Document is the decoded paths configuration. It is immutable once loaded.
type Document struct {
	// Path is the file the document was read from.
	Path string

	// Root is nil when the root-location section is absent or not a mapping.
	Root *RootSection
	// Projects is nil when the projects section is absent or not a mapping.
	Projects map[string]ProjectEntry
	Keys     *KeysSection
	Logging  LoggingSection
}

type RootSection struct {
	DriveRoot string
}

// ProjectEntry holds the sub-paths of one project relative to the drive root.
type ProjectEntry struct {
	DB      string
	Outputs string

	// problem is set when the raw entry could not be decoded as a mapping.
	problem string
}

type KeysSection struct {
	EnvFile string
}

type LoggingSection struct {
	Level  string
	Format string
}

// ProjectPaths are the absolute locations of a project's storage areas.
type ProjectPaths struct {
	Project string `json:"project"`
	DB      string `json:"db"`
	Outputs string `json:"outputs"`
}
