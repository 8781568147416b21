// Package run derives the identity of a collection run: its timestamp token,
// the firm slug and the artifact locations inside the output tree.
package run

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// TokenLayout renders a UTC instant as YYYYMMDD_HHMMSS.
const TokenLayout = "20060102_150405"

// maxSuffix bounds the collision suffixes tried by Reserve.
const maxSuffix = 99

// NewToken returns the run token for t.
func NewToken(t time.Time) string {
	return t.UTC().Format(TokenLayout)
}

// Namer issues run tokens from an injectable clock.
type Namer struct {
	Now func() time.Time
}

// Token returns the token for the current moment.
func (n *Namer) Token() string {
	now := time.Now
	if n != nil && n.Now != nil {
		now = n.Now
	}
	return NewToken(now())
}

// Slugify turns a free-text name into a filesystem-safe path component.
// Letters, digits and "-_." survive; spaces become underscores; everything
// else is dropped. The result may be empty.
func Slugify(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' || r == '.' || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.Trim(b.String(), " "), " ", "_")
}

// Paths are the locations of one run's artifacts.
type Paths struct {
	Token    string `json:"token"`
	Dir      string `json:"dir"`
	Manifest string `json:"manifest"`
	Data     string `json:"data"`
}

// BuildPaths derives the run directory and artifact names. It does not
// touch the filesystem.
func BuildPaths(outputsRoot, firm, month, token string) Paths {
	slug := Slugify(firm)
	dir := filepath.Join(outputsRoot, slug, month)
	return Paths{
		Token:    token,
		Dir:      dir,
		Manifest: filepath.Join(dir, "manifest_"+token+".json"),
		Data:     filepath.Join(dir, fmt.Sprintf("stories_%s_%s_%s.csv", slug, month, token)),
	}
}

// ErrExhausted is returned by Reserve when every suffixed token is taken.
var ErrExhausted = errors.New("RUN_TOKEN_EXHAUSTED")

// Reserve returns p unchanged when neither artifact exists yet. Otherwise it
// appends _01.._99 to the token until both names are free, so two runs in
// the same second never share files and tokens keep sorting in issue order.
func Reserve(outputsRoot, firm, month string, p Paths) (Paths, error) {
	if free(p) {
		return p, nil
	}
	for i := 1; i <= maxSuffix; i++ {
		next := BuildPaths(outputsRoot, firm, month, fmt.Sprintf("%s_%02d", p.Token, i))
		if free(next) {
			return next, nil
		}
	}
	return Paths{}, fmt.Errorf("%w: %s in %s", ErrExhausted, p.Token, p.Dir)
}

func free(p Paths) bool {
	return !exists(p.Manifest) && !exists(p.Data)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
