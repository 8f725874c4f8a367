package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Workspace owns the shared base directory. Downloads write into per-job
// subdirectories and finished files are promoted into the base directory.
type Workspace struct {
	base string
}

// Job is an isolated, randomly named directory for one download.
type Job struct {
	ID  string
	Dir string
}

// NewWorkspace creates base if needed and canonicalizes it.
func NewWorkspace(base string) (*Workspace, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("error creating base directory: %w", err)
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	return &Workspace{base: canonical}, nil
}

func (w *Workspace) Base() string { return w.base }

// NewJob allocates a fresh job directory.
func (w *Workspace) NewJob() (*Job, error) {
	id := uuid.NewString()
	dir := filepath.Join(w.base, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating job directory: %w", err)
	}
	return &Job{ID: id, Dir: dir}, nil
}

// OutputTemplate places the engine's output in the job directory under name,
// letting the engine choose the extension.
func (j *Job) OutputTemplate(name string) string {
	return filepath.Join(j.Dir, name+".%(ext)s")
}

// LocateOutput picks the file the download produced. An engine-reported path is
// trusted when it is a regular file inside the job directory; otherwise the most
// recently modified regular file wins.
func (w *Workspace) LocateOutput(job *Job, reported string) (string, error) {
	if reported != "" {
		if p, ok := within(job.Dir, reported); ok && isRegular(p) {
			return p, nil
		}
	}

	entries, err := os.ReadDir(job.Dir)
	if err != nil {
		return "", newError(KindInternal, "No file produced", err)
	}
	var (
		newest  string
		newestT time.Time
	)
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if newest == "" || info.ModTime().After(newestT) {
			newest = filepath.Join(job.Dir, e.Name())
			newestT = info.ModTime()
		}
	}
	if newest == "" {
		return "", newError(KindInternal, "No file produced", nil)
	}
	return newest, nil
}

// Promote moves the output into the base directory under its sanitized name,
// replacing any file already there. It returns the name to serve the file under,
// its absolute path, and whether the move happened. A failed move leaves the
// file in the job directory, served as "<job>/<name>".
func (w *Workspace) Promote(job *Job, path string) (name, final string, moved bool) {
	sanitized := SanitizeFilename(filepath.Base(path))
	target := filepath.Join(w.base, sanitized)

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("op", "media/promote").Str("job_id", job.ID).Err(err).Msg("could not clear target")
	}
	if err := os.Rename(path, target); err != nil {
		log.Warn().Str("op", "media/promote").Str("job_id", job.ID).Err(err).Msg("rename failed, serving from job directory")
		rel, relErr := filepath.Rel(w.base, path)
		if relErr != nil {
			rel = filepath.Join(job.ID, filepath.Base(path))
		}
		return filepath.ToSlash(rel), path, false
	}
	return sanitized, target, true
}

// Resolve maps a requested file name to an absolute path inside the base
// directory. Names escaping the base directory are rejected before any
// filesystem access.
func (w *Workspace) Resolve(name string) (string, error) {
	p, ok := within(w.base, filepath.Join(w.base, filepath.FromSlash(strings.TrimLeft(name, "/"))))
	if !ok {
		return "", newError(KindTraversal, "Invalid file path", nil)
	}
	if !isRegular(p) {
		return "", newError(KindNotFound, "File not found", nil)
	}
	// The name is confined lexically; a symlink must not lead back out.
	target, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", newError(KindNotFound, "File not found", err)
	}
	if _, ok := within(w.base, target); !ok {
		return "", newError(KindTraversal, "Invalid file path", nil)
	}
	return p, nil
}

// Prune removes job directories and promoted files last modified before cutoff.
func (w *Workspace) Prune(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(w.base)
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(w.base, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// within cleans p and reports whether it is a strict descendant of dir.
func within(dir, p string) (string, bool) {
	p = filepath.Clean(p)
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return p, true
}

func isRegular(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
