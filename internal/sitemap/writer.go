package sitemap

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitepress/internal/errors"
)

const (
	SitemapFile = "sitemap.xml"
	RobotsFile  = "robots.txt"
)

// Writer places the artifacts in the build output directory, which is
// created when missing, and in the legacy public directory only when that
// directory already exists.
type Writer struct {
	OutputDir string
	LegacyDir string
}

// WriteReport lists the files a Write placed. LegacyErr holds a failure to
// update the legacy directory, which does not fail the write.
type WriteReport struct {
	Written   []string
	LegacyErr error
}

// Write stores both files in every target directory. Each file replaces its
// predecessor atomically. Only a failure in the output directory is
// returned as an error; the legacy copy is best effort.
func (w Writer) Write(sitemapXML, robots []byte) (WriteReport, error) {
	var report WriteReport
	if w.OutputDir == "" {
		return report, errors.ValidationError("output directory is not set").Build()
	}
	if err := os.MkdirAll(w.OutputDir, 0o750); err != nil {
		return report, errors.FileSystemError("failed to create output directory").
			WithCause(err).
			WithContext("path", w.OutputDir).
			Build()
	}

	written, err := writeArtifacts(w.OutputDir, sitemapXML, robots)
	report.Written = written
	if err != nil {
		return report, err
	}

	if w.LegacyDir == "" || filepath.Clean(w.LegacyDir) == filepath.Clean(w.OutputDir) {
		return report, nil
	}
	if info, err := os.Stat(w.LegacyDir); err != nil || !info.IsDir() {
		return report, nil
	}
	written, err = writeArtifacts(w.LegacyDir, sitemapXML, robots)
	report.Written = append(report.Written, written...)
	if err != nil {
		report.LegacyErr = errors.FileSystemError("failed to update legacy directory").
			WithCause(err).
			WithContext("path", w.LegacyDir).
			Warning().
			Build()
	}
	return report, nil
}

func writeArtifacts(dir string, sitemapXML, robots []byte) ([]string, error) {
	var written []string
	for _, f := range []struct {
		name string
		data []byte
	}{{SitemapFile, sitemapXML}, {RobotsFile, robots}} {
		path := filepath.Join(dir, f.name)
		if err := writeAtomic(path, f.data); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeAtomic(path string, data []byte) error {
	fail := func(msg string, err error) error {
		return errors.FileSystemError(msg).WithCause(err).WithContext("path", path).Build()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fail("failed to create temp file", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fail("failed to write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return fail("failed to close temp file", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fail("failed to set file mode", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fail("failed to replace file", err)
	}
	return nil
}
