package panel

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/deevus/instructor-tui/lms"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// save writes a download body into the download directory.
func (p *Panel) save(a *Action, values Values, resp *lms.Response) Outcome {
	name := filepath.Base(resp.Filename())
	if name == "." || name == "/" || name == "" {
		name = downloadName(a, values)
	}
	dir := p.dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		p.logger.Warn("creating download directory", zap.String("dir", dir), zap.Error(err))
		return failure(ApplicationError, fmt.Sprintf("Could not save %s.", name))
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, resp.Body, 0o644); err != nil {
		p.logger.Warn("writing download", zap.String("path", path), zap.Error(err))
		return failure(ApplicationError, fmt.Sprintf("Could not save %s.", name))
	}
	p.logger.Info("download saved", zap.String("path", path), zap.Int("bytes", len(resp.Body)))
	return successOutcome(a.spec.Title, fmt.Sprintf("Saved %s (%s)", path, humanize.Bytes(uint64(len(resp.Body)))))
}

func downloadName(a *Action, values Values) string {
	parts := []string{a.spec.Name}
	for _, f := range a.spec.Fields {
		if v := strings.Trim(unsafeFileChars.ReplaceAllString(values[f], "_"), "_"); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "-") + ".csv"
}
