package export

import (
	"encoding/json"
	"io"
	"path/filepath"
	"sync/atomic"

	"kitsusync/internal/fileutil"
	"kitsusync/internal/services"
)

// Writer serializes export documents under the web root.
type Writer struct {
	outputDir   string
	projectsDir string
	written     atomic.Int64
}

// NewWriter returns a Writer rooted at outputDir. projectsDir holds the
// per-project trees and is usually a child of outputDir.
func NewWriter(outputDir, projectsDir string) *Writer {
	return &Writer{outputDir: outputDir, projectsDir: projectsDir}
}

// FilesWritten returns the number of documents written so far.
func (w *Writer) FilesWritten() int {
	return int(w.written.Load())
}

// WriteJSON writes {projectsDir}/{projectID}/{name}.json, replacing any
// previous file.
func (w *Writer) WriteJSON(projectID, name string, data any) (string, error) {
	return w.write(filepath.Join(w.projectsDir, projectID, name+".json"), data)
}

// WriteCasting writes {projectsDir}/{projectID}/sequences/{sequenceID}/casting.json.
func (w *Writer) WriteCasting(projectID, sequenceID string, data json.RawMessage) (string, error) {
	return w.write(filepath.Join(w.projectsDir, projectID, "sequences", sequenceID, "casting.json"), data)
}

// WriteRoot writes {outputDir}/{name}.json.
func (w *Writer) WriteRoot(name string, data any) (string, error) {
	return w.write(filepath.Join(w.outputDir, name+".json"), data)
}

func (w *Writer) write(path string, data any) (string, error) {
	err := fileutil.WriteAtomic(path, 0o644, func(out io.Writer) error {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(data)
	})
	if err != nil {
		return "", services.Wrap(services.ErrFilesystem, "export", "write", path, err)
	}
	w.written.Add(1)
	return path, nil
}
