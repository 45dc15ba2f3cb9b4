package thumbnails

import (
	"path"
	"path/filepath"
	"strings"
)

// Thumbnail categories served by the Kitsu pictures endpoint.
const (
	CategoryPreviewFiles = "preview-files"
	CategoryPersons      = "persons"
	CategoryProjects     = "projects"
)

// RemotePath returns the API-relative path of a thumbnail.
func RemotePath(category, id string) string {
	return "pictures/thumbnails/" + category + "/" + id + ".png"
}

// Layout maps thumbnail ids onto the previews tree.
type Layout struct {
	// Root is the previews directory on disk.
	Root string
	// WebPrefix is the previews directory relative to the web root, for
	// example "static-previews".
	WebPrefix string
	// Sharded stores files as {id[0:3]}/{id[3:6]}/{id}.png instead of
	// mirroring the remote path.
	Sharded bool
}

func (l Layout) relative(category, id string) string {
	if l.Sharded && len(id) >= 6 {
		return path.Join(id[:3], id[3:6], id+".png")
	}
	return RemotePath(category, id)
}

// LocalPath returns where the thumbnail lives on disk.
func (l Layout) LocalPath(category, id string) string {
	return filepath.Join(l.Root, filepath.FromSlash(l.relative(category, id)))
}

// WebPath returns the slash-separated path the front end requests, relative
// to the web root.
func (l Layout) WebPath(category, id string) string {
	prefix := strings.Trim(filepath.ToSlash(l.WebPrefix), "/")
	if prefix == "" {
		return l.relative(category, id)
	}
	return path.Join(prefix, l.relative(category, id))
}
