package models

import "time"

// MetadataFilename is the name of the metadata document inside each
// revision directory on the remote host.
const MetadataFilename = "metadata.json"

// EntryFilename is the name of the entry file inside each revision
// directory, and the name of the active-pointer symlink at the remote root.
const EntryFilename = "index.html"

// PointerTempFilename is the temporary name the activation swap creates the
// new pointer under before renaming it over EntryFilename.
const PointerTempFilename = EntryFilename + ".new"

// AssetsDirname is the remote directory holding the unversioned assets.
const AssetsDirname = "assets"

// RevisionMetadata describes one deployed revision. It is written once at
// upload time and never mutated afterwards.
type RevisionMetadata struct {
	Revision string `json:"revision"`
	Commit   string `json:"commit"`
	Author   string `json:"author"`
	Date     string `json:"date"`
	Message  string `json:"message"`
}

// dateLayouts are the timestamp formats we accept in the Date field, tried
// in order. Deploys made by this tool write RFC 3339; the git layouts cover
// metadata written by older tooling.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"Mon Jan 2 15:04:05 2006 -0700",
	time.RFC1123Z,
}

// Time parses the Date field. Unparsable dates yield the zero time so that
// sorting treats them as oldest instead of failing.
func (m RevisionMetadata) Time() time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, m.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

// RevisionRecord pairs a remote metadata path with its parsed metadata.
// Records are produced fresh on every listing; the remote directory is the
// source of truth and records are never cached across operations.
type RevisionRecord struct {
	Filename string           `json:"filename"`
	Meta     RevisionMetadata `json:"meta"`
}

// AssetFile is a local build artifact scheduled for upload. Path is the
// position relative to the build directory (and below assets/ on the remote
// side); Source is the absolute local path to read from.
type AssetFile struct {
	Path   string `json:"path"`
	Source string `json:"source"`
}
