// Package vars holds build-time variables populated via the linker (ldflags).
package vars

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// License of the project
const License = "AGPL-3.0"

var (
	// Name of the binary
	Name = "vsrelay"

	// Version is the git tag, e.g. v1.2.3
	Version = "dev"

	// Commit is the git SHA the binary was built from
	Commit = "unknown"

	// URL of the source repository
	URL = "https://github.com/woozymasta/vsrelay"

	// set with -ldflags "-X"; strings only
	_revision  string
	_buildTime string
)

// Build describes the running binary.
type Build struct {
	Built    time.Time
	Name     string
	Version  string
	Commit   string
	URL      string
	Revision int
}

// Info returns the build description parsed from the linker variables.
func Info() Build {
	b := Build{
		Name:    Name,
		Version: Version,
		Commit:  Commit,
		URL:     URL,
		Built:   time.Unix(0, 0).UTC(),
	}

	if n, err := strconv.Atoi(_revision); err == nil {
		b.Revision = n
	}
	if t, err := time.Parse(time.RFC3339, _buildTime); err == nil {
		b.Built = t.UTC()
	}

	return b
}

// Print writes the build information to stdout.
func Print() {
	Fprint(os.Stdout)
}

// Fprint writes the build information to w.
func Fprint(w io.Writer) {
	b := Info()
	_, _ = fmt.Fprintf(w, "name:     %s\nurl:      %s\nversion:  %s\ncommit:   %s\nrevision: %d\nbuilt:    %s\nlicense:  %s\n",
		b.Name, b.URL, b.Version, b.Commit, b.Revision, b.Built.Format(time.RFC3339), License)
}

// UserAgent returns the User-Agent sent to the upstream status endpoint.
func UserAgent() string {
	return Name + "/" + Version + " (+" + URL + ")"
}
