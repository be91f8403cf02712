// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package buildinfo

import "fmt"

// Set via ldflags: -X github.com/autobrr/torrentdash/internal/buildinfo.Version=v1.0.0
var (
	Version = "dev"
	Commit  = ""
	Date    = ""

	UserAgent = fmt.Sprintf("torrentdash/%s", Version)
)

// String returns a single line description of the build.
func String() string {
	if Commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s %s)", Version, Commit, Date)
}
