// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package session

import "strconv"

func itoa(n uint64) string {
	return strconv.FormatUint(n, 10)
}
