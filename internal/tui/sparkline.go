// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"strings"
)

// Eight vertical levels per cell.
var sparkBlocks = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// sparkline renders the last width values scaled against their maximum.
// Zero renders as the lowest block so an idle torrent still draws a baseline.
func sparkline(values []int64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var peak int64
	for _, v := range values {
		peak = max(peak, v)
	}

	var b strings.Builder
	for _, v := range values {
		idx := 0
		if peak > 0 && v > 0 {
			idx = int(v * 7 / peak)
		}
		b.WriteRune(sparkBlocks[min(max(idx, 0), 7)])
	}
	return b.String()
}

// bar renders value as a horizontal bar relative to peak.
func bar(value, peak, width int) string {
	if peak <= 0 || width <= 0 || value <= 0 {
		return ""
	}
	n := max(1, value*width/peak)
	return strings.Repeat("█", min(n, width))
}
