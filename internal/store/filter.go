// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package store

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/torrentdash/internal/protocol"
)

// FilterEnv is the environment a row filter expression is evaluated against,
// e.g. `Progress < 100 && DnRate > 0`.
type FilterEnv struct {
	Name     string
	Hash     string
	Size     int64
	Progress float64
	Ratio    float64
	UpRate   int64
	DnRate   int64
	Leechers int
	Peers    int
	Priority int
	Active   bool
}

func newFilterEnv(r protocol.Row) FilterEnv {
	return FilterEnv{
		Name:     r.Name,
		Hash:     string(r.ID()),
		Size:     r.Size,
		Progress: r.Progress,
		Ratio:    r.Ratio,
		UpRate:   r.UpRate,
		DnRate:   r.DnRate,
		Leechers: r.Leechers,
		Peers:    r.Peers,
		Priority: r.Priority,
		Active:   r.IsActive,
	}
}

// RowFilter is a compiled boolean expression over FilterEnv.
type RowFilter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles source. An empty source yields a nil filter.
func CompileFilter(source string) (*RowFilter, error) {
	if source == "" {
		return nil, nil
	}
	program, err := expr.Compile(source, expr.Env(FilterEnv{}), expr.AsBool())
	if err != nil {
		return nil, errors.Wrapf(err, "compile row filter %q", source)
	}
	return &RowFilter{source: source, program: program}, nil
}

func (f *RowFilter) String() string {
	return f.source
}

// Match reports whether r passes. Evaluation errors exclude the row.
func (f *RowFilter) Match(r protocol.Row) bool {
	out, err := expr.Run(f.program, newFilterEnv(r))
	if err != nil {
		log.Debug().Err(err).Str("filter", f.source).Msg("row filter evaluation failed")
		return false
	}
	ok, _ := out.(bool)
	return ok
}
