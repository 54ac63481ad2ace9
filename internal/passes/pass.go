// Package passes holds package-to-package transformations. Passes mutate
// the package in place and report whether they changed anything, so a
// pipeline can re-print only when something happened.
package passes

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/weft-hdl/weft/internal/ir"
)

// Pass is one named transformation over a package.
type Pass interface {
	Name() string
	Run(pkg *ir.Package, res *Results) (bool, error)
}

// RunRecord captures one pass execution for reporting.
type RunRecord struct {
	Pass    string
	Changed bool
	Elapsed time.Duration
}

// Results accumulates per-pass records across a pipeline run.
type Results struct {
	Records []RunRecord
}

// Changed reports whether any recorded pass changed the package.
func (r *Results) Changed() bool {
	for _, rec := range r.Records {
		if rec.Changed {
			return true
		}
	}
	return false
}

// Pipeline runs passes in order, validating the package after each one
// that reports a change.
type Pipeline struct {
	passes []Pass
}

func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes}
}

func (p *Pipeline) Add(pass Pass) {
	p.passes = append(p.passes, pass)
}

// Run executes each pass once. The first pass error aborts the pipeline.
func (p *Pipeline) Run(pkg *ir.Package) (*Results, error) {
	res := &Results{}
	for _, pass := range p.passes {
		start := time.Now()
		changed, err := pass.Run(pkg, res)
		elapsed := time.Since(start)
		res.Records = append(res.Records, RunRecord{
			Pass:    pass.Name(),
			Changed: changed,
			Elapsed: elapsed,
		})
		if err != nil {
			return res, fmt.Errorf("pass %s: %w", pass.Name(), err)
		}
		slog.Debug("pass complete", "pass", pass.Name(), "changed", changed, "elapsed", elapsed)
		if changed {
			if err := pkg.Validate(); err != nil {
				return res, fmt.Errorf("pass %s left invalid package: %w", pass.Name(), err)
			}
		}
	}
	return res, nil
}
