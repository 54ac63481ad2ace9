// Package vectors drives a proc network from declarative YAML stimulus
// files: named input sequences in, expected output sequences out, bounded
// by a tick budget.
package vectors

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/weft-hdl/weft/internal/interp"
	"github.com/weft-hdl/weft/internal/ir"
	"github.com/weft-hdl/weft/internal/passes"
)

// DefaultMaxTicks bounds a vector run when the file does not set a budget.
const DefaultMaxTicks = 1000

// Vector is one stimulus file.
type Vector struct {
	// Name uniquely identifies this vector.
	Name string `yaml:"name"`

	// Description explains what this vector exercises.
	Description string `yaml:"description,omitempty"`

	// Legalize runs channel legalization on the package before simulating.
	Legalize bool `yaml:"legalize,omitempty"`

	// Inputs maps channel names to the value sequences fed before the run.
	Inputs map[string][]uint64 `yaml:"inputs"`

	// Expect maps channel names to the output sequences the run must
	// produce, in order.
	Expect map[string][]uint64 `yaml:"expect"`

	// MaxTicks bounds the run. Zero means DefaultMaxTicks.
	MaxTicks int64 `yaml:"max_ticks,omitempty"`
}

// Load reads and validates one vector file.
func Load(path string) (*Vector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load vector: %w", err)
	}
	var v Vector
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("load vector %s: %w", path, err)
	}
	if v.Name == "" {
		return nil, fmt.Errorf("load vector %s: missing name", path)
	}
	if len(v.Expect) == 0 {
		return nil, fmt.Errorf("load vector %s: no expected outputs", path)
	}
	if v.MaxTicks == 0 {
		v.MaxTicks = DefaultMaxTicks
	}
	return &v, nil
}

// LoadDir loads every *.yaml vector in a directory, sorted by file name.
func LoadDir(dir string) ([]*Vector, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	vectors := make([]*Vector, 0, len(paths))
	for _, path := range paths {
		v, err := Load(path)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

// Result holds the observed outcome of one vector run.
type Result struct {
	Outputs map[string][]uint64
	Ticks   int64
}

// Run simulates the vector against the package. The package is mutated if
// the vector requests legalization; parse a fresh copy per run.
func Run(pkg *ir.Package, v *Vector, opts ...interp.Option) (*Result, error) {
	if v.Legalize {
		pipeline := passes.NewPipeline(passes.ChannelLegalization{})
		if _, err := pipeline.Run(pkg); err != nil {
			return nil, err
		}
	}
	rt, err := interp.New(pkg, opts...)
	if err != nil {
		return nil, err
	}

	for name, values := range v.Inputs {
		q, err := rt.GetQueueByName(name)
		if err != nil {
			return nil, fmt.Errorf("vector %s: input %s: %w", v.Name, name, err)
		}
		width := q.Channel().Width
		for _, x := range values {
			if err := q.Write(ir.UBits(x, width)); err != nil {
				return nil, fmt.Errorf("vector %s: input %s: %w", v.Name, name, err)
			}
		}
	}

	targets := make(map[string]int64, len(v.Expect))
	for name, values := range v.Expect {
		targets[name] = int64(len(values))
	}
	if _, err := rt.TickUntilOutput(targets, v.MaxTicks); err != nil {
		return nil, fmt.Errorf("vector %s: %w", v.Name, err)
	}

	res := &Result{Outputs: make(map[string][]uint64, len(v.Expect)), Ticks: rt.Ticks()}
	for name := range v.Expect {
		q, err := rt.GetQueueByName(name)
		if err != nil {
			return nil, fmt.Errorf("vector %s: output %s: %w", v.Name, name, err)
		}
		for {
			val, ok := q.Read()
			if !ok {
				break
			}
			res.Outputs[name] = append(res.Outputs[name], val.Bits)
		}
	}
	return res, nil
}

// Verify compares observed outputs against the vector's expectations.
// Extra trailing values on an expected channel are an error too; a vector
// pins the exact output sequence.
func (r *Result) Verify(v *Vector) error {
	names := make([]string, 0, len(v.Expect))
	for name := range v.Expect {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		want := v.Expect[name]
		got := r.Outputs[name]
		if len(got) != len(want) {
			return fmt.Errorf("vector %s: channel %s: got %d values, want %d", v.Name, name, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				return fmt.Errorf("vector %s: channel %s: value %d: got %d, want %d", v.Name, name, i, got[i], want[i])
			}
		}
	}
	return nil
}
