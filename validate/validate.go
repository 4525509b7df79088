package validate

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/lexgo/manifest"
	"github.com/hupe1980/lexgo/record"
	"github.com/hupe1980/lexgo/resource"
)

// Violation reasons.
const (
	// ReasonMissingTarget marks an edge whose target entity does not
	// exist, and stands in for inputs the check could not read.
	ReasonMissingTarget = "missing target"
	// ReasonRangeNotCovered marks an id or range no chunk covers.
	ReasonRangeNotCovered = "range not covered"
	// ReasonAmbiguous marks overlapping chunk ranges, where an id would
	// resolve to more than one file.
	ReasonAmbiguous = "ambiguous resolution"
)

// Run defaults.
const (
	DefaultSeed          = 12345
	DefaultMaxViolations = 200
)

// Mode selects how much of the dataset a run reads.
type Mode string

const (
	// ModeFast checks seeded samples of each relation.
	ModeFast Mode = "fast"
	// ModeFull walks every edge.
	ModeFull Mode = "full"
)

// Violation is one broken edge between dataset parts.
type Violation struct {
	Relation string `json:"relation"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Reason   string `json:"reason"`
}

// Report is the outcome of a run. OK means the checks that ran found
// nothing; a canceled run reports whatever had been collected.
type Report struct {
	OK         bool        `json:"ok"`
	Mode       Mode        `json:"mode"`
	Seed       int64       `json:"seed"`
	Violations []Violation `json:"violations,omitempty"`
	Truncated  bool        `json:"truncated,omitempty"`
}

// Options configure a run. Zero values select fast mode, DefaultSeed and
// DefaultMaxViolations.
type Options struct {
	Mode          Mode
	Seed          int64
	MaxViolations int
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeFast
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.MaxViolations <= 0 {
		o.MaxViolations = DefaultMaxViolations
	}
	return o
}

// Runner executes the standard relation set against one dataset.
type Runner struct {
	man    *manifest.Manifest
	reader *record.Reader
	rc     *resource.Controller
}

// NewRunner creates a runner. rc bounds relation concurrency and may be
// nil.
func NewRunner(man *manifest.Manifest, r *record.Reader, rc *resource.Controller) *Runner {
	return &Runner{man: man, reader: r, rc: rc}
}

// Run executes every relation and merges their findings into one report.
//
// Violations are data findings, not errors: the runner never aborts
// because of one, and a relation whose inputs cannot be read reports that
// as a violation instead of failing the run. Canceling ctx stops
// unstarted relations; findings already collected are still returned, so
// a partial report is an honest prefix of a full one. The merged report
// is sorted by (relation, source) and truncated at MaxViolations.
func (r *Runner) Run(ctx context.Context, opts Options) *Report {
	opts = opts.withDefaults()
	s := newSampler(opts.Mode, opts.Seed, opts.MaxViolations)

	var (
		mu  sync.Mutex
		all []Violation
	)

	var g errgroup.Group
	if n := r.rc.WorkerLimit(); n > 0 {
		g.SetLimit(n)
	}
	for _, rel := range Relations(r.man, r.reader) {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			vios := rel.Check(ctx, s)
			mu.Lock()
			all = append(all, vios...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Relation != b.Relation {
			return a.Relation < b.Relation
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Reason < b.Reason
	})

	rep := &Report{Mode: opts.Mode, Seed: opts.Seed}
	if len(all) > opts.MaxViolations {
		all = all[:opts.MaxViolations]
		rep.Truncated = true
	}
	rep.Violations = all
	rep.OK = len(all) == 0
	return rep
}
