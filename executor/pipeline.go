package executor

import (
	"golang.org/x/sync/errgroup"

	"github.com/opal-lang/shellexec/ast"
	"github.com/opal-lang/shellexec/shellpipe"
	"github.com/opal-lang/shellexec/shellstate"
)

// evalPipeline runs every stage concurrently, connecting consecutive
// stages with an in-process shellpipe, per spec §4.3. The pipeline's exit
// code is the last stage's (pipefail is a non-goal); negation with `!`
// flips 0 to 1 and non-zero to 0. Each stage sees an independent state
// clone so pipeline-local assignments never leak to siblings or the
// parent, and each clone gets its own child of the parent's signal, so
// cancelling the parent cancels every stage at once.
//
// Grounded on the teacher's shellWorkerPool fan-out pattern
// (runtime/executor/shell_worker.go), generalized from a fixed worker
// count to one goroutine per pipeline stage and golang.org/x/sync's
// errgroup for join/first-error semantics.
func (e *Executor) evalPipeline(n *ast.Pipeline, state *shellstate.State, streams stdio) Result {
	if len(n.Stages) == 1 {
		r := e.evalNode(n.Stages[0], state.CloneWithChildSignal(), streams)
		r.Changes = nil
		if n.Negated {
			r.ExitCode = negate(r.ExitCode)
		}
		return r
	}

	stageState := make([]*shellstate.State, len(n.Stages))
	for i := range n.Stages {
		stageState[i] = state.CloneWithChildSignal()
	}

	readers := make([]shellpipe.Reader, len(n.Stages)-1)
	writers := make([]shellpipe.Writer, len(n.Stages)-1)
	for i := range readers {
		r, w := shellpipe.New()
		readers[i] = r
		writers[i] = w
	}

	results := make([]Result, len(n.Stages))
	var g errgroup.Group
	for i, stage := range n.Stages {
		i, stage := i, stage
		stageStreams := streams
		if i > 0 {
			stageStreams.in = readers[i-1]
		}
		if i < len(n.Stages)-1 {
			stageStreams.out = writers[i]
		}

		g.Go(func() error {
			results[i] = e.evalNode(stage, stageState[i], stageStreams)
			if i < len(n.Stages)-1 {
				writers[i].Close()
			}
			if i > 0 {
				readers[i-1].Close()
			}
			return nil
		})
	}
	_ = g.Wait()

	var background []*BackgroundTask
	for _, r := range results {
		background = append(background, r.Background...)
	}

	last := results[len(results)-1]
	code := last.ExitCode
	if n.Negated {
		code = negate(code)
	}
	return Continue(code, nil, background...)
}

func negate(code int) int {
	if code == 0 {
		return 1
	}
	return 0
}
