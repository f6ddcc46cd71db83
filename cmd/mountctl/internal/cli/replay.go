package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-drift/mountcore/pkg/rendercore"
	"github.com/go-drift/mountcore/pkg/trace"
)

type replayOpts struct {
	trace        bool
	poolCapacity int
	release      bool
}

func newReplayCmd() *cobra.Command {
	var opts replayOpts
	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Mount each generation of a scenario and print the lifecycle trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("trace") {
				opts.trace = configFromContext(cmd.Context()).Trace.Enabled
			}
			return runReplay(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "print lifecycle sections (default from trace.enabled)")
	cmd.Flags().IntVar(&opts.poolCapacity, "pool-capacity", 0, "override pool.default_capacity")
	cmd.Flags().BoolVar(&opts.release, "release", false, "unmount everything and clear the pool after the last generation")
	return cmd
}

func runReplay(ctx context.Context, w io.Writer, path string, opts replayOpts) error {
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)

	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}
	trees, err := sc.Trees()
	if err != nil {
		return err
	}

	poolOpts := cfg.PoolOptions()
	if opts.poolCapacity > 0 {
		poolOpts.DefaultCapacity = opts.poolCapacity
	}
	poolOpts.OnDiscard = func(ct rendercore.ContentType, _ rendercore.Content) {
		logger.Debug("pool discard", "type", ct)
	}

	rec := trace.NewRecorder()
	var tracer trace.Tracer = trace.Noop{}
	if opts.trace {
		tracer = rec
	}
	root := rendercore.NewViewHost("root")
	state := rendercore.NewMountState(root, rendercore.Options{
		Tracer: tracer,
		Logger: logger,
		Pool:   rendercore.NewContentPool(poolOpts),
	})

	p := newProgress(logger)
	fmt.Fprintf(w, "scenario: %s\n", sc.Name)
	for i, tree := range trees {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec.Reset()
		res, err := state.Mount(tree)
		fmt.Fprintf(w, "== generation %d: %s ==\n", i+1, sc.Generations[i].Name)
		writeSections(w, rec.Events())
		if err != nil {
			return fmt.Errorf("generation %d (%s): %w", i+1, sc.Generations[i].Name, err)
		}
		writeResult(w, res, state.Pool().Stats())
	}
	fmt.Fprintln(w, "== hierarchy ==")
	writeHierarchy(w, root, 0)

	if opts.release {
		if err := state.Release(); err != nil {
			return err
		}
		logger.Debug("released", "pool", state.Pool().Stats())
	}
	p.done(fmt.Sprintf("Replayed %d generations", len(trees)))
	return nil
}

func writeSections(w io.Writer, events []trace.Event) {
	for _, e := range events {
		if e.Begin {
			fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", e.Depth), e.Name)
		}
	}
}

func writeResult(w io.Writer, res *rendercore.Result, stats rendercore.PoolStats) {
	fmt.Fprintf(w, "result: mounted=%d replaced=%d updated=%d rebound=%d skipped=%d unmounted=%d failures=%d\n",
		res.Mounted, res.Replaced, res.Updated, res.Rebound, res.Skipped, res.Unmounted, len(res.Failures))
	for _, f := range res.Failures {
		fmt.Fprintf(w, "failure: %v\n", f)
	}
	fmt.Fprintf(w, "pool: hits=%d misses=%d releases=%d discards=%d pooled=%d\n",
		stats.Hits, stats.Misses, stats.Releases, stats.Discards, stats.Pooled)
}

// writeHierarchy prints attached items, descending into content that is
// itself a host.
func writeHierarchy(w io.Writer, host rendercore.Host, depth int) {
	if depth == 0 {
		fmt.Fprintln(w, "root")
	}
	indent := strings.Repeat("  ", depth+1)
	for _, item := range host.Children() {
		fmt.Fprintf(w, "%s%s %s %s\n", indent, item.Key(), item.MountType(), item.Node().Bounds())
		if child, ok := item.Content().(rendercore.Host); ok {
			writeHierarchy(w, child, depth+1)
		}
	}
}
