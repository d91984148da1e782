package watch

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/flarebyte/khepri-release/internal/config"
	"github.com/flarebyte/khepri-release/internal/pipeline"
	"github.com/flarebyte/khepri-release/internal/stage"
	"github.com/flarebyte/khepri-release/internal/trigger"
	"github.com/spf13/cobra"
)

var (
	cfgPath    string
	eventsPath string
)

// Cmd represents the `khepri watch` command: the trigger evaluator.
// It reads repository events as JSON lines and dispatches one pipeline
// run per tag-creation event. Runs for distinct events execute
// concurrently, each with its own checkout and credentials; one
// envelope JSON line is printed per run.
var Cmd = &cobra.Command{
	Use:           "watch",
	Short:         "Dispatch pipeline runs from a stream of repository events",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgPath == "" {
			return fmt.Errorf("missing required flag: --config")
		}
		cfg, err := config.ParseRelease(cfgPath)
		if err != nil {
			return err
		}

		var in io.Reader = os.Stdin
		if eventsPath != "" && eventsPath != "-" {
			f, err := os.Open(eventsPath)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			in = f
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		failures := 0

		emit := func(req trigger.RunRequest) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				env := stage.Envelope{
					Tag:   req.Tag,
					RunID: req.ID,
					Meta:  pipeline.MetaFromConfig(cfg, cfgPath),
				}
				out, _ := pipeline.Execute(cmd.Context(), pipeline.Nodes(), env, pipeline.DepsFromConfig(cfg))
				pipeline.CleanupWorkdirs(out)
				mu.Lock()
				defer mu.Unlock()
				if len(out.Errors) > 0 {
					failures++
				}
				_ = pipeline.RenderLine(os.Stdout, out)
			}()
		}
		skip := func(line string, err error) {
			mu.Lock()
			defer mu.Unlock()
			_, _ = fmt.Fprintf(os.Stderr, "watch: skipping malformed event: %v\n", err)
		}

		scanErr := trigger.Evaluate(in, emit, skip)
		wg.Wait()
		if scanErr != nil {
			return scanErr
		}
		if failures > 0 {
			return fmt.Errorf("%d run(s) failed", failures)
		}
		return nil
	},
}

func init() {
	Cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to release config file (.cue)")
	Cmd.Flags().StringVar(&eventsPath, "events", "-", "Path to JSON-lines event stream (default stdin)")
}
