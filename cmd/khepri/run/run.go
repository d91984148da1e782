package run

import (
	"fmt"
	"os"

	"github.com/flarebyte/khepri-release/internal/config"
	"github.com/flarebyte/khepri-release/internal/pipeline"
	"github.com/flarebyte/khepri-release/internal/stage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	cfgPath      string
	flagTag      string
	flagKeepWork bool
)

// Cmd represents the `khepri run` command: one pipeline run for one tag.
var Cmd = &cobra.Command{
	Use:           "run",
	Short:         "Publish the tagged version and create its release record",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgPath == "" {
			return fmt.Errorf("missing required flag: --config")
		}
		if flagTag == "" {
			return fmt.Errorf("missing required flag: --tag")
		}
		cfg, err := config.ParseRelease(cfgPath)
		if err != nil {
			return err
		}

		env := stage.Envelope{
			Tag:   flagTag,
			RunID: uuid.NewString(),
			Meta:  pipeline.MetaFromConfig(cfg, cfgPath),
		}
		out, _ := pipeline.Execute(cmd.Context(), pipeline.Nodes(), env, pipeline.DepsFromConfig(cfg))
		if !flagKeepWork {
			pipeline.CleanupWorkdirs(out)
		}
		if err := pipeline.RenderLine(os.Stdout, out); err != nil {
			return err
		}
		return evaluateRunExit(out)
	},
}

func init() {
	Cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to release config file (.cue)")
	Cmd.Flags().StringVarP(&flagTag, "tag", "t", "", "Tag to publish and release")
	Cmd.Flags().BoolVar(&flagKeepWork, "keep-work", false, "Keep per-run checkout directories")
}
