package check

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/flarebyte/khepri-release/internal/config"
	"github.com/flarebyte/khepri-release/internal/secret"
	"github.com/spf13/cobra"
)

var cfgPath string

// report says which credential env vars are present, never their values.
type report struct {
	OK               bool   `json:"ok"`
	ConfigVersion    string `json:"configVersion"`
	RegistryTokenEnv string `json:"registryTokenEnv"`
	RegistryTokenSet bool   `json:"registryTokenSet"`
	HostingTokenEnv  string `json:"hostingTokenEnv"`
	HostingTokenSet  bool   `json:"hostingTokenSet"`
}

// Cmd implements `khepri check`: validate a config and report
// credential presence without running the pipeline.
var Cmd = &cobra.Command{
	Use:           "check",
	Short:         "Validate a release config and report credential presence",
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
		r := report{
			OK:               true,
			ConfigVersion:    cfg.ConfigVersion,
			RegistryTokenEnv: cfg.Registry.TokenEnv,
			RegistryTokenSet: secret.FromEnv(cfg.Registry.TokenEnv).IsSet(),
			HostingTokenEnv:  cfg.ReleaseAPI.TokenEnv,
			HostingTokenSet:  secret.FromEnv(cfg.ReleaseAPI.TokenEnv).IsSet(),
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(r); err != nil {
			return err
		}
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	},
}

func init() {
	Cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to release config file (.cue)")
}
