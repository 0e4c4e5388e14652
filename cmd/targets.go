package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/tvrel/internal/target"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the supported release targets",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, t := range target.Supported {
			cross := ""
			if t.Cross {
				cross = "cross"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-28s\t%s/%s\t%s\t%s\n",
				t.Triple, t.OS, t.Arch, strings.TrimPrefix(t.Archive.Ext(), "."), cross)
		}
	},
}

// resolveTargets maps a comma-separated triple list to targets; an empty
// spec selects the whole matrix.
func resolveTargets(spec string) ([]target.Target, error) {
	if strings.TrimSpace(spec) == "" {
		return target.Supported, nil
	}
	var out []target.Target
	for _, triple := range strings.Split(spec, ",") {
		t, err := target.FindByTriple(strings.TrimSpace(triple))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
