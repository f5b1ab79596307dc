package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/packforge/twpatch/internal/app"
	"github.com/packforge/twpatch/internal/core/domain"
)

func (c *CLI) newPatchCmd() *cobra.Command {
	var opts app.RunOptions

	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Resolve the load order and write the merged patch pack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, _ := cmd.Flags().GetStringToString("param")
			opts.ScriptParams = params

			path, err := c.app.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.GameKey, "game", "g", "",
		"Game key, one of: "+joinGameKeys())
	cmd.Flags().StringVarP(&opts.LoadOrderPath, "load-order", "l", "",
		"Path to the load order file (used_mods.txt)")
	cmd.Flags().StringVarP(&opts.ManifestPath, "manifest", "m", "",
		"Path to the installed content manifest")
	cmd.Flags().StringVar(&opts.SchemaDir, "schema-dir", "",
		"Directory holding per-game table schema definitions")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "",
		"Directory for the vanilla reference cache")
	cmd.Flags().StringVar(&opts.CorpusDir, "corpus-dir", "",
		"Directory holding translation corpora")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "",
		"Output directory, defaults to the manifest's data directory")

	cmd.Flags().BoolVar(&opts.EnableLogging, "enable-logging", false,
		"Enable script logging in the generated patch")
	cmd.Flags().BoolVar(&opts.SkipIntroVideos, "skip-intro-videos", false,
		"Suppress the intro movies")
	cmd.Flags().BoolVar(&opts.RemoveTraitLimit, "remove-trait-limit", false,
		"Lift the character trait cap")
	cmd.Flags().BoolVar(&opts.RemoveSiegeAttacker, "remove-siege-attacker", false,
		"Clear the siege attacker flag on non-machine units")

	cmd.Flags().Float64Var(&opts.UnitMultiplier, "unit-multiplier", 0,
		"Scale unit sizes by this factor (0 disables)")
	cmd.Flags().StringVar(&opts.TuningPath, "tuning", "",
		"Path to a tuning curve applied alongside the unit multiplier")

	cmd.Flags().StringVarP(&opts.TranslationLanguage, "language", "t", "",
		"Overlay translations for this language code")

	cmd.Flags().StringArrayVarP(&opts.ScriptPaths, "script", "s", nil,
		"SQL script to apply after merging (repeatable)")
	cmd.Flags().StringToString("param", nil,
		"Script placeholder value as key=value (repeatable)")

	for _, name := range []string{"game", "load-order", "manifest", "schema-dir", "cache-dir"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func joinGameKeys() string {
	keys := domain.GameKeys()
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += k
	}
	return out
}
