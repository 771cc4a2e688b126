package cmd

import (
	"context"

	"github.com/signalnine/gauntlet/internal/config"
	"github.com/signalnine/gauntlet/internal/matrix"
	"github.com/spf13/cobra"
)

var (
	flagCheckpoint    string
	flagActionDecoder string
	flagModelFamily   string
	flagTrials        int
	flagSeed          int
	flagOutputDir     string
	flagSuites        []string
	flagLevels        []int
	flagImage         string
	flagEnvFile       string
	flagSkipExisting  bool
	flagDryRun        bool
	flagVerboseErrors bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the evaluation matrix",
		RunE:  runMatrix,
	}
	cmd.Flags().StringVar(&flagCheckpoint, "checkpoint", "", "override checkpoint path")
	cmd.Flags().StringVar(&flagActionDecoder, "action-decoder", "", "override action decoder path")
	cmd.Flags().StringVar(&flagModelFamily, "model-family", "", "override model family")
	cmd.Flags().IntVar(&flagTrials, "trials", 0, "override trials per task")
	cmd.Flags().IntVar(&flagSeed, "seed", 0, "override random seed")
	cmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "override output directory")
	cmd.Flags().StringSliceVar(&flagSuites, "suites", nil, "override task suite list")
	cmd.Flags().IntSliceVar(&flagLevels, "levels", nil, "override task level list")
	cmd.Flags().StringVar(&flagImage, "image", "", "run the evaluation program in a container image")
	cmd.Flags().StringVar(&flagEnvFile, "env-file", "", "KEY=VALUE file appended to the child environment")
	cmd.Flags().BoolVar(&flagSkipExisting, "skip-existing", false, "skip cells whose prior log already has a result")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print invocations without executing")
	cmd.Flags().BoolVar(&flagVerboseErrors, "verbose-errors", false, "print log excerpts for failed cells")
	return cmd
}

func runMatrix(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyOverrides(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	return matrix.Run(context.Background(), cfg)
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	if flagCheckpoint != "" {
		cfg.Checkpoint = flagCheckpoint
	}
	if flagActionDecoder != "" {
		cfg.ActionDecoder = flagActionDecoder
	}
	if flagModelFamily != "" {
		cfg.ModelFamily = flagModelFamily
	}
	if flagTrials > 0 {
		cfg.TrialsPerTask = flagTrials
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = flagSeed
	}
	if flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}
	if len(flagSuites) > 0 {
		cfg.Suites = flagSuites
	}
	if len(flagLevels) > 0 {
		cfg.Levels = flagLevels
	}
	if flagImage != "" {
		cfg.Eval.Image = flagImage
	}
	if flagEnvFile != "" {
		cfg.Eval.EnvFile = flagEnvFile
	}
	if flagSkipExisting {
		cfg.SkipExisting = true
	}
	cfg.DryRun = flagDryRun
	cfg.VerboseErrors = flagVerboseErrors
}
