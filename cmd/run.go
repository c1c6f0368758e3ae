package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/foldfit/foldfit/internal/fit"
	"github.com/spf13/cobra"
)

var (
	problemPath   string
	resultPath    string
	progressEvery int
	patience      int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single-shot fold fit",
	Long: `Reads a fitting problem (samples, constraints and solver options) from a
JSON file, runs the configured solver and writes the result as JSON.`,
	RunE: runFit,
}

func init() {
	runCmd.Flags().StringVar(&problemPath, "problem", "", "Problem definition JSON path (required)")
	runCmd.Flags().StringVar(&resultPath, "out", "", "Result JSON path (default: stdout)")
	runCmd.Flags().IntVar(&progressEvery, "progress-every", 100, "Log progress every N generations (0 = off)")
	runCmd.Flags().IntVar(&patience, "patience", 0, "Stop the global search after N stagnant generations (0 = off)")

	runCmd.MarkFlagRequired("problem")
	rootCmd.AddCommand(runCmd)
}

func runFit(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(problemPath)
	if err != nil {
		return fmt.Errorf("failed to read problem file: %w", err)
	}

	var problem fit.Problem
	if err := json.Unmarshal(data, &problem); err != nil {
		return fmt.Errorf("failed to parse problem file: %w", err)
	}

	session, err := fit.NewSession(problem)
	if err != nil {
		return err
	}

	var stopper *fit.EarlyStopper
	if patience > 0 {
		cfg := fit.DefaultEarlyStopConfig()
		cfg.Patience = patience
		stopper = fit.NewEarlyStopper(cfg)
	}

	if progressEvery > 0 || stopper != nil {
		session.OnProgress(func(generation int, best float64) bool {
			if progressEvery > 0 && generation%progressEvery == 0 {
				slog.Info("Fit progress", "generation", generation, "best_objective", best)
			}
			if stopper != nil {
				return stopper.Step(generation, best)
			}
			return false
		})
	}

	result, err := session.Run()
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	if resultPath == "" {
		fmt.Println(string(out))
	} else {
		if err := os.WriteFile(resultPath, out, 0644); err != nil {
			return fmt.Errorf("failed to write result file: %w", err)
		}
		fmt.Printf("Wrote %s (objective: %.4f -> %.4f, converged: %v)\n",
			resultPath, result.InitialObjective, result.Objective, result.Converged)
	}

	return nil
}
