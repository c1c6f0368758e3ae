package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/foldfit/foldfit/internal/store"
	"github.com/spf13/cobra"
)

var (
	jobsDataDir   string
	olderThanDays int
	forceClean    bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage stored fit records",
	Long: `Manage the fit records persisted by the run and serve commands, including
listing, inspecting and cleaning old records.`,
}

var listJobsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored fit records",
	Long:  `Display all stored fits with job ID, timestamp, generations, objective and size on disk.`,
	RunE:  runListJobs,
}

var showJobCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one fit record",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowJob,
}

var deleteJobCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete one fit record",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteJob,
}

var cleanJobsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old fit records",
	Long:  `Delete fit records older than the given age, trace files included.`,
	RunE:  runCleanJobs,
}

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.AddCommand(listJobsCmd)
	jobsCmd.AddCommand(showJobCmd)
	jobsCmd.AddCommand(deleteJobCmd)
	jobsCmd.AddCommand(cleanJobsCmd)

	jobsCmd.PersistentFlags().StringVar(&jobsDataDir, "data-dir", "./data", "Base directory for fit records and traces")

	cleanJobsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete records older than N days (required)")
	cleanJobsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func runListJobs(cmd *cobra.Command, args []string) error {
	fitStore, err := store.NewFSStore(jobsDataDir)
	if err != nil {
		return fmt.Errorf("failed to create fit store: %w", err)
	}

	infos, err := fitStore.ListRecords()
	if err != nil {
		return fmt.Errorf("failed to list fit records: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No fit records found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tTIMESTAMP\tGENERATIONS\tOBJECTIVE\tCONVERGED\tSIZE")
	fmt.Fprintln(w, "------\t---------\t-----------\t---------\t---------\t----")

	for _, info := range infos {
		jobDir := filepath.Join(jobsDataDir, "fits", info.JobID)
		size, err := getDirSize(jobDir)
		sizeStr := "unknown"
		if err == nil {
			sizeStr = formatBytes(size)
		}

		timestamp := info.Timestamp.Format("2006-01-02 15:04:05")

		// Truncate job ID for display
		displayID := info.JobID
		if len(displayID) > 12 {
			displayID = displayID[:12] + "..."
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%.6f\t%v\t%s\n",
			displayID,
			timestamp,
			info.Generations,
			info.Objective,
			info.Converged,
			sizeStr,
		)
	}

	w.Flush()

	fmt.Printf("\nTotal fit records: %d\n", len(infos))
	return nil
}

func runShowJob(cmd *cobra.Command, args []string) error {
	fitStore, err := store.NewFSStore(jobsDataDir)
	if err != nil {
		return fmt.Errorf("failed to create fit store: %w", err)
	}

	record, err := fitStore.LoadRecord(args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize fit record: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runDeleteJob(cmd *cobra.Command, args []string) error {
	fitStore, err := store.NewFSStore(jobsDataDir)
	if err != nil {
		return fmt.Errorf("failed to create fit store: %w", err)
	}

	if err := fitStore.DeleteRecord(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted fit record %s\n", args[0])
	return nil
}

func runCleanJobs(cmd *cobra.Command, args []string) error {
	if olderThanDays <= 0 {
		return fmt.Errorf("must specify --older-than with a positive number of days")
	}

	fitStore, err := store.NewFSStore(jobsDataDir)
	if err != nil {
		return fmt.Errorf("failed to create fit store: %w", err)
	}

	infos, err := fitStore.ListRecords()
	if err != nil {
		return fmt.Errorf("failed to list fit records: %w", err)
	}

	toDelete := selectRecordsForDeletion(infos, olderThanDays)

	if len(toDelete) == 0 {
		fmt.Println("No fit records match deletion criteria.")
		return nil
	}

	fmt.Printf("Found %d fit record(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		displayID := info.JobID
		if len(displayID) > 12 {
			displayID = displayID[:12] + "..."
		}
		fmt.Printf("  - %s (generations %d, %s)\n",
			displayID,
			info.Generations,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	// Ask for confirmation unless --force is set
	if !forceClean {
		fmt.Print("\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted := 0
	failed := 0
	for _, info := range toDelete {
		if err := fitStore.DeleteRecord(info.JobID); err != nil {
			slog.Error("Failed to delete fit record", "job_id", info.JobID, "error", err)
			failed++
		} else {
			slog.Info("Deleted fit record", "job_id", info.JobID)
			deleted++
		}
	}

	fmt.Printf("\nDeleted %d fit record(s), %d failed.\n", deleted, failed)
	return nil
}

// selectRecordsForDeletion picks the fit records older than the retention age
func selectRecordsForDeletion(infos []store.RecordInfo, olderThanDays int) []store.RecordInfo {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	var toDelete []store.RecordInfo
	for _, info := range infos {
		if info.Timestamp.Before(cutoff) {
			toDelete = append(toDelete, info)
		}
	}
	return toDelete
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
