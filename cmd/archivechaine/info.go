package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func infoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [archive_id]",
		Short: "Look up and print an existing archive's record",
		Args:  cobra.ExactArgs(1),
		RunE:  infoHandler,
	}

	cmd.Flags().Bool("json", false, "print the raw record as JSON")

	return cmd
}

func infoHandler(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := validatedConfig()
	if err != nil {
		return err
	}

	tracker, err := newTracker(cmd, cfg)
	if err != nil {
		return err
	}

	record, err := tracker.LookupArchive(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(record)
	}

	fmt.Printf("Archive %s\n", record.ArchiveID)
	fmt.Printf("  URL:             %s\n", record.URL)
	fmt.Printf("  Title:           %s\n", record.Metadata.Title)
	fmt.Printf("  Status:          %s\n", record.Status)
	fmt.Printf("  Size:            %d bytes\n", record.Size)
	fmt.Printf("  Created at:      %s\n", record.CreatedAt.Format(time.RFC3339))
	if record.CompletedAt != nil {
		fmt.Printf("  Completed at:    %s\n", record.CompletedAt.Format(time.RFC3339))
	}
	fmt.Printf("  Replicas:        %d\n", len(record.Replicas))
	fmt.Printf("  Integrity score: %.2f\n", record.StorageInfo.IntegrityScore)
	if record.AccessURLs.View != "" {
		fmt.Printf("  View URL:        %s\n", record.AccessURLs.View)
	}

	return nil
}
