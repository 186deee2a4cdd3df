package main

import (
	"fmt"

	"github.com/ArchiveChaine/archivechaine"
	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the archive index",
		Args:  cobra.MaximumNArgs(1),
		RunE:  searchHandler,
	}

	cmd.Flags().StringArrayP("tag", "t", nil, "filter by tag (repeatable)")
	cmd.Flags().String("status", "", "filter by status (pending, processing, completed, failed, expired)")
	cmd.Flags().Int("limit", 20, "maximum number of results")
	cmd.Flags().Int("page", 1, "result page")
	cmd.Flags().Bool("json", false, "print the raw response as JSON")

	return cmd
}

func searchHandler(cmd *cobra.Command, args []string) error {
	tags, _ := cmd.Flags().GetStringArray("tag")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	page, _ := cmd.Flags().GetInt("page")
	asJSON, _ := cmd.Flags().GetBool("json")

	query := archivechaine.SearchQuery{
		Tags:   tags,
		Status: archivechaine.Status(status),
		Limit:  limit,
		Page:   page,
	}
	if len(args) > 0 {
		query.Query = args[0]
	}

	cfg, err := validatedConfig()
	if err != nil {
		return err
	}

	tracker, err := newTracker(cmd, cfg)
	if err != nil {
		return err
	}

	response, err := tracker.SearchArchives(cmd.Context(), query)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(response)
	}

	if len(response.Results) == 0 {
		fmt.Println("no archives found")
		return nil
	}

	for _, result := range response.Results {
		title := result.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %s\n", result.ArchiveID, title)
		fmt.Printf("    %s (%d bytes, archived %s)\n",
			result.URL, result.Size, result.ArchivedAt.Format("2006-01-02"))
	}
	fmt.Printf("showing %d of %d result(s), page %d\n",
		len(response.Results), response.TotalResults, response.Pagination.Page)

	return nil
}
