package main

import (
	"fmt"

	"github.com/ArchiveChaine/archivechaine"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

func main() {
	// Prepare cmd
	cmd := &cobra.Command{
		Use:   "archivechaine [url1] [url2] ... [urlN]",
		Short: "CLI client for the ArchiveChain archival network",
		Long: "Submits URLs to the ArchiveChain network for archiving and tracks " +
			"each submission to completion. Credentials are read from the " +
			"ARCHIVECHAIN_API_KEY, ARCHIVECHAIN_API_URL and ARCHIVECHAIN_NETWORK " +
			"environment variables.",
		SilenceUsage: true,
		RunE:         archiveHandler,
	}

	cmd.Flags().StringP("input", "i", "", "path to file which contains URLs")
	cmd.Flags().StringArrayP("tag", "t", nil, "tag attached to the archive (repeatable)")
	cmd.Flags().String("priority", string(archivechaine.PriorityNormal), "archival priority (low, normal, high)")

	cmd.Flags().Bool("no-assets", false, "skip CSS, JS and images")
	cmd.Flags().Int("max-depth", archivechaine.DefaultOptions.MaxDepth, "maximum crawl depth")
	cmd.Flags().Bool("keep-js", false, "preserve JavaScript in the archive")
	cmd.Flags().Int("timeout", archivechaine.DefaultOptions.Timeout, "server-side archival timeout in seconds")
	cmd.Flags().Int64("max-concurrent", 4, "max URLs tracked at a time")

	cmd.PersistentFlags().BoolP("quiet", "q", false, "disable logging")
	cmd.PersistentFlags().Bool("verbose", false, "more verbose logging")

	cmd.AddCommand(infoCmd(), searchCmd(), getCmd())

	// Execute
	err := cmd.Execute()
	if err != nil {
		logrus.Fatalln(err)
	}
}

func archiveHandler(cmd *cobra.Command, args []string) error {
	// Parse flags
	inputPath, _ := cmd.Flags().GetString("input")
	tags, _ := cmd.Flags().GetStringArray("tag")
	priority, _ := cmd.Flags().GetString("priority")

	noAssets, _ := cmd.Flags().GetBool("no-assets")
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	keepJS, _ := cmd.Flags().GetBool("keep-js")
	timeout, _ := cmd.Flags().GetInt("timeout")
	maxConcurrent, _ := cmd.Flags().GetInt64("max-concurrent")

	// Create initial list of URLs
	urls := append([]string{}, args...)
	if inputPath != "" {
		fileURLs, err := parseInputFile(inputPath)
		if err != nil {
			return err
		}
		urls = append(urls, fileURLs...)
	}
	urls = uniqueStrings(urls)

	if len(urls) == 0 {
		return fmt.Errorf("no url to process")
	}

	// Fail on configuration problems before anything touches the
	// network.
	cfg, err := validatedConfig()
	if err != nil {
		return err
	}

	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	opts := []archivechaine.SubmitOption{
		archivechaine.WithPriority(archivechaine.Priority(priority)),
		archivechaine.WithOptions(archivechaine.Options{
			IncludeAssets:      !noAssets,
			MaxDepth:           maxDepth,
			PreserveJavaScript: keepJS,
			Timeout:            timeout,
		}),
	}
	if len(tags) > 0 {
		opts = append(opts, archivechaine.WithTags(tags...))
	}

	// Track each URL in its own connection, bounded by the semaphore.
	group, ctx := errgroup.WithContext(cmd.Context())
	sem := semaphore.NewWeighted(maxConcurrent)

	for _, url := range urls {
		url := url
		group.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			tracker, err := newTracker(cmd, cfg)
			if err != nil {
				return err
			}

			result, err := tracker.SubmitAndTrack(ctx, url, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", url, err)
			}

			fmt.Printf("%s archived as %s (%d bytes)\n", url, result.Handle.ArchiveID, result.FinalSize)
			if result.ViewURL != "" {
				fmt.Printf("view: %s\n", result.ViewURL)
			}
			return nil
		})
	}

	return group.Wait()
}
