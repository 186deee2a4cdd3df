package main

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/ArchiveChaine/archivechaine"
	"github.com/spf13/cobra"
)

// validatedConfig reads the environment configuration and enforces the
// required credential before anything touches the network.
func validatedConfig() (archivechaine.Config, error) {
	cfg := archivechaine.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newTracker dials a fresh client connection and wraps it in a
// Tracker wired to the logging flags. Each tracked operation owns its
// own connection.
func newTracker(cmd *cobra.Command, cfg archivechaine.Config) (*archivechaine.Tracker, error) {
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")

	client, err := archivechaine.Dial(cfg)
	if err != nil {
		return nil, err
	}

	tracker := &archivechaine.Tracker{
		Client:           client,
		EnableLog:        !quiet,
		EnableVerboseLog: !quiet && verbose,
	}
	tracker.Validate()

	return tracker, nil
}

func parseInputFile(path string) ([]string, error) {
	// Open file
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Fetch each line from file
	urls := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		urls = append(urls, text)
	}

	return urls, scanner.Err()
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
