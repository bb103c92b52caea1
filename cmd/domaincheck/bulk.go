package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	domaincheck "github.com/FranksOps/domaincheck"
)

func bulkCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Stream availability results for a large list of domains",
		Long: "bulk reads one label per line from --file (or stdin if omitted) and " +
			"prints each DomainResult as it completes, rather than waiting for the " +
			"whole list like check does.",
		RunE: func(cmd *cobra.Command, args []string) error {
			labels, err := readLabels(file)
			if err != nil {
				return err
			}
			if len(labels) == 0 {
				return fmt.Errorf("context: no labels to check")
			}

			cfg, err := buildConfiguration(cmd)
			if err != nil {
				return err
			}
			store, err := buildBootstrapStore(cmd)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}
			stopMetrics, err := startMetricsServerIfRequested(cmd)
			if err != nil {
				return err
			}
			defer stopMetrics()

			var opts []domaincheck.Option
			if store != nil {
				opts = append(opts, domaincheck.WithBootstrapStore(store))
			}
			eng, err := domaincheck.New(cfg, opts...)
			if err != nil {
				return err
			}

			for result := range eng.Stream(cmd.Context(), labels) {
				if err := render(cmd, []domaincheck.DomainResult{result}); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to a newline-delimited label file (default: stdin)")
	return cmd
}

func readLabels(file string) ([]string, error) {
	r := os.Stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("context: opening %s: %w", file, err)
		}
		defer f.Close()
		r = f
	}

	var labels []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	return labels, scanner.Err()
}
