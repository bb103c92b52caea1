package main

import (
	"github.com/spf13/cobra"

	domaincheck "github.com/FranksOps/domaincheck"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <domain> [domain...]",
		Short: "Check one or more domains and print their availability",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			results := eng.Batch(cmd.Context(), args)
			return render(cmd, results)
		},
	}
}
