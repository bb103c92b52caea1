package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	domaincheck "github.com/FranksOps/domaincheck"
)

// render writes results to cmd.OutOrStdout() in the format selected by the
// --output flag (or live-reloaded from the watched config file).
func render(cmd *cobra.Command, results []domaincheck.DomainResult) error {
	switch output {
	case "json":
		return renderJSON(cmd, results)
	default:
		return renderTable(cmd, results)
	}
}

func renderJSON(cmd *cobra.Command, results []domaincheck.DomainResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func renderTable(cmd *cobra.Command, results []domaincheck.DomainResult) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, r := range results {
		errField := "-"
		if r.Error != nil {
			errField = string(r.Error.Kind)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.FQDN, r.Availability, r.MethodUsed, errField, strings.Join(r.NameServers, ","))
	}
	return w.Flush()
}
