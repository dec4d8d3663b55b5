// cmd/ecycle/estimate.go
package main

import (
	"fmt"
	"text/tabwriter"

	estimatevalue "ecycle-workers/internal/workers/ewaste/estimate-value"

	"github.com/spf13/cobra"
)

func estimateCmd(opts *rootOptions) *cobra.Command {
	var table bool

	cmd := &cobra.Command{
		Use:   "estimate [file]",
		Short: "Estimate the value of devices",
		Long: `Reads an estimate-value document ({"items": [...]}) from a file or stdin
and prints the estimate. Items use category, condition, age_years, brand and
quantity, exactly as the worker accepts them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			handler := estimatevalue.NewHandler(estimatevalue.LoadConfig(), nil, nil, opts.logger())
			out, err := handler.ExecuteJSON(cmd.Context(), payload)
			if err != nil {
				return describeError(err)
			}

			if !table {
				return printJSON(cmd, out)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tCONDITION\tBRAND\tQTY\tMIN\tMAX\tSUGGESTION")
			for _, item := range out.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					item.Category, item.Condition, item.BrandKey, item.Quantity,
					item.EstimatedMinTotal, item.EstimatedMaxTotal, item.Suggestion.Type)
			}
			fmt.Fprintf(w, "TOTAL\t\t\t\t%d\t%d\t\n", out.TotalMinValue, out.TotalMaxValue)
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&table, "table", false, "print a table instead of JSON")
	return cmd
}
