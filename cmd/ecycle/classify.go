// cmd/ecycle/classify.go
package main

import (
	"time"

	"ecycle-workers/internal/common/config"
	"ecycle-workers/internal/vision"
	classifyitem "ecycle-workers/internal/workers/ewaste/classify-item"

	"github.com/spf13/cobra"
)

func classifyCmd(opts *rootOptions) *cobra.Command {
	var (
		visionURL     string
		visionTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Decide the disposal category for predictions",
		Long: `Reads a classify-item document ({"predictions": [...], "category": ...})
from a file or stdin and prints the decision.

A document carrying only "imageUrl" is sent to the vision service given by
--vision-url.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var vis vision.Classifier
			if visionURL != "" {
				vis = vision.NewClient(config.VisionConfig{
					BaseURL: visionURL,
					Timeout: int(visionTimeout / time.Millisecond),
				})
			}

			handler := classifyitem.NewHandler(classifyitem.LoadConfig(), vis, nil, nil, opts.logger())
			out, err := handler.ExecuteJSON(cmd.Context(), payload)
			if err != nil {
				return describeError(err)
			}
			return printJSON(cmd, out)
		},
	}

	cmd.Flags().StringVar(&visionURL, "vision-url", "", "base URL of the vision service")
	cmd.Flags().DurationVar(&visionTimeout, "vision-timeout", 15*time.Second, "vision request timeout")
	return cmd
}
