package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *cli) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <dataset> <path>",
		Short: "Write a dataset to CSV or GeoJSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			n, err := c.tools.Export(cmd.Context(), args[0], args[1], format)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "exported %d features to %s\n", n, args[1])
			return nil
		},
	}
	cmd.Flags().String("format", "", "csv or geojson (default from the file extension)")
	return cmd
}

func (c *cli) datasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the datasets in the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := c.app.Workspace.ListDatasets(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tUNIT\tFEATURES")
			for _, d := range datasets {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", d.Name, d.Kind, d.LinearUnit, d.Features)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) dropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <dataset>...",
		Short: "Remove datasets from the workspace",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				if err := c.app.Workspace.DropDataset(cmd.Context(), name); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "dropped %s\n", name)
			}
			return nil
		},
	}
}
