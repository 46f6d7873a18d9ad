package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/tools"
)

// errChecksFailed makes xs-check exit non-zero after printing its report.
var errChecksFailed = errors.New("cross section checks failed")

func (c *cli) xsLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xs-layout <flowline> <output>",
		Short: "Lay cross sections perpendicular to the flowline",
		Long: "One cross section is placed at the middle of each --spacing piece of the\n" +
			"flowline, or of each flowline segment when --spacing is 0.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var unit models.LinearUnit
			if s := stringOption(cmd, "width-unit", ""); s != "" {
				u, err := models.ParseLinearUnit(s)
				if err != nil {
					return err
				}
				unit = u
			}
			records, err := c.tools.XSLayout(cmd.Context(), tools.XSLayoutParams{
				Flowline:  args[0],
				Output:    args[1],
				Spacing:   floatOption(cmd, "spacing", 0),
				HalfWidth: floatOption(cmd, "half-width", 0),
				WidthUnit: unit,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "wrote %d cross sections to %s\n", len(records), args[1])
			return nil
		},
	}
	cmd.Flags().Float64("spacing", 0, "distance between cross sections in the flowline's unit")
	cmd.Flags().Float64("half-width", 0, "distance from the flowline to each cross section end")
	cmd.Flags().String("width-unit", "", "linear unit of --half-width (default the flowline's)")
	return cmd
}

func (c *cli) xsRiverPositionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xs-river-position <cross_sections> <flowline> [flowline_points]",
		Short: "Set each cross section's river position from the flowline stations or route",
		Long: "Without flowline_points the river position is the flowline route's kilometer\n" +
			"measure at the crossing, counted from --km-to-mouth.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tools.XSRiverPositionParams{
				CrossSections: args[0],
				Flowline:      args[1],
				KmToMouth:     floatOption(cmd, "km-to-mouth", 0),
			}
			if len(args) == 3 {
				p.FlowlinePoints = args[2]
			}
			records, err := c.tools.XSRiverPosition(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "updated river position on %d cross sections\n", len(records))
			return nil
		},
	}
	cmd.Flags().Float64("km-to-mouth", 0, "river kilometer of the flowline's downstream end")
	return cmd
}

func (c *cli) xsWatershedAreaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xs-watershed-area <cross_sections> <flowline> <flow_accum>",
		Short: "Set each cross section's upstream drainage area in square miles",
		Long:  "flow_accum is an ESRI ASCII grid of D8 cell counts, such as the ad8.asc\nwritten by contributing-area.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var unit models.LinearUnit
			if s := stringOption(cmd, "unit", ""); s != "" {
				u, err := models.ParseLinearUnit(s)
				if err != nil {
					return err
				}
				unit = u
			}
			records, err := c.tools.XSWatershedArea(cmd.Context(), tools.XSWatershedAreaParams{
				CrossSections: args[0],
				Flowline:      args[1],
				FlowAccum:     args[2],
				SnapDistance:  floatOption(cmd, "snap-distance", c.cfg.Tools.SnapDistance),
				Unit:          unit,
				Workers:       intOption(cmd, "workers", c.cfg.Tools.Workers),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "updated watershed area on %d cross sections\n", len(records))
			return nil
		},
	}
	cmd.Flags().Float64("snap-distance", 0, "pour point snap distance (default from config)")
	cmd.Flags().String("unit", "", "linear unit of the grid when it has no .prj file")
	cmd.Flags().Int("workers", 0, "cross sections processed in parallel (default from config)")
	return cmd
}

func (c *cli) xsResequenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xs-resequence <cross_sections>",
		Short: "Renumber cross sections by river position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, _ := cmd.Flags().GetInt("start")
			records, err := c.tools.XSResequence(cmd.Context(), args[0], start)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "resequenced %d cross sections from %d\n", len(records), start)
			return nil
		},
	}
	cmd.Flags().Int("start", 1, "first sequence number")
	return cmd
}

func (c *cli) xsAssignLoopsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xs-assign-loops <cross_sections> <bankline_points>",
		Short: "Assign the meander loop and bend of the nearest bankline point to each cross section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			radius := floatOption(cmd, "radius", c.cfg.Tools.XSLoopRadius)
			records, err := c.tools.XSAssignLoops(cmd.Context(), args[0], args[1], radius)
			if err != nil {
				return err
			}
			assigned := 0
			for _, r := range records {
				if r.Loop != nil {
					assigned++
				}
			}
			fmt.Fprintf(c.out, "assigned loops to %d of %d cross sections\n", assigned, len(records))
			return nil
		},
	}
	cmd.Flags().Float64("radius", 0, "search radius around each cross section (default from config)")
	return cmd
}

func (c *cli) xsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "xs-check <cross_sections>",
		Short: "Check cross section sequence numbers and downstream ordering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.tools.XSCheck(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.OK() {
				return errChecksFailed
			}
			return nil
		},
	}
}

func (c *cli) contributingAreaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contributing-area <dem> <output_dir>",
		Short: "Run pit removal, flow direction and contributing area on a DEM",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.tools.ContributingArea(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "filled:            %s\n", out.Filled)
			fmt.Fprintf(c.out, "flow direction:    %s\n", out.FlowDirD8)
			fmt.Fprintf(c.out, "flow accumulation: %s\n", out.FlowAccumGrid)
			fmt.Fprintf(c.out, "flow angle:        %s\n", out.FlowAngle)
			fmt.Fprintf(c.out, "slope:             %s\n", out.Slope)
			fmt.Fprintf(c.out, "contributing area: %s\n", out.ContributingArea)
			return nil
		},
	}
	return cmd
}

func (c *cli) streamNetworkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stream-network <contributing_area> <threshold>",
		Short: "Threshold a contributing area raster into a stream raster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("%w: threshold %q is not a number", models.ErrInvalidParameter, args[1])
			}
			out, err := c.tools.StreamNetwork(cmd.Context(), args[0], threshold)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "streams: %s\n", out.StreamsGrid)
			return nil
		},
	}
}
