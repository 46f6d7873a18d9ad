package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fgtools.fluvialgeomorph.org/internal/attach"
	"fgtools.fluvialgeomorph.org/internal/tools"
)

func addSurfaceFlags(cmd *cobra.Command, detrend bool) {
	cmd.Flags().String("dem", "", "ESRI ASCII grid sampled into DEM_Z")
	if detrend {
		cmd.Flags().String("detrend-dem", "", "ESRI ASCII grid sampled into Detrend_DEM_Z")
	}
}

func (c *cli) flowlinePointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flowline-points <flowline> <output>",
		Short: "Place stations along the flowline measured in kilometers from the mouth",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tools.FlowlinePointsParams{
				Flowline:        args[0],
				Output:          args[1],
				StationDistance: floatOption(cmd, "station-distance", c.cfg.Tools.StationDistance),
				KmToMouth:       floatOption(cmd, "km-to-mouth", 0),
				DEM:             stringOption(cmd, "dem", ""),
				DetrendDEM:      stringOption(cmd, "detrend-dem", ""),
				Calibration:     stringOption(cmd, "calibration", ""),
				SearchRadius:    floatOption(cmd, "search-radius", c.cfg.Tools.SearchRadius),
			}
			points, err := c.tools.FlowlinePoints(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "wrote %d station points to %s\n", len(points), p.Output)
			return nil
		},
	}
	cmd.Flags().Float64("station-distance", 0, "distance between stations in the flowline's unit (default from config)")
	cmd.Flags().Float64("km-to-mouth", 0, "river kilometer of the downstream end")
	cmd.Flags().String("calibration", "", "stations dataset of known measures")
	cmd.Flags().Float64("search-radius", 0, "calibration point search radius (default from config)")
	addSurfaceFlags(cmd, true)
	return cmd
}

func (c *cli) xsStationPointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xs-station-points <cross_sections> <output>",
		Short: "Place stations along every cross section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tools.XSStationPointsParams{
				CrossSections:   args[0],
				Output:          args[1],
				StationDistance: floatOption(cmd, "station-distance", c.cfg.Tools.StationDistance),
				DEM:             stringOption(cmd, "dem", ""),
				DetrendDEM:      stringOption(cmd, "detrend-dem", ""),
			}
			points, err := c.tools.XSStationPoints(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "wrote %d station points to %s\n", len(points), p.Output)
			return nil
		},
	}
	cmd.Flags().Float64("station-distance", 0, "distance between stations (default from config)")
	addSurfaceFlags(cmd, true)
	return cmd
}

func (c *cli) banklinePointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bankline-points <banklines> <loop_points> <output>",
		Short: "Place stations along the banklines and classify them by loop and bend",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := attach.ParseUnmatchedPolicy(stringOption(cmd, "unmatched", c.cfg.Tools.UnmatchedPolicy))
			if err != nil {
				return err
			}
			p := tools.BanklinePointsParams{
				Banklines:        args[0],
				LoopPoints:       args[1],
				Output:           args[2],
				Valleyline:       stringOption(cmd, "valleyline", ""),
				StationDistance:  floatOption(cmd, "station-distance", c.cfg.Tools.StationDistance),
				DEM:              stringOption(cmd, "dem", ""),
				LoopSnapDistance: floatOption(cmd, "loop-snap-distance", c.cfg.Tools.LoopSnapDistance),
				LoopTolerance:    floatOption(cmd, "loop-tolerance", c.cfg.Tools.LoopTolerance),
				UnmatchedPolicy:  policy,
			}
			points, err := c.tools.BanklinePoints(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "wrote %d bankline points to %s\n", len(points), p.Output)
			return nil
		},
	}
	cmd.Flags().String("valleyline", "", "lines dataset joined onto each bankline point")
	cmd.Flags().Float64("station-distance", 0, "distance between stations (default from config)")
	cmd.Flags().Float64("loop-snap-distance", 0, "how far loop points may snap onto a bankline (default from config)")
	cmd.Flags().Float64("loop-tolerance", 0, "measure tolerance when deriving bend ranges (default from config)")
	cmd.Flags().String("unmatched", "", "what to do with unmatched valley joins (null|drop|fail)")
	addSurfaceFlags(cmd, false)
	return cmd
}
