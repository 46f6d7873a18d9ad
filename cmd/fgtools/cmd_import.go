package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/tools"
)

func addUnitFlag(cmd *cobra.Command) {
	cmd.Flags().String("unit", "meter", "linear unit of the coordinates (meter|foot|us_survey_foot)")
}

func unitFlag(cmd *cobra.Command) (models.LinearUnit, error) {
	s, err := cmd.Flags().GetString("unit")
	if err != nil {
		return "", err
	}
	return models.ParseLinearUnit(s)
}

func (c *cli) importLinesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-lines <geojson> <dataset>",
		Short: "Import a GeoJSON flowline, bankline or valley line file as a lines dataset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := unitFlag(cmd)
			if err != nil {
				return err
			}
			routeField, _ := cmd.Flags().GetString("route-field")
			n, err := c.tools.ImportLines(cmd.Context(), tools.LineImport{
				Path:       args[0],
				Dataset:    args[1],
				RouteField: routeField,
				Unit:       unit,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "imported %d lines into %s\n", n, args[1])
			return nil
		},
	}
	cmd.Flags().String("route-field", tools.DefaultRouteField, "property identifying the route of each line")
	addUnitFlag(cmd)
	return cmd
}

func (c *cli) importLoopPointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-loop-points <geojson> <dataset>",
		Short: "Import meander loop points carrying loop, bend and position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := unitFlag(cmd)
			if err != nil {
				return err
			}
			n, err := c.tools.ImportLoopPoints(cmd.Context(), args[0], args[1], unit)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "imported %d loop points into %s\n", n, args[1])
			return nil
		},
	}
	addUnitFlag(cmd)
	return cmd
}

func (c *cli) importCrossSectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-cross-sections <geojson> <dataset>",
		Short: "Import cross section lines keyed by their sequence field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := unitFlag(cmd)
			if err != nil {
				return err
			}
			seqField, _ := cmd.Flags().GetString("seq-field")
			n, err := c.tools.ImportCrossSections(cmd.Context(), args[0], args[1], seqField, unit)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "imported %d cross sections into %s\n", n, args[1])
			return nil
		},
	}
	cmd.Flags().String("seq-field", tools.DefaultSeqField, "property holding the cross section sequence number")
	addUnitFlag(cmd)
	return cmd
}

func (c *cli) importPointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-points <geojson> <dataset>",
		Short: "Import measured points, such as calibration points, as a stations dataset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := unitFlag(cmd)
			if err != nil {
				return err
			}
			routeField, _ := cmd.Flags().GetString("route-field")
			measureField, _ := cmd.Flags().GetString("measure-field")
			n, err := c.tools.ImportStationPoints(cmd.Context(), tools.PointImport{
				Path:         args[0],
				Dataset:      args[1],
				RouteField:   routeField,
				MeasureField: measureField,
				Unit:         unit,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "imported %d points into %s\n", n, args[1])
			return nil
		},
	}
	cmd.Flags().String("route-field", tools.DefaultRouteField, "property identifying the route of each point")
	cmd.Flags().String("measure-field", "POINT_M", "property holding the known measure")
	addUnitFlag(cmd)
	return cmd
}
