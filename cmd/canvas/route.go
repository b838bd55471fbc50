package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/shared"
)

var (
	heading = color.New(color.FgHiGreen, color.Bold)
	subtle  = color.New(color.FgHiBlack)
	accent  = color.New(color.FgCyan)
)

func newRouteCommand() *cobra.Command {
	var (
		fromSide string
		toSide   string
		standOff float64
	)
	cmd := &cobra.Command{
		Use:   "route X1 Y1 W1 H1 X2 Y2 W2 H2",
		Short: "Route a connection between two rectangles",
		Long: `route prints the anchor sides and orthogonal waypoints of a connection
between two world rectangles. Sides are picked by proximity unless both
--from-side and --to-side are given.`,
		Args: cobra.ExactArgs(8),
		RunE: func(cmd *cobra.Command, args []string) error {
			nums, err := parseFloats(args)
			if err != nil {
				return err
			}
			from := geometry.R(nums[0], nums[1], nums[2], nums[3])
			to := geometry.R(nums[4], nums[5], nums[6], nums[7])
			if !from.IsFinite() || !to.IsFinite() {
				return shared.ErrInvalidGeometry
			}

			var route geometry.Route
			switch {
			case fromSide == "" && toSide == "":
				route = geometry.RouteBetween(from, to, standOff)
			default:
				fs, err := geometry.ParseSide(fromSide)
				if err != nil {
					return err
				}
				ts, err := geometry.ParseSide(toSide)
				if err != nil {
					return err
				}
				route = geometry.RouteWithSides(from, to, fs, ts, standOff)
			}
			printRoute(cmd.OutOrStdout(), from, to, route)
			return nil
		},
	}
	cmd.Flags().StringVar(&fromSide, "from-side", "", "Source anchor side (top, right, bottom, left)")
	cmd.Flags().StringVar(&toSide, "to-side", "", "Target anchor side (top, right, bottom, left)")
	cmd.Flags().Float64Var(&standOff, "stand-off", shared.RouteStandOff, "Distance a route leaves a node before turning")
	return cmd
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func printRoute(w io.Writer, from, to geometry.Rect, route geometry.Route) {
	heading.Fprintln(w, "Route")
	subtle.Fprintf(w, "  from %s\n", from)
	subtle.Fprintf(w, "  to   %s\n", to)
	fmt.Fprintf(w, "  sides  %s -> %s\n", accent.Sprint(route.FromSide), accent.Sprint(route.ToSide))
	for i, p := range route.Points {
		fmt.Fprintf(w, "  %2d  %s\n", i, p)
	}
	fmt.Fprintf(w, "  label  %s\n", accent.Sprint(route.LabelAt))
}
