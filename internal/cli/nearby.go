package cli

import (
	"github.com/spf13/cobra"
)

// NearbyOptions holds flags for the nearby command.
type NearbyOptions struct {
	*RootOptions
	Lat    float64
	Lon    float64
	Radius float64
}

// NewNearbyCommand creates the nearby command.
func NewNearbyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NearbyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List feasts around a point",
		Long: `List feasts around a point, ordered and annotated by the server.

Distances come from the backend; the client never recomputes them.

Example:
  feastctl nearby --lat 28.6139 --lon 77.2090 --radius 1000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNearby(cmd, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.Lat, "lat", 0, "latitude of the search point")
	cmd.Flags().Float64Var(&opts.Lon, "lon", 0, "longitude of the search point")
	cmd.Flags().Float64Var(&opts.Radius, "radius", 0, "search radius in meters (default from config)")

	return cmd
}

func runNearby(cmd *cobra.Command, opts *NearbyOptions) error {
	e, err := newEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close() //nolint:errcheck // read-only command

	lat, lon := opts.Lat, opts.Lon
	if !cmd.Flags().Changed("lat") && !cmd.Flags().Changed("lon") {
		lat, lon = e.cfg.Location.Latitude, e.cfg.Location.Longitude
	}
	radius := opts.Radius
	if radius <= 0 {
		radius = e.cfg.Backend.RadiusMeters
	}

	feasts, err := e.feasts.Nearby(cmd.Context(), lat, lon, radius)
	if err != nil {
		return err
	}

	f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Feasts(feasts)
}
