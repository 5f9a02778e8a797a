package cli

import (
	"github.com/spf13/cobra"

	"github.com/feastradar/feastradar/internal/feast"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Organizer string
	Phone     string
	Menu      []string
	FoodType  string
	Desc      string
	Images    []string
	Date      string
	Start     string
	End       string
	Lat       float64
	Lon       float64
	Address   string
	Landmark  string
	Capacity  int
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Announce a new feast",
		Long: `Announce a new feast at the given place and time.

Requires a signed-in session; run "feastctl sync" first on a fresh
installation.

Example:
  feastctl create --date 2026-09-01 --start 12:00:00 --end 15:00:00 \
    --menu "rice" --menu "dal" --lat 28.6139 --lon 77.2090 \
    --address "Community Hall, Sector 4" --capacity 200`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Organizer, "organizer", "", "organizer name")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "contact phone number")
	cmd.Flags().StringArrayVar(&opts.Menu, "menu", nil, "menu item (repeatable)")
	cmd.Flags().StringVar(&opts.FoodType, "food-type", "", "food type, e.g. veg")
	cmd.Flags().StringVar(&opts.Desc, "description", "", "free-form description")
	cmd.Flags().StringArrayVar(&opts.Images, "image", nil, "image URL (repeatable)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "feast date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Start, "start", "", "start time (HH:MM:SS)")
	cmd.Flags().StringVar(&opts.End, "end", "", "end time (HH:MM:SS)")
	cmd.Flags().Float64Var(&opts.Lat, "lat", 0, "latitude of the venue")
	cmd.Flags().Float64Var(&opts.Lon, "lon", 0, "longitude of the venue")
	cmd.Flags().StringVar(&opts.Address, "address", "", "street address")
	cmd.Flags().StringVar(&opts.Landmark, "landmark", "", "nearby landmark")
	cmd.Flags().IntVar(&opts.Capacity, "capacity", 0, "estimated number of people served")

	return cmd
}

func runCreate(cmd *cobra.Command, opts *CreateOptions) error {
	e, err := newEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close() //nolint:errcheck // nothing local to roll back

	draft := &feast.Draft{
		OrganizerName:     opts.Organizer,
		ContactPhone:      opts.Phone,
		MenuItems:         opts.Menu,
		FoodType:          opts.FoodType,
		Description:       opts.Desc,
		ImageURLs:         opts.Images,
		Date:              opts.Date,
		StartTime:         opts.Start,
		EndTime:           opts.End,
		Latitude:          opts.Lat,
		Longitude:         opts.Lon,
		Address:           opts.Address,
		Landmark:          opts.Landmark,
		EstimatedCapacity: opts.Capacity,
	}

	created, err := e.feasts.Create(cmd.Context(), draft)
	if err != nil {
		return err
	}

	f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Feast(created)
}
