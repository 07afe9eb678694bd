package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/heatmap/pkg/colorscheme"
	pkgio "github.com/matzehuels/heatmap/pkg/io"
	"github.com/matzehuels/heatmap/pkg/legend"
	"github.com/matzehuels/heatmap/pkg/pipeline"
)

type legendFlags struct {
	output   string
	scheme   string
	min      float64
	max      float64
	minText  string
	maxText  string
	vertical bool
	noText   bool
	opts     legend.Options
}

// legendCommand renders a legend strip without rendering points, for density
// ranges reported by an earlier render.
func (c *CLI) legendCommand() *cobra.Command {
	flags := legendFlags{opts: legend.DefaultOptions()}

	cmd := &cobra.Command{
		Use:     "legend",
		Short:   "Render a legend strip for a colour scheme",
		Example: `  heatmap legend --scheme fire --min 0 --max 1500 -o legend.png`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o := flags.opts
			o.Vertical = flags.vertical
			if o.Vertical && !cmd.Flags().Changed("width") && !cmd.Flags().Changed("height") {
				o.Width, o.Height = o.Height, o.Width
			}
			o.ShowText = !flags.noText
			o.MinText, o.MaxText = flags.minText, flags.maxText
			return runLegend(flags.scheme, flags.min, flags.max, o, flags.output)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "legend.png", "output file")
	f.StringVarP(&flags.scheme, "scheme", "s", pipeline.DefaultScheme, "colour scheme")
	f.Float64Var(&flags.min, "min", 0, "density at the sparse end")
	f.Float64Var(&flags.max, "max", 1, "density at the dense end")
	f.StringVar(&flags.minText, "min-text", "", "label for the sparse end (default the formatted --min)")
	f.StringVar(&flags.maxText, "max-text", "", "label for the dense end (default the formatted --max)")
	f.BoolVar(&flags.vertical, "vertical", false, "draw the strip top to bottom")
	f.BoolVar(&flags.noText, "no-text", false, "omit the labels")
	f.IntVar(&flags.opts.Width, "width", flags.opts.Width, "width in pixels")
	f.IntVar(&flags.opts.Height, "height", flags.opts.Height, "height in pixels")
	f.IntVar(&flags.opts.Opacity, "opacity", flags.opts.Opacity, "alpha of the colour strip, 0-255")
	f.IntVar(&flags.opts.XBorder, "x-border", flags.opts.XBorder, "horizontal border in pixels")
	f.IntVar(&flags.opts.YBorder, "y-border", flags.opts.YBorder, "vertical border in pixels")
	f.StringVar(&flags.opts.BorderColor, "border-color", flags.opts.BorderColor, "border colour as hex")
	f.StringVar(&flags.opts.TextColor, "text-color", flags.opts.TextColor, "label colour as hex")

	return cmd
}

func runLegend(name string, minF, maxF float64, o legend.Options, output string) error {
	scheme, err := colorscheme.Get(name)
	if err != nil {
		return err
	}
	img, err := legend.Render(scheme, minF, maxF, o)
	if err != nil {
		return err
	}
	data, err := pkgio.EncodeBytes(img, pkgio.FormatPNG)
	if err != nil {
		return err
	}
	if err := pkgio.WriteFile(output, data); err != nil {
		return err
	}
	printSuccess("Rendered %s legend", name)
	printFile(output)
	return nil
}
