package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/heatmap/pkg/errors"
	"github.com/matzehuels/heatmap/pkg/heatmap"
	"github.com/matzehuels/heatmap/pkg/httputil"
	pkgio "github.com/matzehuels/heatmap/pkg/io"
	"github.com/matzehuels/heatmap/pkg/legend"
	"github.com/matzehuels/heatmap/pkg/pipeline"
)

// renderFlags holds the command-line flags for the render command.
type renderFlags struct {
	output      string
	formats     string
	inputFormat string
	query       string
	weighted    bool

	width      int
	height     int
	dotSize    int
	opacity    int
	scheme     string
	multiplier float64
	constant   float64
	area       string

	basemap        string
	kmlHref        string
	legendVertical bool
	legendWidth    int
	legendHeight   int

	noCache bool
	refresh bool
}

// renderCommand creates the render command.
//
// Artifacts are written next to the input unless -o is given:
// points.csv renders to points.png, points.tiff, points.kml and
// points_legend.png.
func (c *CLI) renderCommand() *cobra.Command {
	return c.renderCommandWith(&renderFlags{})
}

func (c *CLI) renderCommandWith(flags *renderFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render points to a heatmap image",
		Long: `Render points read from a JSON, CSV or SQLite file.

JSON input is a flat array [x1, y1, x2, y2, ...], an array of [x, y] pairs or
an array of {"x": .., "y": ..} objects. CSV input has one x,y per line. With
--weighted every point carries a third weight value. SQLite input needs
--query selecting x, y (and weight) columns.`,
		Example: `  heatmap render points.csv --dotsize 40 --scheme fire
  heatmap render tracks.db --query "SELECT lon, lat FROM track" -f png,kml,legend
  heatmap render visits.json --weighted --area -180,-90,180,90 --basemap world.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.renderOptions(cmd, flags)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], flags, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	f.StringVarP(&flags.formats, "format", "f", "", "output format(s): png (default), tiff, kml, legend (comma-separated)")
	f.StringVar(&flags.inputFormat, "input-format", "", "input format: json, csv or sqlite (default from extension)")
	f.StringVarP(&flags.query, "query", "q", "", "SQL query selecting points (sqlite input)")
	f.BoolVarP(&flags.weighted, "weighted", "w", false, "points carry a weight")
	f.IntVar(&flags.width, "width", 0, "image width in pixels (default 1024)")
	f.IntVar(&flags.height, "height", 0, "image height in pixels (default 1024)")
	f.IntVarP(&flags.dotSize, "dotsize", "d", 0, "dot diameter in pixels (default 150)")
	f.IntVar(&flags.opacity, "opacity", pipeline.DefaultOpacity, "alpha of coloured pixels, 0-255")
	f.StringVarP(&flags.scheme, "scheme", "s", "", "colour scheme (default classic)")
	f.Float64Var(&flags.multiplier, "mult", 0, "falloff multiplier (default 2/dotsize)")
	f.Float64Var(&flags.constant, "const", 0, "falloff constant")
	f.StringVar(&flags.area, "area", "", "fixed bounds minX,minY,maxX,maxY (default fits the points)")
	f.StringVar(&flags.basemap, "basemap", "", "image to draw the heatmap onto")
	f.StringVar(&flags.kmlHref, "kml-href", "", "image path referenced by the KML overlay (default the PNG output name)")
	f.BoolVar(&flags.legendVertical, "legend-vertical", false, "draw the legend vertically")
	f.IntVar(&flags.legendWidth, "legend-width", 0, "legend width in pixels")
	f.IntVar(&flags.legendHeight, "legend-height", 0, "legend height in pixels")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable the render cache")
	f.BoolVar(&flags.refresh, "refresh", false, "re-render even when cached")

	return cmd
}

// renderOptions turns flags into pipeline options. Unchanged flags fall back
// to the profile and then to pipeline defaults.
func (c *CLI) renderOptions(cmd *cobra.Command, flags *renderFlags) (pipeline.Options, error) {
	changed := cmd.Flags().Changed
	opts := pipeline.Options{
		Width:    flags.width,
		Height:   flags.height,
		DotSize:  flags.dotSize,
		Scheme:   flags.scheme,
		Constant: flags.constant,
		Weighted: flags.weighted,
		Area:     flags.area,
		Formats:  pipeline.ParseFormats(flags.formats),
		KMLHref:  flags.kmlHref,
		Refresh:  flags.refresh,
	}
	if changed("opacity") {
		v := flags.opacity
		opts.Opacity = &v
	}
	if changed("mult") {
		v := flags.multiplier
		opts.Multiplier = &v
	}
	c.profile().Render.Apply(&opts)
	if len(opts.Formats) == 0 {
		opts.Formats = []string{pipeline.FormatPNG}
	}

	if flags.basemap != "" {
		data, err := c.readInput(cmd.Context(), flags.basemap, flags)
		if err != nil {
			return opts, fmt.Errorf("basemap: %w", err)
		}
		opts.Basemap = data
	}

	if changed("legend-vertical") || changed("legend-width") || changed("legend-height") {
		lo := legend.DefaultOptions()
		if opts.Opacity != nil {
			lo.Opacity = *opts.Opacity
		}
		if flags.legendVertical {
			lo.Vertical = true
			lo.Width, lo.Height = lo.Height, lo.Width
		}
		if flags.legendWidth > 0 {
			lo.Width = flags.legendWidth
		}
		if flags.legendHeight > 0 {
			lo.Height = flags.legendHeight
		}
		opts.Legend = &lo
	}
	return opts, nil
}

func (c *CLI) runRender(ctx context.Context, input string, flags *renderFlags, opts pipeline.Options) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		return err
	}
	paths := outputPaths(flags.output, localName(input), opts.Formats)
	if opts.KMLHref == "" {
		if png, ok := paths[pipeline.FormatPNG]; ok {
			opts.KMLHref = filepath.Base(png)
		}
	}

	spinner := newStatusSpinner(ctx, "Loading "+input)
	spinner.Start()
	defer spinner.Stop()
	points, err := c.loadPoints(ctx, input, flags, opts.Weighted)
	if err != nil {
		spinner.StopWithError("Could not load " + input)
		return err
	}
	logger.Debugf("Loaded %d points from %s", len(points), input)

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner.Update(fmt.Sprintf("Rendering %d points", len(points)))
	res, err := runner.Execute(ctx, points, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	for _, format := range sortedFormats(res.Artifacts) {
		out := paths[format]
		if err := pkgio.WriteFile(out, res.Artifacts[format]); err != nil {
			return err
		}
		logger.Debugf("Wrote %s (%d bytes)", out, len(res.Artifacts[format]))
	}

	printSuccess("Rendered %s", input)
	printStats(res)
	for _, format := range sortedFormats(res.Artifacts) {
		printFile(paths[format])
	}
	for _, w := range res.Warnings {
		printWarning("%s", w)
	}
	prog.done("Render complete", "points", res.Stats.PointCount, "formats", len(res.Artifacts))
	return nil
}

// loadPoints reads points from a local file or an http(s) URL.
func (c *CLI) loadPoints(ctx context.Context, input string, flags *renderFlags, weighted bool) ([]heatmap.Point, error) {
	if !httputil.IsURL(input) {
		return pkgio.Load(ctx, pkgio.Source{
			Path:     input,
			Format:   flags.inputFormat,
			Query:    flags.query,
			Weighted: weighted,
		})
	}
	data, err := c.newFetcher(flags.noCache).Fetch(ctx, input, flags.refresh)
	if err != nil {
		return nil, err
	}
	format := flags.inputFormat
	if format == "" {
		format = pkgio.FormatFromPath(localName(input))
	}
	return pkgio.Decode(bytes.NewReader(data), format, weighted)
}

// readInput returns the bytes of a local file or an http(s) URL.
func (c *CLI) readInput(ctx context.Context, src string, flags *renderFlags) ([]byte, error) {
	if httputil.IsURL(src) {
		return c.newFetcher(flags.noCache).Fetch(ctx, src, flags.refresh)
	}
	data, err := os.ReadFile(src)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", src)
	}
	return data, err
}

// localName is the file name part of a URL, or src itself for local paths.
func localName(src string) string {
	if !httputil.IsURL(src) {
		return src
	}
	u, err := url.Parse(src)
	if err != nil {
		return appName
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return appName
	}
	return name
}

// fileExt maps output formats to file suffixes.
var fileExt = map[string]string{
	pipeline.FormatPNG:    ".png",
	pipeline.FormatTIFF:   ".tiff",
	pipeline.FormatKML:    ".kml",
	pipeline.FormatLegend: "_legend.png",
}

// outputPaths assigns a file to every requested format. A single format with
// an explicit output path writes exactly there.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" && filepath.Ext(output) != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + fileExt[f]
	}
	return paths
}

// basePath strips a known image or data extension from output, or from
// input when output is empty.
func basePath(output, input string) string {
	p := output
	if p == "" {
		p = input
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".png", ".tif", ".tiff", ".kml", ".json", ".csv", ".txt", ".db", ".sqlite", ".sqlite3":
		return strings.TrimSuffix(p, filepath.Ext(p))
	}
	return p
}

func sortedFormats(artifacts map[string][]byte) []string {
	out := make([]string, 0, len(artifacts))
	for f := range artifacts {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// describeBounds formats bounds for terminal output.
func describeBounds(b heatmap.Bounds) string {
	return fmt.Sprintf("x %g..%g  y %g..%g", b.MinX, b.MaxX, b.MinY, b.MaxY)
}
