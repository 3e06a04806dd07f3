package chart

import (
	"fmt"
	"image/color"
	"path/filepath"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/FuminoriSugawara/rosbag2-util/table"
)

type panel struct {
	label string
	xys   plotter.XYs
	shape draw.GlyphDrawer
	color color.Color
}

// AllStates writes the command, position, velocity and current of joint n as
// four stacked charts sharing one time axis, and returns the file written.
// The joint-state table must have all three columns of the joint; a missing
// command column only leaves the command chart empty.
func AllStates(in *Inputs, n int, outDir string, opts Options) (string, error) {
	opts = opts.withDefaults()
	for _, col := range []string{EffortColumn(n), PositionColumn(n), VelocityColumn(n)} {
		if !in.JointStates.Has(col) {
			return "", &table.MissingColumnError{Path: in.JointStates.Path, Column: col}
		}
	}

	panels := []panel{
		{label: "Command", shape: draw.CrossGlyph{}, color: colornames.Darkorange},
		{label: "Position", shape: draw.CircleGlyph{}, color: colornames.Steelblue},
		{label: "Velocity", shape: draw.CircleGlyph{}, color: colornames.Seagreen},
		{label: "Current", shape: draw.CircleGlyph{}, color: colornames.Firebrick},
	}
	var err error
	if col := CommandColumn(n); in.Commands.Has(col) {
		if panels[0].xys, err = series(in.Commands, in.commandTimes, col); err != nil {
			return "", err
		}
	} else {
		opts.Logger.Warnw("command column not found", "column", col, "file", in.Commands.Path)
	}
	for i, col := range []string{PositionColumn(n), VelocityColumn(n), EffortColumn(n)} {
		if panels[i+1].xys, err = series(in.JointStates, in.jointTimes, col); err != nil {
			return "", err
		}
	}

	times := in.timeExtent()
	plots := make([][]*plot.Plot, len(panels))
	for i, pn := range panels {
		p := newPlot(opts.Location)
		p.Y.Label.Text = pn.label
		if err := addScatter(p, pn.xys, pn.label, pn.shape, pn.color, 0.6); err != nil {
			return "", err
		}
		setRange(&p.X, times)
		plots[i] = []*plot.Plot{p}
	}
	plots[len(plots)-1][0].X.Label.Text = "Time"

	if err := opts.Fs.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, AllStatesFile(n))
	title := fmt.Sprintf("Joint %d States and Command Analysis", n)
	err = save(opts.Fs, path, allStatesWidth, allStatesHeight, opts.DPI, func(dc draw.Canvas) error {
		sty := plots[0][0].Title.TextStyle
		sty.XAlign = text.XCenter
		sty.YAlign = text.YTop
		dc.FillText(sty, vg.Point{X: dc.Center().X, Y: dc.Max.Y - vg.Points(8)}, title)

		tiles := draw.Tiles{
			Rows:   len(plots),
			Cols:   1,
			PadTop: titlePadding,
			PadY:   vg.Points(10),
		}
		canvases := plot.Align(plots, tiles, dc)
		for i := range plots {
			plots[i][0].Draw(canvases[i][0])
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	opts.Logger.Infow("saved plot", "file", path)
	return path, nil
}
