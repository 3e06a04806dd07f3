package chart

import (
	"fmt"
	"path/filepath"

	"go.uber.org/multierr"
	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg/draw"
)

// Comparison writes one effort and command chart per joint of the joint-state
// table into outDir and returns the files written. All charts share one time
// range and one value range with a 10% margin. A chart that fails is
// reported in the returned error and the others are still written. A table
// without effort columns yields no charts and no error.
func Comparison(in *Inputs, outDir string, opts Options) ([]string, error) {
	opts = opts.withDefaults()
	joints := AvailableJoints(in.JointStates.Header)
	if len(joints) == 0 {
		opts.Logger.Warnw("no joint effort data found", "file", in.JointStates.Path)
		return nil, nil
	}
	opts.Logger.Infow("found data for joints", "joints", joints)
	if err := opts.Fs.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	var values extent
	for _, n := range joints {
		if v, err := in.JointStates.Floats(EffortColumn(n)); err == nil {
			values.add(v)
		}
		if in.Commands.Has(CommandColumn(n)) {
			if v, err := in.Commands.Floats(CommandColumn(n)); err == nil {
				values.add(v)
			}
		}
	}
	times, values := in.timeExtent(), values.padded(0.1)

	var written []string
	var errs error
	for _, n := range joints {
		path := filepath.Join(outDir, ComparisonFile(n))
		if err := comparison(in, n, path, times, values, opts); err != nil {
			opts.Logger.Errorw("chart failed", "joint", n, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("joint %d: %w", n, err))
			continue
		}
		opts.Logger.Infow("saved plot", "file", path)
		written = append(written, path)
	}
	return written, errs
}

func comparison(in *Inputs, n int, path string, times, values extent, opts Options) error {
	effort, err := series(in.JointStates, in.jointTimes, EffortColumn(n))
	if err != nil {
		return err
	}
	p := newPlot(opts.Location)
	p.Title.Text = fmt.Sprintf("Joint %d Effort and Command Comparison", n)
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Effort/Command Value"
	if err := addScatter(p, effort, "Measured Effort", draw.CircleGlyph{}, colornames.Steelblue, 0.6); err != nil {
		return err
	}
	if col := CommandColumn(n); in.Commands.Has(col) {
		cmd, err := series(in.Commands, in.commandTimes, col)
		if err != nil {
			return err
		}
		if err := addScatter(p, cmd, "Command", draw.CrossGlyph{}, colornames.Darkorange, 0.1); err != nil {
			return err
		}
	}
	setRange(&p.X, times)
	setRange(&p.Y, values)
	return save(opts.Fs, path, comparisonWidth, comparisonHeight, opts.DPI, drawPlot(p))
}

func drawPlot(p *plot.Plot) func(draw.Canvas) error {
	return func(dc draw.Canvas) error {
		p.Draw(dc)
		return nil
	}
}
