// Package chart renders joint effort, state and command tables as PNG
// scatter charts.
package chart

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/FuminoriSugawara/rosbag2-util/fsutil"
	"github.com/FuminoriSugawara/rosbag2-util/table"
)

const (
	DefaultDPI       = 300
	timestampColumn  = "timestamp"
	effortSuffix     = "_effort"
	gridAlpha        = 0.3
	glyphRadius      = vg.Length(2.5)
	timeTickFormat   = "15:04:05"
	legendPadding    = vg.Length(5)
	titlePadding     = vg.Length(30)
	comparisonWidth  = 12 * vg.Inch
	comparisonHeight = 6 * vg.Inch
	allStatesWidth   = 12 * vg.Inch
	allStatesHeight  = 16 * vg.Inch
)

// Options configure rendering. The zero value writes 300 DPI charts to the
// OS file system with times shown in local time.
type Options struct {
	Fs       afero.Fs
	DPI      int
	Location *time.Location
	Logger   *zap.SugaredLogger
}

func (o Options) withDefaults() Options {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.DPI <= 0 {
		o.DPI = DefaultDPI
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	return o
}

// ComparisonFile is the file name of the effort and command chart of joint n.
func ComparisonFile(n int) string {
	return fmt.Sprintf("joint_%d_comparison.png", n)
}

// AllStatesFile is the file name of the stacked state chart of joint n.
func AllStatesFile(n int) string {
	return fmt.Sprintf("joint_%d_all_states.png", n)
}

func EffortColumn(n int) string   { return fmt.Sprintf("joint_%d_effort", n) }
func PositionColumn(n int) string { return fmt.Sprintf("joint_%d_pos", n) }
func VelocityColumn(n int) string { return fmt.Sprintf("joint_%d_vel", n) }
func CommandColumn(n int) string  { return fmt.Sprintf("command_%d", n) }

// AvailableJoints returns the joint numbers of the columns named like
// joint_<n>_effort, sorted.
func AvailableJoints(header []string) []int {
	seen := make(map[int]bool)
	var joints []int
	for _, col := range header {
		if !strings.HasSuffix(col, effortSuffix) {
			continue
		}
		parts := strings.Split(col, "_")
		if len(parts) < 2 || !isDigits(parts[1]) {
			continue
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		joints = append(joints, n)
	}
	sort.Ints(joints)
	return joints
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Inputs are a joint-state table and a command table with their timestamps
// parsed.
type Inputs struct {
	JointStates *table.Table
	Commands    *table.Table
	// Seconds since the Unix epoch for each row.
	jointTimes   []float64
	commandTimes []float64
}

// LoadInputs reads both tables. Either missing, empty or without a
// timestamp column aborts the invocation.
func LoadInputs(fs afero.Fs, jointStates, commands string, loc *time.Location) (*Inputs, error) {
	if loc == nil {
		loc = time.Local
	}
	js, err := table.Load(fs, jointStates)
	if err != nil {
		return nil, err
	}
	cmd, err := table.Load(fs, commands)
	if err != nil {
		return nil, err
	}
	in := &Inputs{JointStates: js, Commands: cmd}
	if in.jointTimes, err = unixSeconds(js, loc); err != nil {
		return nil, err
	}
	if in.commandTimes, err = unixSeconds(cmd, loc); err != nil {
		return nil, err
	}
	return in, nil
}

func unixSeconds(t *table.Table, loc *time.Location) ([]float64, error) {
	times, err := t.Times(timestampColumn, loc)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(times))
	for i, ts := range times {
		out[i] = float64(ts.UnixNano()) / 1e9
	}
	return out, nil
}

// extent is a closed value range; ok is false until a finite value is added.
type extent struct {
	min, max float64
	ok       bool
}

func (e *extent) add(vs []float64) {
	finite := make([]float64, 0, len(vs))
	for _, v := range vs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return
	}
	lo, hi := floats.Min(finite), floats.Max(finite)
	if !e.ok {
		e.min, e.max, e.ok = lo, hi, true
		return
	}
	e.min = math.Min(e.min, lo)
	e.max = math.Max(e.max, hi)
}

// padded widens e by frac of its span on both sides.
func (e extent) padded(frac float64) extent {
	m := (e.max - e.min) * frac
	return extent{e.min - m, e.max + m, e.ok}
}

func (in *Inputs) timeExtent() extent {
	var e extent
	e.add(in.jointTimes)
	e.add(in.commandTimes)
	return e
}

// series pairs times with the values of col in t.
func series(t *table.Table, times []float64, col string) (plotter.XYs, error) {
	vals, err := t.Floats(col)
	if err != nil {
		return nil, err
	}
	xys := make(plotter.XYs, 0, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: times[i], Y: v})
	}
	return xys, nil
}

func withAlpha(c color.Color, alpha float64) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(alpha * 255)}
}

func newPlot(loc *time.Location) *plot.Plot {
	p := plot.New()
	p.X.Tick.Marker = plot.TimeTicks{Format: timeTickFormat, Time: plot.UnixTimeIn(loc)}
	grid := plotter.NewGrid()
	grid.Vertical.Color = withAlpha(color.Black, gridAlpha)
	grid.Horizontal.Color = withAlpha(color.Black, gridAlpha)
	p.Add(grid)
	p.Legend.Top = true
	p.Legend.Padding = legendPadding
	return p
}

// addScatter adds xys to p unless it is empty.
func addScatter(p *plot.Plot, xys plotter.XYs, label string, shape draw.GlyphDrawer, c color.Color, alpha float64) error {
	if len(xys) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	s.GlyphStyle.Shape = shape
	s.GlyphStyle.Color = withAlpha(c, alpha)
	s.GlyphStyle.Radius = glyphRadius
	p.Add(s)
	p.Legend.Add(label, s)
	return nil
}

func setRange(a *plot.Axis, e extent) {
	if e.ok {
		a.Min, a.Max = e.min, e.max
	}
}

// save renders through draw to path at dpi and replaces path atomically.
func save(fs afero.Fs, path string, w, h vg.Length, dpi int, render func(draw.Canvas) error) error {
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))
	if err := render(draw.New(c)); err != nil {
		return err
	}
	f, err := fsutil.CreateAtomic(fs, path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Commit()
}
