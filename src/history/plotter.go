package history

import (
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"mvagent/src/datamodels"
	"mvagent/src/utils/errors"
)

// HistoryPlotter renders an agent's sample window as a grid of time series,
// one subplot per tracked quantity, and saves the result to an image file.
type HistoryPlotter struct {
	samples  []datamodels.HistorySample
	filename string
}

func NewHistoryPlotter() *HistoryPlotter {
	return &HistoryPlotter{}
}

func (pb *HistoryPlotter) WithSamples(samples []datamodels.HistorySample) *HistoryPlotter {
	pb.samples = samples
	return pb
}

func (pb *HistoryPlotter) WithFileOutput(filename string) *HistoryPlotter {
	pb.filename = filename
	return pb
}

func (pb *HistoryPlotter) Build() (*HistoryPlotter, error) {
	if len(pb.samples) == 0 {
		return nil, errors.New("no samples to plot")
	}
	if pb.filename == "" {
		return nil, errors.New("plot filename is not set")
	}
	return pb, nil
}

func (pb *HistoryPlotter) Plot() error {
	slog.Info("Plotting agent history", "filename", pb.filename, "samples", len(pb.samples))

	x := make([]float64, len(pb.samples))
	seriesData := map[string][]float64{
		"HoldingsValue":     make([]float64, len(pb.samples)),
		"Cash":              make([]float64, len(pb.samples)),
		"AllocatedCash":     make([]float64, len(pb.samples)),
		"ExpectedReturn":    make([]float64, len(pb.samples)),
		"PortfolioVariance": make([]float64, len(pb.samples)),
	}
	seriesKeys := []string{"HoldingsValue", "Cash", "AllocatedCash", "ExpectedReturn", "PortfolioVariance"}

	for i, sample := range pb.samples {
		x[i] = float64(sample.SimTimestamp)
		seriesData["HoldingsValue"][i] = sample.HoldingsValue
		seriesData["Cash"][i] = sample.Cash
		seriesData["AllocatedCash"][i] = sample.AllocatedCash
		seriesData["ExpectedReturn"][i] = sample.ExpectedReturn
		seriesData["PortfolioVariance"][i] = sample.PortfolioVariance
	}

	// 3 columns, and as many rows as needed
	numSeries := len(seriesKeys)
	cols := 3
	rows := (numSeries + cols - 1) / cols
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(10),
		PadBottom: vg.Points(10),
		PadLeft:   vg.Points(10),
		PadRight:  vg.Points(10),
	}

	plots := make([]*plot.Plot, numSeries)
	for i, seriesKey := range seriesKeys {
		values := seriesData[seriesKey]
		pts := make(plotter.XYs, len(x))
		for j := range pts {
			pts[j].X = x[j]
			pts[j].Y = values[j]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "failed to create line for %s", seriesKey)
		}
		line.Color = plotutil.Color(i % len(plotutil.DefaultColors))

		p := plot.New()
		p.Title.Text = seriesKey
		p.X.Label.Text = "Sim time"
		p.Y.Label.Text = seriesKey
		p.Add(line)
		p.Add(plotter.NewGrid())
		plots[i] = p
	}

	img := vgimg.New(vg.Points(800), vg.Points(600))
	dc := draw.New(img)

	plotGrid := make([][]*plot.Plot, rows)
	for i := range plotGrid {
		plotGrid[i] = make([]*plot.Plot, cols)
	}
	for i := 0; i < numSeries; i++ {
		plotGrid[i/cols][i%cols] = plots[i]
	}

	canvases := plot.Align(plotGrid, tiles, dc)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if plotGrid[i][j] != nil {
				plotGrid[i][j].Draw(canvases[i][j])
			}
		}
	}

	finalPlot := plot.New()
	finalPlot.Title.Text = "Agent History"
	finalPlot.Add(plotter.NewImage(img.Image(), 0, 0, float64(vg.Points(800).Points()), float64(vg.Points(600).Points())))

	if err := os.MkdirAll(filepath.Dir(pb.filename), 0755); err != nil {
		return err
	}
	if err := finalPlot.Save(10*vg.Inch, 8*vg.Inch, pb.filename); err != nil {
		return errors.WrapE(errors.New("failed to save plot"), err)
	}
	return nil
}
