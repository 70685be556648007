// Package plot renders data projected by a metric learner.
package plot

import (
	"io"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/scigo-dml/core/model"
	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

// Default image size.
const (
	Width  = 6 * vg.Inch
	Height = 6 * vg.Inch
)

// NewProjection projects X with alg and returns a scatter plot of the first
// two components, one series per label. labels may be nil; otherwise it must
// have one entry per row of X. A one-dimensional projection is drawn on the
// horizontal axis.
func NewProjection(alg model.Projector, X mat.Matrix, labels []int, title string) (*gonumplot.Plot, error) {
	const op = "plot.NewProjection"

	projected, err := alg.Transform(X)
	if err != nil {
		return nil, err
	}
	n, _ := projected.Dims()
	if labels != nil && len(labels) != n {
		return nil, errors.NewInvalidInputError(op, "one label per sample is required",
			errors.NewDimensionError(op, n, len(labels), 0))
	}

	keys, groups := series(projected, labels)

	p := gonumplot.New()
	p.Title.Text = title
	p.X.Label.Text = "component 1"
	p.Y.Label.Text = "component 2"

	for i, k := range keys {
		s, err := plotter.NewScatter(groups[k])
		if err != nil {
			return nil, errors.Wrap(err, "build scatter")
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Shape = plotutil.Shape(i)
		p.Add(s)
		if labels != nil {
			p.Legend.Add(strconv.Itoa(k), s)
		}
	}
	return p, nil
}

// series groups the first two projected components by label. Keys are
// returned in ascending order.
func series(projected *mat.Dense, labels []int) ([]int, map[int]plotter.XYs) {
	n, c := projected.Dims()
	groups := make(map[int]plotter.XYs)
	for i := 0; i < n; i++ {
		label := 0
		if labels != nil {
			label = labels[i]
		}
		pt := plotter.XY{X: projected.At(i, 0)}
		if c > 1 {
			pt.Y = projected.At(i, 1)
		}
		groups[label] = append(groups[label], pt)
	}

	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys, groups
}

// SaveProjection writes the projection plot to path. The image format
// follows the file extension (png, svg, pdf, ...).
func SaveProjection(alg model.Projector, X mat.Matrix, labels []int, path string) error {
	p, err := NewProjection(alg, X, labels, "")
	if err != nil {
		return err
	}
	return errors.SafeExecute("plot.SaveProjection", func() error {
		if err := p.Save(Width, Height, path); err != nil {
			return errors.Wrapf(err, "save plot to %s", path)
		}
		return nil
	})
}

// WriteProjection writes the projection plot to w in the given format.
func WriteProjection(w io.Writer, alg model.Projector, X mat.Matrix, labels []int, format string) error {
	p, err := NewProjection(alg, X, labels, "")
	if err != nil {
		return err
	}
	return errors.SafeExecute("plot.WriteProjection", func() error {
		wt, err := p.WriterTo(Width, Height, format)
		if err != nil {
			return errors.Wrapf(err, "render %s plot", format)
		}
		if _, err := wt.WriteTo(w); err != nil {
			return errors.Wrap(err, "write plot")
		}
		return nil
	})
}
