package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-dml/core/model"
	"github.com/YuminosukeSato/scigo-dml/dml"
	"github.com/YuminosukeSato/scigo-dml/pkg/errors"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func fittedCovariance(t *testing.T) *dml.Covariance {
	t.Helper()
	c := dml.NewCovariance()
	X := mat.NewDense(4, 2, []float64{
		1, 2,
		2, 3.5,
		3, 3,
		4, 6,
	})
	require.NoError(t, c.Fit(X, nil))
	return c
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	src := fittedCovariance(t)

	require.NoError(t, s.Save(ctx, "cov", src))

	dst := dml.NewCovariance()
	require.NoError(t, s.Load(ctx, "cov", dst))
	assert.True(t, dst.IsFitted())

	want, err := src.Metric()
	require.NoError(t, err)
	got, err := dst.Metric()
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))
	assert.Equal(t, src.Metadata(), dst.Metadata())
}

func TestPutReplaces(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	e := dml.NewEuclidean()
	require.NoError(t, e.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), nil))
	require.NoError(t, s.Save(ctx, "m", e))
	require.NoError(t, s.Save(ctx, "m", fittedCovariance(t)))

	w, err := s.Get(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, "Covariance", w.ModelType)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "m", entries[0].Name)
	assert.Equal(t, model.WeightsVersion, entries[0].Version)
	assert.False(t, entries[0].UpdatedAt.IsZero())
}

func TestListOrderedByName(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	c := fittedCovariance(t)
	for _, name := range []string{"b", "c", "a"} {
		require.NoError(t, s.Save(ctx, name, c))
	}

	entries, err := s.List(ctx)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	_, err := s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.Load(ctx, "missing", dml.NewEuclidean()), ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, "missing"), ErrNotFound))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.Save(ctx, "cov", fittedCovariance(t)))

	require.NoError(t, s.Delete(ctx, "cov"))
	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPutRejectsInvalidWeights(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	w := &model.MetricWeights{ModelType: "Covariance", Version: model.WeightsVersion, IsFitted: true}

	var verr *errors.ValidationError
	assert.True(t, errors.As(s.Put(ctx, "bad", w), &verr))
	assert.True(t, errors.As(s.Put(ctx, "", w), &verr))
	assert.True(t, errors.As(s.Put(ctx, "nil", nil), &verr))

	// unfitted models cannot be exported
	assert.Error(t, s.Save(ctx, "unfitted", dml.NewEuclidean()))
}

func TestOpenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "weights.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "cov", fittedCovariance(t)))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	w, err := reopened.Get(ctx, "cov")
	require.NoError(t, err)
	assert.Equal(t, 2, w.NFeatures)
}
