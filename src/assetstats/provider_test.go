package assetstats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvagent/src/datamodels"
	"mvagent/src/utils/errors"
)

func testUniverse() datamodels.AssetStatistics {
	return datamodels.AssetStatistics{
		Assets:         []datamodels.Asset{"ASSET0", "ASSET1", "ASSET2"},
		ExpectedPrices: []float64{150, 90, 200},
		Variances: [][]float64{
			{10, 2, 1},
			{2, 5, 0.5},
			{1, 0.5, 8},
		},
	}
}

func TestStaticProviderSubset(t *testing.T) {
	provider, err := NewStaticProvider(testUniverse())
	require.NoError(t, err)

	stats, err := provider.Get([]datamodels.Asset{"ASSET2", "ASSET0"})
	require.NoError(t, err)

	assert.Equal(t, []datamodels.Asset{"ASSET2", "ASSET0"}, stats.Assets)
	assert.Equal(t, []float64{200, 150}, stats.ExpectedPrices)
	// sub-matrix follows the requested order, not the universe order
	assert.Equal(t, [][]float64{{8, 1}, {1, 10}}, stats.Variances)
}

func TestStaticProviderUnknownTicker(t *testing.T) {
	provider, err := NewStaticProvider(testUniverse())
	require.NoError(t, err)

	_, err = provider.Get([]datamodels.Asset{"ASSET0", "NOPE"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadData))
}

func TestStaticProviderRejectsAsymmetricMatrix(t *testing.T) {
	universe := testUniverse()
	universe.Variances[0][1] = 99

	_, err := NewStaticProvider(universe)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadData))
}

func TestStaticProviderRejectsRaggedMatrix(t *testing.T) {
	universe := testUniverse()
	universe.Variances[1] = []float64{2, 5}

	_, err := NewStaticProvider(universe)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadData))
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assets.json")
	payload := `{
		"assets": ["ASSET0", "ASSET1"],
		"exp_prices": [150, 90],
		"variances": [[10, 2], [2, 5]]
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	provider, err := NewFileProvider(path)
	require.NoError(t, err)

	stats, err := provider.Get([]datamodels.Asset{"ASSET1"})
	require.NoError(t, err)
	assert.Equal(t, []float64{90}, stats.ExpectedPrices)
	assert.Equal(t, [][]float64{{5}}, stats.Variances)
}

func TestFileProviderMissingFile(t *testing.T) {
	_, err := NewFileProvider(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadData))
}
