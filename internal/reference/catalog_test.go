package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	require.NoError(t, err)
	return log
}

func TestLoad_EmbeddedDefaults(t *testing.T) {
	cat, err := Load(testLogger(t))
	require.NoError(t, err)

	sp, ok := cat.Species("atlantic_salmon")
	require.True(t, ok)
	assert.Equal(t, "Atlantic salmon", sp.CommonName)
	assert.Greater(t, sp.AvgDailyGrowthG, 0.0)
	assert.Greater(t, sp.TargetFCR, 0.0)

	_, ok = cat.Species("kraken")
	assert.False(t, ok)

	tank, ok := cat.Container(uuid.MustParse("1f0b6d3a-8b1e-4a5c-9a5e-0d3f2a6c1001"))
	require.True(t, ok)
	assert.InDelta(t, 100.0, tank.VolumeM3, 1e-9)
	assert.InDelta(t, 25.0, tank.MaxDensityKgM3, 1e-9)
}

func TestLoad_InactiveContainerHidden(t *testing.T) {
	cat, err := Load(testLogger(t))
	require.NoError(t, err)

	_, ok := cat.Container(uuid.MustParse("1f0b6d3a-8b1e-4a5c-9a5e-0d3f2a6c1006"))
	assert.False(t, ok)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "species.yaml")
	override := `catalog: species
version: 1
species:
  - species_id: test_carp
    common_name: Test carp
    avg_daily_growth_g: 1.5
    expected_survival_pct: 80
    target_fcr: 1.8
`
	require.NoError(t, os.WriteFile(path, []byte(override), 0o600))
	t.Setenv(speciesCatalogEnv, path)

	cat, err := Load(testLogger(t))
	require.NoError(t, err)

	sp, ok := cat.Species("test_carp")
	require.True(t, ok)
	assert.InDelta(t, 1.5, sp.AvgDailyGrowthG, 1e-9)

	_, ok = cat.Species("atlantic_salmon")
	assert.False(t, ok)
}

func TestLoad_RejectsMalformedCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "species.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog: wrong\nversion: 1\nspecies: []\n"), 0o600))
	t.Setenv(speciesCatalogEnv, path)

	_, err := Load(testLogger(t))
	assert.Error(t, err)
}

func TestLoad_RejectsDuplicateSpecies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "species.yaml")
	dup := `catalog: species
version: 1
species:
  - species_id: carp
    common_name: Carp
    avg_daily_growth_g: 1
    expected_survival_pct: 80
    target_fcr: 1.8
  - species_id: carp
    common_name: Carp again
    avg_daily_growth_g: 2
    expected_survival_pct: 80
    target_fcr: 1.8
`
	require.NoError(t, os.WriteFile(path, []byte(dup), 0o600))
	t.Setenv(speciesCatalogEnv, path)

	_, err := Load(testLogger(t))
	assert.Error(t, err)
}
