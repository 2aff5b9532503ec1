package locate

import (
	"bytes"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func featuresByKind(fc *geojson.FeatureCollection) map[string][]*geojson.Feature {
	out := make(map[string][]*geojson.Feature)
	for _, f := range fc.Features {
		kind, _ := f.Properties["kind"].(string)
		out[kind] = append(out[kind], f)
	}
	return out
}

func TestMapFeatures_RegistryOnly(t *testing.T) {
	cfg, _ := renderFixture(t)

	kinds := featuresByKind(MapFeatures(cfg, nil))
	require.Len(t, kinds[FeaturePerimeter], 1)
	assert.Len(t, kinds[FeatureBeacon], 4)
	assert.Empty(t, kinds[FeatureEstimate])
	assert.Empty(t, kinds[FeatureCandidates])

	poly, ok := kinds[FeaturePerimeter][0].Geometry.(orb.Polygon)
	require.True(t, ok, "perimeter should be a polygon")
	require.Len(t, poly, 1)
	assert.Len(t, poly[0], 5, "ring is closed")
	assert.Equal(t, poly[0][0], poly[0][4])
	assert.Equal(t, "polygon", kinds[FeaturePerimeter][0].Properties["mode"])

	yellow := kinds[FeatureBeacon][1]
	assert.Equal(t, "yellow", yellow.ID)
	assert.Equal(t, orb.Point{13, 5}, yellow.Geometry)
	assert.Equal(t, true, yellow.Properties["onPerimeter"])
	_, hasHeight := yellow.Properties["heightOffset"]
	assert.False(t, hasHeight, "zero height offset is omitted")
}

func TestMapFeatures_WithResult(t *testing.T) {
	cfg, res := renderFixture(t)

	kinds := featuresByKind(MapFeatures(cfg, res))
	require.Len(t, kinds[FeatureCandidates], 1)
	require.Len(t, kinds[FeatureRetained], 1)
	require.Len(t, kinds[FeatureEstimate], 1)

	candidates := kinds[FeatureCandidates][0]
	assert.Len(t, candidates.Geometry.(orb.MultiPoint), len(res.Candidates))
	assert.Equal(t, len(res.Retained), kinds[FeatureRetained][0].Properties["count"])

	estimate := kinds[FeatureEstimate][0]
	assert.Equal(t, res.CycleID, estimate.ID)
	assert.Equal(t, res.Position.Orb(), estimate.Geometry)
}

func TestMapFeatures_FailedCycleHasNoEstimate(t *testing.T) {
	est, _ := newQuadEstimator(t)
	res, err := est.Estimate(quadCycle())
	require.ErrorIs(t, err, ErrNoGoodCandidates)

	kinds := featuresByKind(MapFeatures(est.Configuration(), res))
	assert.Len(t, kinds[FeatureCandidates], 1)
	assert.Empty(t, kinds[FeatureRetained])
	assert.Empty(t, kinds[FeatureEstimate])
}

func TestRenderResult_GeoJSON(t *testing.T) {
	cfg, res := renderFixture(t)

	var buf bytes.Buffer
	require.NoError(t, RenderResult(&buf, cfg, res, "geojson", 0))

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	kinds := featuresByKind(fc)
	assert.Len(t, kinds[FeatureBeacon], 4)
	require.Len(t, kinds[FeatureEstimate], 1)

	pos, ok := kinds[FeatureEstimate][0].Geometry.(orb.Point)
	require.True(t, ok)
	assert.InDelta(t, res.Position.X, pos.X(), 1e-9)
	assert.InDelta(t, res.Position.Y, pos.Y(), 1e-9)
	assert.Equal(t, res.CycleID, kinds[FeatureEstimate][0].Properties["cycleId"])
}
