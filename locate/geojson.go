package locate

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature kinds, stored in the "kind" property of every exported feature.
const (
	FeatureBeacon     = "beacon"
	FeaturePerimeter  = "perimeter"
	FeatureCandidates = "candidates"
	FeatureRetained   = "retained"
	FeatureEstimate   = "estimate"
)

// MapFeatures exports the beacon map, and the cycle in res when non-nil, as
// a FeatureCollection. Coordinates are world meters, not longitude/latitude.
func MapFeatures(cfg *Configuration, res *Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	perimeter := geojson.NewFeature(orb.Polygon{cfg.Perimeter().ring.Clone()})
	perimeter.ID = FeaturePerimeter
	perimeter.Properties["kind"] = FeaturePerimeter
	perimeter.Properties["mode"] = cfg.Mode().String()
	fc.Append(perimeter)

	for _, lm := range cfg.Registry().Landmarks() {
		f := geojson.NewFeature(lm.Position.Orb())
		f.ID = lm.Color.String()
		f.Properties["kind"] = FeatureBeacon
		f.Properties["color"] = lm.Color.String()
		f.Properties["onPerimeter"] = lm.OnPerimeter
		if lm.HeightOffset != 0 {
			f.Properties["heightOffset"] = lm.HeightOffset
		}
		fc.Append(f)
	}

	if res == nil {
		return fc
	}

	if len(res.Candidates) > 0 {
		fc.Append(pointsFeature(FeatureCandidates, res, res.Candidates))
	}
	if len(res.Retained) > 0 {
		fc.Append(pointsFeature(FeatureRetained, res, res.Retained))
	}
	if res.State == StateDone {
		f := geojson.NewFeature(res.Position.Orb())
		f.ID = res.CycleID
		f.Properties["kind"] = FeatureEstimate
		f.Properties["cycleId"] = res.CycleID
		f.Properties["timestamp"] = res.Timestamp
		fc.Append(f)
	}
	return fc
}

func pointsFeature(kind string, res *Result, points []Point) *geojson.Feature {
	mp := make(orb.MultiPoint, 0, len(points))
	for _, p := range points {
		mp = append(mp, p.Orb())
	}
	f := geojson.NewFeature(mp)
	f.Properties["kind"] = kind
	f.Properties["cycleId"] = res.CycleID
	f.Properties["count"] = len(points)
	return f
}
