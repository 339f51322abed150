package shapefile

import (
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ToGeom converts a go-shp shape to a go-geom geometry.
// Returns nil for null, empty or unsupported shapes. Z values are kept, M values dropped.
func ToGeom(shape shp.Shape) geom.T {
	if shape == nil {
		return nil
	}

	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.PointM:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.PointZ:
		return geom.NewPointFlat(geom.XYZ, []float64{s.X, s.Y, s.Z})

	case *shp.MultiPoint:
		return multiPoint(s.Points, nil)
	case *shp.MultiPointM:
		return multiPoint(s.Points, nil)
	case *shp.MultiPointZ:
		return multiPoint(s.Points, s.ZArray)

	case *shp.PolyLine:
		return lines(s.Parts, s.Points, nil)
	case *shp.PolyLineM:
		return lines(s.Parts, s.Points, nil)
	case *shp.PolyLineZ:
		return lines(s.Parts, s.Points, s.ZArray)

	case *shp.Polygon:
		return polygons(s.Parts, s.Points, nil)
	case *shp.PolygonM:
		return polygons(s.Parts, s.Points, nil)
	case *shp.PolygonZ:
		return polygons(s.Parts, s.Points, s.ZArray)

	default:
		return nil
	}
}

// layoutFor picks XYZ when a Z array covers every point.
func layoutFor(points []shp.Point, z []float64) geom.Layout {
	if len(z) > 0 && len(z) >= len(points) {
		return geom.XYZ
	}
	return geom.XY
}

// flatCoords converts a run of shapefile points to flat coordinates for go-geom.
func flatCoords(layout geom.Layout, points []shp.Point, z []float64, start, end int) []float64 {
	flat := make([]float64, 0, (end-start)*layout.Stride())
	for j := start; j < end; j++ {
		flat = append(flat, points[j].X, points[j].Y)
		if layout == geom.XYZ {
			flat = append(flat, z[j])
		}
	}
	return flat
}

// partRange returns the point range [start, end) of part i, or ok=false if
// the part offsets are out of bounds.
func partRange(parts []int32, i, numPoints int) (start, end int, ok bool) {
	start = int(parts[i])
	end = numPoints
	if i+1 < len(parts) {
		end = int(parts[i+1])
	}
	if start < 0 || end > numPoints || start >= end {
		return 0, 0, false
	}
	return start, end, true
}

func multiPoint(points []shp.Point, z []float64) geom.T {
	if len(points) == 0 {
		return nil
	}
	layout := layoutFor(points, z)
	return geom.NewMultiPointFlat(layout, flatCoords(layout, points, z, 0, len(points)))
}

// lines converts polyline parts to a LineString (single part) or MultiLineString.
func lines(parts []int32, points []shp.Point, z []float64) geom.T {
	if len(parts) == 0 || len(points) == 0 {
		return nil
	}

	layout := layoutFor(points, z)
	mls := geom.NewMultiLineString(layout)

	for i := range parts {
		start, end, ok := partRange(parts, i, len(points))
		if !ok || end-start < 2 {
			zap.L().Debug("shapefile: skipping malformed linestring part", zap.Int("part", i))
			continue
		}

		ls := geom.NewLineStringFlat(layout, flatCoords(layout, points, z, start, end))
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("shapefile: skipping malformed linestring part", zap.Int("part", i), zap.Error(err))
			continue
		}
	}

	switch mls.NumLineStrings() {
	case 0:
		return nil
	case 1:
		return mls.LineString(0)
	default:
		return mls
	}
}

// polygons groups shapefile rings into polygons. Clockwise rings are outer
// boundaries; counter-clockwise rings are holes of the preceding outer ring.
func polygons(parts []int32, points []shp.Point, z []float64) geom.T {
	if len(parts) == 0 || len(points) == 0 {
		return nil
	}

	layout := layoutFor(points, z)
	var polys []*geom.Polygon

	for i := range parts {
		start, end, ok := partRange(parts, i, len(points))
		if !ok || end-start < 3 {
			zap.L().Debug("shapefile: skipping malformed polygon ring", zap.Int("part", i))
			continue
		}

		ring := geom.NewLinearRingFlat(layout, flatCoords(layout, points, z, start, end))
		hole := signedArea(points[start:end]) > 0
		if !hole || len(polys) == 0 {
			polys = append(polys, geom.NewPolygon(layout))
		}
		if err := polys[len(polys)-1].Push(ring); err != nil {
			zap.L().Debug("shapefile: skipping malformed polygon ring", zap.Int("part", i), zap.Error(err))
			continue
		}
	}

	switch len(polys) {
	case 0:
		return nil
	case 1:
		return polys[0]
	}

	mp := geom.NewMultiPolygon(layout)
	for i, p := range polys {
		if err := mp.Push(p); err != nil {
			zap.L().Debug("shapefile: skipping malformed polygon part", zap.Int("part", i), zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea is positive for counter-clockwise rings.
func signedArea(ring []shp.Point) float64 {
	var sum float64
	for i := range ring {
		j := (i + 1) % len(ring)
		sum += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return sum / 2
}
