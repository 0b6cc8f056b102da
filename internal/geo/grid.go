package geo

import "math"

type cellKey struct {
	row int32
	col int32
}

// grid is a uniform lat/lng partition. Steps are adjusted so 180 and 360
// degrees divide evenly; the last row and column are never narrower.
type grid struct {
	rows, cols int
	latStep    float64
	lngStep    float64
	radiusKM   float64
}

func newGrid(cellKM, radiusKM float64) grid {
	kmPerDeg := radiusKM * math.Pi / 180.0
	deg := cellKM / kmPerDeg
	if deg <= 0 || math.IsNaN(deg) {
		deg = 1 / kmPerDeg
	}

	rows := int(math.Ceil(180 / deg))
	cols := int(math.Ceil(360 / deg))
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}

	return grid{
		rows:     rows,
		cols:     cols,
		latStep:  180 / float64(rows),
		lngStep:  360 / float64(cols),
		radiusKM: radiusKM,
	}
}

func (g grid) cell(lat, lng float64) cellKey {
	if lng >= 180 {
		lng = -180
	}
	row := int(math.Floor((lat + 90) / g.latStep))
	col := int(math.Floor((lng + 180) / g.lngStep))
	return cellKey{row: int32(clamp(row, 0, g.rows-1)), col: int32(clamp(col, 0, g.cols-1))}
}

func (g grid) wrapCol(c int) int {
	return ((c % g.cols) + g.cols) % g.cols
}

func (g grid) fullCols(k int) bool {
	return 2*k+1 >= g.cols
}

func (g grid) rowSpan(o cellKey, k int) (lo, hi int) {
	return max(0, int(o.row)-k), min(g.rows-1, int(o.row)+k)
}

func (g grid) colWithin(o cellKey, k, c int) bool {
	if g.fullCols(k) {
		return true
	}
	d := c - int(o.col)
	if d < 0 {
		d = -d
	}
	d = min(d, g.cols-d)
	return d <= k
}

// inBlock reports whether c lies in the (2k+1)x(2k+1) block centred on o.
func (g grid) inBlock(o cellKey, k int, c cellKey) bool {
	if k < 0 {
		return false
	}
	r := int(c.row)
	if r < int(o.row)-k || r > int(o.row)+k {
		return false
	}
	return g.colWithin(o, k, int(c.col))
}

func (g grid) blockCells(o cellKey, k int) int {
	lo, hi := g.rowSpan(o, k)
	return (hi - lo + 1) * min(2*k+1, g.cols)
}

func (g grid) coversAll(o cellKey, k int) bool {
	lo, hi := g.rowSpan(o, k)
	return lo == 0 && hi == g.rows-1 && g.fullCols(k)
}

// forRing visits every cell of block k that is not in block k-1.
func (g grid) forRing(o cellKey, k int, fn func(cellKey)) {
	if k == 0 {
		fn(o)
		return
	}

	lo, hi := g.rowSpan(o, k)
	for r := lo; r <= hi; r++ {
		if r == int(o.row)-k || r == int(o.row)+k {
			g.forBlockCols(o, k, func(c int) { fn(cellKey{row: int32(r), col: int32(c)}) })
			continue
		}
		g.forNewCols(o, k, func(c int) { fn(cellKey{row: int32(r), col: int32(c)}) })
	}
}

func (g grid) forBlockCols(o cellKey, k int, fn func(int)) {
	if g.fullCols(k) {
		for c := 0; c < g.cols; c++ {
			fn(c)
		}
		return
	}
	for d := -k; d <= k; d++ {
		fn(g.wrapCol(int(o.col) + d))
	}
}

func (g grid) forNewCols(o cellKey, k int, fn func(int)) {
	if g.fullCols(k - 1) {
		return
	}
	if g.fullCols(k) {
		for c := 0; c < g.cols; c++ {
			if !g.colWithin(o, k-1, c) {
				fn(c)
			}
		}
		return
	}
	fn(g.wrapCol(int(o.col) - k))
	fn(g.wrapCol(int(o.col) + k))
}

// clearance is a lower bound in km on the distance from (lat, lng) to any
// point outside block k. A point outside the block differs either in
// latitude by at least the row gap, or in longitude by at least the column
// gap, in which case it is no closer than the cross-track distance to that
// meridian.
func (g grid) clearance(lat, lng float64, o cellKey, k int) float64 {
	if g.coversAll(o, k) {
		return math.Inf(1)
	}

	latGap := math.Inf(1)
	if int(o.row)-k > 0 {
		latGap = min(latGap, lat-(float64(int(o.row)-k)*g.latStep-90))
	}
	if int(o.row)+k < g.rows-1 {
		latGap = min(latGap, (float64(int(o.row)+k+1)*g.latStep-90)-lat)
	}
	bound := deg2rad(math.Max(latGap, 0))

	if !g.fullCols(k) {
		if lng >= 180 {
			lng = -180
		}
		west := lng - (float64(int(o.col)-k)*g.lngStep - 180)
		east := (float64(int(o.col)+k+1)*g.lngStep - 180) - lng
		lngGap := math.Min(math.Max(math.Min(west, east), 0), 90)
		s := math.Cos(deg2rad(lat)) * math.Sin(deg2rad(lngGap))
		bound = math.Min(bound, math.Asin(math.Min(math.Max(s, 0), 1)))
	}

	return bound * g.radiusKM
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
