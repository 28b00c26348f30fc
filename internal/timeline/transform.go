package timeline

// Transform is a horizontal zoom transform over the baseline scale: a pixel
// p on the baseline ends up at p*K + X.
type Transform struct {
	K float64
	X float64
}

var Identity = Transform{K: 1}

// Extent bounds the zoom factor K.
type Extent struct {
	Min float64
	Max float64
}

func (e Extent) Clamp(k float64) float64 {
	if k < e.Min {
		return e.Min
	}
	if k > e.Max {
		return e.Max
	}
	return k
}

func (t Transform) Apply(px float64) float64 {
	return px*t.K + t.X
}

func (t Transform) InvertX(px float64) float64 {
	return (px - t.X) / t.K
}

// ScaleBy multiplies K by factor, clamped to ext, keeping the baseline point
// under px at px.
func (t Transform) ScaleBy(factor, px float64, ext Extent) Transform {
	anchor := t.InvertX(px)
	k := ext.Clamp(t.K * factor)
	return Transform{K: k, X: px - anchor*k}
}

func (t Transform) TranslateBy(dx float64) Transform {
	return Transform{K: t.K, X: t.X + dx}
}

// RescaleX returns base with its domain narrowed or widened to what the
// transform shows across base's range.
func (t Transform) RescaleX(base Scale) Scale {
	r0, r1 := base.Range()
	return base.WithDomain(base.InvertMillis(t.InvertX(r0)), base.InvertMillis(t.InvertX(r1)))
}

// TransformFor derives the transform under which base shows [d0, d1].
func TransformFor(base Scale, d0, d1 float64) Transform {
	r0, r1 := base.Range()
	b0, b1 := base.MapMillis(d0), base.MapMillis(d1)
	if b1 == b0 {
		return Identity
	}
	k := (r1 - r0) / (b1 - b0)
	return Transform{K: k, X: r0 - k*b0}
}
