package format

import (
	"bytes"
	"math"
	"strconv"

	"github.com/njchilds90/integrand/internal/dispatch"
)

const (
	TitleIndefinite = "Function and Its Indefinite Integral"
	TitleDefinite   = "Function Plot with Bounded Area"
)

// Floats is a sample column. NaN marks an invalid sample and marshals as
// JSON null.
type Floats []float64

func (f Floats) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Series is one plotted curve.
type Series struct {
	Label  string `json:"label"`
	Color  string `json:"color"`
	Dashed bool   `json:"dashed,omitempty"`
	Y      Floats `json:"y"`
}

// VLine is a vertical reference line.
type VLine struct {
	X      float64 `json:"x"`
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Dashed bool    `json:"dashed,omitempty"`
}

// Shade fills between Series[Series] and y=0 where Lower <= x <= Upper.
type Shade struct {
	Series int     `json:"series"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	Color  string  `json:"color"`
	Alpha  float64 `json:"alpha"`
}

// Contains is the shading predicate.
func (s *Shade) Contains(x float64) bool { return x >= s.Lower && x <= s.Upper }

// Bundle is everything a renderer needs to draw the result.
type Bundle struct {
	Title  string   `json:"title"`
	XLabel string   `json:"x_label"`
	YLabel string   `json:"y_label"`
	X      Floats   `json:"x"`
	Series []Series `json:"series"`
	VLines []VLine  `json:"vlines,omitempty"`
	Shade  *Shade   `json:"shade,omitempty"`
}

// Plot builds the plot bundle for rec. Indefinite results plot f and its
// antiderivative; definite results plot f (|f| for area) with the bounds
// marked and the region between them shaded.
func Plot(rec *dispatch.Record) Bundle {
	x := make(Floats, len(rec.Grid))
	f := make(Floats, len(rec.Grid))
	for i, p := range rec.Grid {
		x[i] = p.X
		f[i] = p.F.Float()
	}

	if rec.Mode == dispatch.Indefinite {
		anti := make(Floats, len(rec.Grid))
		for i, p := range rec.Grid {
			anti[i] = math.NaN()
			if p.Anti != nil {
				anti[i] = p.Anti.Float()
			}
		}
		return Bundle{
			Title:  TitleIndefinite,
			XLabel: "x",
			YLabel: "Value",
			X:      x,
			Series: []Series{
				{Label: "f(x)", Color: "blue", Y: f},
				{Label: `\int f(x)\,dx + C`, Color: "green", Dashed: true, Y: anti},
			},
		}
	}

	label := "f(x) = " + rec.ExpressionLaTeX
	if rec.Mode == dispatch.DefiniteAbsoluteArea {
		for i := range f {
			f[i] = math.Abs(f[i])
		}
		label = `\left|` + rec.ExpressionLaTeX + `\right|`
	}
	b := Bundle{
		Title:  TitleDefinite,
		XLabel: "x",
		YLabel: "f(x)",
		X:      x,
		Series: []Series{{Label: label, Color: "blue", Y: f}},
	}
	if rec.Bounds != nil {
		lo, hi := rec.Bounds.Lower, rec.Bounds.Upper
		b.VLines = []VLine{
			{X: lo, Label: "x = " + Number(lo), Color: "red", Dashed: true},
			{X: hi, Label: "x = " + Number(hi), Color: "red", Dashed: true},
		}
		b.Shade = &Shade{Series: 0, Lower: lo, Upper: hi, Color: "skyblue", Alpha: 0.5}
	}
	return b
}
