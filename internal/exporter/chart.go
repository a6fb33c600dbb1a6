package exporter

import (
	"bytes"
	"fmt"
	"html/template"
	"math"

	"chemviz/pkg/contracts/domain"
)

const (
	pieRadius  = 110.0
	pieCenterX = 130.0
	pieCenterY = 130.0
	legendX    = 270.0
)

// PieChartSVG draws the distribution as an inline SVG pie with percentage
// labels and a legend. It returns "" when no slice has a positive count.
func PieChartSVG(chart []domain.ChartSlice) template.HTML {
	total := 0
	for _, s := range chart {
		if s.Count > 0 {
			total += s.Count
		}
	}
	if total == 0 {
		return ""
	}

	var buf bytes.Buffer
	height := math.Max(2*pieCenterY, float64(len(chart))*22+20)
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="520" height="%.0f" viewBox="0 0 520 %.0f" role="img">`, height, height)

	// Angles run clockwise from twelve o'clock.
	angle := -math.Pi / 2
	for _, s := range chart {
		if s.Count <= 0 {
			continue
		}
		sweep := 2 * math.Pi * float64(s.Count) / float64(total)
		writeSlice(&buf, s, angle, sweep)

		mid := angle + sweep/2
		lx := pieCenterX + 0.62*pieRadius*math.Cos(mid)
		ly := pieCenterY + 0.62*pieRadius*math.Sin(mid)
		fmt.Fprintf(&buf, `<text x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="middle" font-size="12" fill="#FFFFFF">%s</text>`,
			lx, ly, formatPercent(s.Count, total))

		angle += sweep
	}

	for i, s := range chart {
		y := 20 + float64(i)*22
		fmt.Fprintf(&buf, `<rect x="%.0f" y="%.0f" width="14" height="14" fill="%s"/>`, legendX, y, template.HTMLEscapeString(s.Color))
		fmt.Fprintf(&buf, `<text x="%.0f" y="%.0f" font-size="13" fill="#1F2937">%s (%d)</text>`,
			legendX+22, y+12, template.HTMLEscapeString(s.Label), s.Count)
	}

	buf.WriteString(`</svg>`)
	return template.HTML(buf.String())
}

func writeSlice(buf *bytes.Buffer, s domain.ChartSlice, start, sweep float64) {
	color := template.HTMLEscapeString(s.Color)

	// A single full slice cannot be drawn as an arc.
	if sweep >= 2*math.Pi-1e-9 {
		fmt.Fprintf(buf, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`, pieCenterX, pieCenterY, pieRadius, color)
		return
	}

	x1 := pieCenterX + pieRadius*math.Cos(start)
	y1 := pieCenterY + pieRadius*math.Sin(start)
	x2 := pieCenterX + pieRadius*math.Cos(start+sweep)
	y2 := pieCenterY + pieRadius*math.Sin(start+sweep)
	largeArc := 0
	if sweep > math.Pi {
		largeArc = 1
	}

	fmt.Fprintf(buf, `<path d="M %.2f %.2f L %.2f %.2f A %.2f %.2f 0 %d 1 %.2f %.2f Z" fill="%s" stroke="#FFFFFF" stroke-width="1"/>`,
		pieCenterX, pieCenterY, x1, y1, pieRadius, pieRadius, largeArc, x2, y2, color)
}
