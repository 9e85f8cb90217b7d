// Package badges renders flat SVG status badges for the documentation site.
package badges

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// palette maps the color names accepted in configuration to fill values.
// Matches the shields.io flat palette subset the site uses.
var palette = map[string]string{
	"brightgreen": "#4c1",
	"green":       "#97ca00",
	"yellow":      "#dfb317",
	"red":         "#e05d44",
	"blue":        "#007ec6",
	"grey":        "#555",
	"lightgrey":   "#9f9f9f",
}

// defaultLeftColor is the conventional label background.
const defaultLeftColor = "#555"

// Badge describes one flat left/right badge.
type Badge struct {
	Left       string
	Right      string
	LeftColor  string
	RightColor string
	LeftLink   string
	RightLink  string
}

// approximate character advance for the DejaVu Sans 11px face used below.
const charWidth = 7

const padding = 10

var svgTemplate = template.Must(template.New("badge").Parse(strings.TrimSpace(`
<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="{{.TotalWidth}}" height="20" role="img" aria-label="{{.AriaLabel}}">
  <linearGradient id="s" x2="0" y2="100%">
    <stop offset="0" stop-color="#bbb" stop-opacity=".1"/>
    <stop offset="1" stop-opacity=".1"/>
  </linearGradient>
  <clipPath id="r">
    <rect width="{{.TotalWidth}}" height="20" rx="3" fill="#fff"/>
  </clipPath>
  <g clip-path="url(#r)">
    <rect width="{{.LeftWidth}}" height="20" fill="{{.LeftFill}}"/>
    <rect x="{{.LeftWidth}}" width="{{.RightWidth}}" height="20" fill="{{.RightFill}}"/>
    <rect width="{{.TotalWidth}}" height="20" fill="url(#s)"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" font-size="11">
    {{if .Left}}<text x="{{.LeftCenter}}" y="14">{{.Left}}</text>{{end}}
    <text x="{{.RightCenter}}" y="14">{{.Right}}</text>
  </g>
  {{if .LeftLink}}<a xlink:href="{{.LeftLink}}"><rect width="{{.LeftWidth}}" height="20" fill-opacity="0"/></a>{{end}}
  {{if .RightLink}}<a xlink:href="{{.RightLink}}"><rect x="{{.LeftWidth}}" width="{{.RightWidth}}" height="20" fill-opacity="0"/></a>{{end}}
</svg>
`)))

type svgModel struct {
	Badge
	LeftFill    string
	RightFill   string
	LeftWidth   int
	RightWidth  int
	TotalWidth  int
	LeftCenter  int
	RightCenter int
	AriaLabel   string
}

// Fill resolves a configured color name to an SVG fill. Unknown names are
// passed through so raw hex values work in configuration.
func Fill(name string) string {
	if fill, ok := palette[name]; ok {
		return fill
	}
	if name == "" {
		return palette["lightgrey"]
	}
	return name
}

// Render produces the SVG document for the badge.
func (b Badge) Render() (string, error) {
	leftWidth := 0
	if b.Left != "" {
		leftWidth = len(b.Left)*charWidth + padding
	}
	rightWidth := len(b.Right)*charWidth + padding

	leftFill := b.LeftColor
	if leftFill == "" {
		leftFill = defaultLeftColor
	} else {
		leftFill = Fill(leftFill)
	}

	model := svgModel{
		Badge:       b,
		LeftFill:    leftFill,
		RightFill:   Fill(b.RightColor),
		LeftWidth:   leftWidth,
		RightWidth:  rightWidth,
		TotalWidth:  leftWidth + rightWidth,
		LeftCenter:  leftWidth / 2,
		RightCenter: leftWidth + rightWidth/2,
		AriaLabel:   strings.TrimSpace(fmt.Sprintf("%s: %s", b.Left, b.Right)),
	}

	var sb strings.Builder
	if err := svgTemplate.Execute(&sb, model); err != nil {
		return "", fmt.Errorf("failed to render badge: %w", err)
	}
	return sb.String(), nil
}

// Write renders the badge into dir as <name>.svg.
func Write(dir, name string, b Badge) error {
	svg, err := b.Render()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, name+".svg")
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		return fmt.Errorf("failed to write badge %s: %w", path, err)
	}
	return nil
}
