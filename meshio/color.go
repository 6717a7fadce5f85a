package meshio

import (
	"fmt"
	"strconv"
)

// depthPalette colors leaves by depth, cycling for deep trees.
var depthPalette = []string{
	"#e6194b", "#f58231", "#ffe119", "#bfef45", "#3cb44b", "#42d4f4",
	"#4363d8", "#911eb4", "#f032e6", "#a9a9a9", "#800000", "#9a6324",
}

// emptyAlpha is applied to empty leaves so solid geometry stays visible.
const emptyAlpha = 0.15

// ParseHexColor parses #RRGGBB or #RRGGBBAA into linear 0..1 components.
func ParseHexColor(hex string) ([4]float32, error) {
	if len(hex) == 0 || hex[0] != '#' {
		return [4]float32{}, fmt.Errorf("invalid hex color %q", hex)
	}
	h := hex[1:]
	if len(h) != 6 && len(h) != 8 {
		return [4]float32{}, fmt.Errorf("invalid hex color length %q", hex)
	}
	out := [4]float32{0, 0, 0, 1}
	for i := 0; i < len(h)/2; i++ {
		v, err := strconv.ParseUint(h[2*i:2*i+2], 16, 8)
		if err != nil {
			return [4]float32{}, fmt.Errorf("hex color %q: %w", hex, err)
		}
		out[i] = float32(v) / 255
	}
	return out, nil
}

func depthColor(depth uint8) [4]float32 {
	c, err := ParseHexColor(depthPalette[int(depth)%len(depthPalette)])
	if err != nil {
		return [4]float32{1, 1, 1, 1}
	}
	return c
}
