package raster

import "testing"

const square = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10" viewBox="0 0 10 10">
  <rect x="0" y="0" width="10" height="10" style="fill: #ff0000"/>
</svg>`

func TestRenderFillsTarget(t *testing.T) {
	r := New(nil)
	img, err := r.Render("square", []byte(square), 16)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	c := img.RGBAAt(8, 8)
	if c.R < 200 || c.G > 30 || c.A < 200 {
		t.Fatalf("center pixel = %+v, want red", c)
	}
}

func TestRenderCaches(t *testing.T) {
	r := New(nil)
	a, err := r.Render("square", []byte(square), 8)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, _ := r.Render("square", nil, 8)
	if a != b {
		t.Fatalf("expected cached image")
	}
	if _, err := r.Render("square", []byte(square), 12); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("cache size = %d", r.Len())
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	r := New(nil)
	if _, err := r.Render("bad", []byte(square), 0); err == nil {
		t.Fatalf("expected size error")
	}
	if _, err := r.Render("broken", []byte("<svg"), 8); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSanitizeSVG(t *testing.T) {
	cases := map[string]string{
		`style="fill: 000000;stroke: #fff"`:        `style="fill:#000000;stroke:#fff"`,
		`style="fill:000000"`:                      `style="fill:#000000"`,
		`style="stop-color: #abcdef;opacity: 0.5"`: `style="stop-color:#abcdef;opacity:0.5"`,
		`style="stroke-width: 1.5;stroke:fff"`:     `style="stroke-width:1.5;stroke:#fff"`,
		`style="fill:none;stroke:#000"`:            `style="fill:none;stroke:#000"`,
	}
	for in, want := range cases {
		if got := string(sanitizeSVG([]byte(in))); got != want {
			t.Fatalf("sanitizeSVG(%s) = %s, want %s", in, got, want)
		}
	}
}
