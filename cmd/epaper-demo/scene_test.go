package main

import (
	"image"
	"testing"
	"time"

	"github.com/BeatGlow/epaper"
	"github.com/BeatGlow/epaper/pixel"
)

func TestSceneRender(t *testing.T) {
	panel := image.Pt(120, 200)
	for _, rotation := range []epaper.Rotation{epaper.NoRotation, epaper.Rotate90, epaper.Rotate180, epaper.Rotate270} {
		t.Run(rotation.String(), func(t *testing.T) {
			s, err := newScene(panel, rotation)
			if err != nil {
				t.Fatal(err)
			}
			img, err := s.render(time.Date(2024, 1, 1, 12, 34, 0, 0, time.UTC), 1)
			if err != nil {
				t.Fatal(err)
			}
			if size := img.Bounds().Size(); size != panel {
				t.Fatalf("expected %s image, got %s", panel, size)
			}
			for _, p := range []image.Point{{0, 0}, {panel.X - 1, 0}, {0, panel.Y - 1}, {panel.X - 1, panel.Y - 1}} {
				if c := pixel.MonoModel.Convert(img.At(p.X, p.Y)); c != pixel.Ink {
					t.Errorf("expected border ink at %s, got %v", p, c)
				}
			}
		})
	}
}
