package render

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestLoadTTFFace(t *testing.T) {

	fontPath := filepath.Join(t.TempDir(), "goregular.ttf")

	if err := os.WriteFile(fontPath, goregular.TTF, 0644); err != nil {
		t.Fatalf("error writing font fixture: %v", err)
	}

	face, err := LoadTTFFace(fontPath, 20)

	if err != nil {
		t.Fatalf("error loading font face: %v", err)
	}

	if face == nil || face.face == nil {
		t.Fatalf("expected a loaded font face")
	}
}

func TestLoadTTFFaceErrors(t *testing.T) {

	dir := t.TempDir()

	if _, err := LoadTTFFace(filepath.Join(dir, "missing.ttf"), 20); err == nil {
		t.Errorf("expected error for missing font file")
	}

	badPath := filepath.Join(dir, "bad.ttf")

	if err := os.WriteFile(badPath, []byte("not a font"), 0644); err != nil {
		t.Fatalf("error writing fixture: %v", err)
	}

	if _, err := LoadTTFFace(badPath, 20); err == nil {
		t.Errorf("expected error for unparseable font file")
	}
}

func TestClassColor(t *testing.T) {

	// colors repeat over the palette and negative classes stay in range
	if classColor(0) != classColors[0] {
		t.Errorf("class 0 color does not match palette")
	}

	if classColor(len(classColors)) != classColors[0] {
		t.Errorf("class colors do not wrap around the palette")
	}

	if classColor(-3) != classColor(3) {
		t.Errorf("negative class does not map onto the palette")
	}
}
