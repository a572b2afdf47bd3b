package deepforest

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// writeTestFile writes contents to name inside dir and returns the full
// path
func writeTestFile(t *testing.T, dir, name, contents string) string {

	t.Helper()

	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("error writing %s: %v", name, err)
	}

	return path
}

func TestReadAnnotations(t *testing.T) {

	csv := "img1.jpg,10,20,110,220,Tree\n" +
		"img1.jpg,50,60,150,160,Tree\n" +
		"img2.jpg,0,0,30,40,Dead Tree\n"

	path := writeTestFile(t, t.TempDir(), "annotations.csv", csv)

	anns, err := ReadAnnotations(path)

	if err != nil {
		t.Fatalf("error reading annotations: %v", err)
	}

	expAnns := []Annotation{
		{ImagePath: "img1.jpg", XMin: 10, YMin: 20, XMax: 110, YMax: 220, Label: "Tree"},
		{ImagePath: "img1.jpg", XMin: 50, YMin: 60, XMax: 150, YMax: 160, Label: "Tree"},
		{ImagePath: "img2.jpg", XMin: 0, YMin: 0, XMax: 30, YMax: 40, Label: "Dead Tree"},
	}

	if !reflect.DeepEqual(anns, expAnns) {
		t.Errorf("annotations do not match, got %v, expected %v", anns, expAnns)
	}

	expBox := BoxRect{Left: 10, Top: 20, Right: 110, Bottom: 220}

	if got := anns[0].Box(); got != expBox {
		t.Errorf("box does not match, got %v, expected %v", got, expBox)
	}
}

func TestReadAnnotationsErrors(t *testing.T) {

	dir := t.TempDir()

	tests := []struct {
		name     string
		contents string
	}{
		{
			name:     "short row",
			contents: "img1.jpg,10,20,110,220\n",
		},
		{
			name:     "bad coordinate",
			contents: "img1.jpg,10,twenty,110,220,Tree\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			path := writeTestFile(t, dir, "annotations.csv", tc.contents)

			if _, err := ReadAnnotations(path); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}

	if _, err := ReadAnnotations(filepath.Join(dir, "missing.csv")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestCountImages(t *testing.T) {

	anns := []Annotation{
		{ImagePath: "img1.jpg"},
		{ImagePath: "img2.jpg"},
		{ImagePath: "img1.jpg"},
		{ImagePath: "img3.jpg"},
		{ImagePath: "img2.jpg"},
	}

	if got := countImages(anns); got != 3 {
		t.Errorf("image count does not match, got %d, expected 3", got)
	}
}

func TestClassNames(t *testing.T) {

	anns := []Annotation{
		{Label: "Tree"},
		{Label: "Dead Tree"},
		{Label: "Tree"},
		{Label: "Snag"},
	}

	exp := []string{"Dead Tree", "Snag", "Tree"}

	if got := classNames(anns); !reflect.DeepEqual(got, exp) {
		t.Errorf("class names do not match, got %v, expected %v", got, exp)
	}
}

func TestCreateClassesFile(t *testing.T) {

	dir := t.TempDir()

	annFile := filepath.Join(dir, "annotations.csv")

	anns := []Annotation{
		{Label: "Tree"},
		{Label: "Alive"},
	}

	path, err := createClassesFile(annFile, anns)

	if err != nil {
		t.Fatalf("error creating classes file: %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("classes file not beside annotations file, got %s", path)
	}

	buf, err := os.ReadFile(path)

	if err != nil {
		t.Fatalf("error reading classes file: %v", err)
	}

	exp := "Alive,0\nTree,1\n"

	if string(buf) != exp {
		t.Errorf("classes file does not match, got %q, expected %q", string(buf), exp)
	}
}

func TestReadClasses(t *testing.T) {

	dir := t.TempDir()

	// rows may appear out of index order
	path := writeTestFile(t, dir, "classes.csv", "Tree,1\nAlive,0\n")

	names, err := ReadClasses(path)

	if err != nil {
		t.Fatalf("error reading classes: %v", err)
	}

	exp := []string{"Alive", "Tree"}

	if !reflect.DeepEqual(names, exp) {
		t.Errorf("classes do not match, got %v, expected %v", names, exp)
	}
}

func TestReadClassesErrors(t *testing.T) {

	dir := t.TempDir()

	tests := []struct {
		name     string
		contents string
		errMsg   string
	}{
		{
			name:     "bad index",
			contents: "Tree,one\n",
			errMsg:   "invalid label index",
		},
		{
			name:     "index out of range",
			contents: "Tree,0\nAlive,2\n",
			errMsg:   "out of range",
		},
		{
			name:     "duplicate index",
			contents: "Tree,0\nAlive,0\n",
			errMsg:   "duplicate label index",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			path := writeTestFile(t, dir, "classes.csv", tc.contents)

			_, err := ReadClasses(path)

			if err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}

			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("error %q does not mention %q", err, tc.errMsg)
			}
		})
	}
}
