package deepforest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Annotation is a single labelled bounding box read from a training
// annotation file.  Rows are in the format:
//
//	path/to/image.jpg,x1,y1,x2,y2,class_name
type Annotation struct {
	// ImagePath is the image the box belongs to
	ImagePath string
	// Box corners in pixel coordinates
	XMin int
	YMin int
	XMax int
	YMax int
	// Label is the object class name
	Label string
}

// Box returns the annotation region as a BoxRect
func (a Annotation) Box() BoxRect {
	return BoxRect{Left: a.XMin, Top: a.YMin, Right: a.XMax, Bottom: a.YMax}
}

// ReadAnnotations reads a headerless csv annotation file with one
// labelled bounding box per row
func ReadAnnotations(file string) ([]Annotation, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening annotations file: %w", err)
	}

	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6

	records, err := r.ReadAll()

	if err != nil {
		return nil, fmt.Errorf("error reading annotations file: %w", err)
	}

	anns := make([]Annotation, 0, len(records))

	for i, rec := range records {

		var coords [4]int

		for j := 0; j < 4; j++ {
			coords[j], err = strconv.Atoi(strings.TrimSpace(rec[j+1]))

			if err != nil {
				return nil, fmt.Errorf("annotations row %d: invalid coordinate %q: %w",
					i+1, rec[j+1], err)
			}
		}

		anns = append(anns, Annotation{
			ImagePath: rec[0],
			XMin:      coords[0],
			YMin:      coords[1],
			XMax:      coords[2],
			YMax:      coords[3],
			Label:     rec[5],
		})
	}

	return anns, nil
}

// countImages returns the number of unique image paths in anns
func countImages(anns []Annotation) int {

	unique := make(map[string]bool)

	for _, a := range anns {
		unique[a.ImagePath] = true
	}

	return len(unique)
}

// classNames returns the unique class labels in anns sorted
// alphabetically, which fixes the label index assignment used for
// training
func classNames(anns []Annotation) []string {

	unique := make(map[string]bool)

	for _, a := range anns {
		unique[a.Label] = true
	}

	names := make([]string, 0, len(unique))

	for name := range unique {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// createClassesFile derives the label index mapping from anns and writes
// it as name,index rows to classes.csv beside the annotations file,
// returning the path written
func createClassesFile(annotationsFile string, anns []Annotation) (string, error) {

	path := filepath.Join(filepath.Dir(annotationsFile), "classes.csv")

	f, err := os.Create(path)

	if err != nil {
		return "", fmt.Errorf("error creating classes file: %w", err)
	}

	w := csv.NewWriter(f)

	for i, name := range classNames(anns) {
		if err := w.Write([]string{name, strconv.Itoa(i)}); err != nil {
			f.Close()
			return "", fmt.Errorf("error writing classes file: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("error writing classes file: %w", err)
	}

	return path, f.Close()
}

// ReadClasses reads a classes csv file of name,index rows, as written by
// training, and returns the class names in label index order
func ReadClasses(file string) ([]string, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening classes file: %w", err)
	}

	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2

	records, err := r.ReadAll()

	if err != nil {
		return nil, fmt.Errorf("error reading classes file: %w", err)
	}

	names := make([]string, len(records))

	for i, rec := range records {

		idx, err := strconv.Atoi(strings.TrimSpace(rec[1]))

		if err != nil {
			return nil, fmt.Errorf("classes row %d: invalid label index %q: %w",
				i+1, rec[1], err)
		}

		if idx < 0 || idx >= len(records) {
			return nil, fmt.Errorf("classes row %d: label index %d out of range",
				i+1, idx)
		}

		if names[idx] != "" {
			return nil, fmt.Errorf("classes row %d: duplicate label index %d",
				i+1, idx)
		}

		names[idx] = rec[0]
	}

	return names, nil
}
