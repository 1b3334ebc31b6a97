package dataset

import (
	"bufio"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/distkmeans/model"
)

const maxLine = 1 << 20

// Parse decodes every row of r into a point, in input order.
func Parse(r io.Reader) ([]model.Point, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var points []model.Point
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		p, err := parseRow(text)
		if err != nil {
			return nil, &ParseError{Line: line, Text: text, Err: err}
		}
		points = append(points, p)
	}
	if err := sc.Err(); err != nil {
		var fe *FileOpenError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &ParseError{Line: line + 1, Err: err}
	}
	return points, nil
}

func parseRow(text string) (model.Point, error) {
	xs, ys, ok := strings.Cut(text, ",")
	if !ok || strings.Contains(ys, ",") {
		return model.Point{}, errFieldCount
	}
	x, err := parseCoord(xs)
	if err != nil {
		return model.Point{}, err
	}
	y, err := parseCoord(ys)
	if err != nil {
		return model.Point{}, err
	}
	return model.Point{X: x, Y: y}, nil
}

func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}
