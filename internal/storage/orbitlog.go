package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OrbitLogHeader is the first line of an orbit log. The doubled closing
// parenthesis is part of the established format.
const OrbitLogHeader = "Time(yrs)\t\tMass(Msun)\t\tSemi-major Axis(AU)\t\tEccentricity\t\tInclination(Radians)\t\tLongitude_of_Ascending_Node(Radians)\t\tArgument_of_Periapsis(Radians))\t\tTrue_Anomaly(Radians)"

const orbitLogSep = "\t\t"

var ErrMalformedLog = errors.New("storage: malformed orbit log")

// OrbitSample is one row of the orbit log: the tracked particle's mass and
// osculating elements at time T.
type OrbitSample struct {
	T    float64 `json:"t"`
	M    float64 `json:"m"`
	A    float64 `json:"a"`
	E    float64 `json:"e"`
	Inc  float64 `json:"inc"`
	Node float64 `json:"node"`
	Peri float64 `json:"peri"`
	F    float64 `json:"f"`
}

func (s OrbitSample) fields() [8]float64 {
	return [8]float64{s.T, s.M, s.A, s.E, s.Inc, s.Node, s.Peri, s.F}
}

// OrbitLogWriter streams samples in the orbit log format.
type OrbitLogWriter struct {
	w      *bufio.Writer
	header bool
}

func NewOrbitLogWriter(w io.Writer) *OrbitLogWriter {
	return &OrbitLogWriter{w: bufio.NewWriter(w)}
}

func (lw *OrbitLogWriter) Write(s OrbitSample) error {
	if !lw.header {
		if _, err := lw.w.WriteString(OrbitLogHeader + "\n"); err != nil {
			return err
		}
		lw.header = true
	}

	f := s.fields()
	for i, v := range f {
		if i > 0 {
			if _, err := lw.w.WriteString(orbitLogSep); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(lw.w, "%e", v); err != nil {
			return err
		}
	}
	return lw.w.WriteByte('\n')
}

// Flush writes the header if nothing was written yet and flushes buffered
// rows.
func (lw *OrbitLogWriter) Flush() error {
	if !lw.header {
		if _, err := lw.w.WriteString(OrbitLogHeader + "\n"); err != nil {
			return err
		}
		lw.header = true
	}
	return lw.w.Flush()
}

func WriteOrbitLog(w io.Writer, samples []OrbitSample) error {
	lw := NewOrbitLogWriter(w)
	for _, s := range samples {
		if err := lw.Write(s); err != nil {
			return err
		}
	}
	return lw.Flush()
}

// ReadOrbitLog parses a log written by WriteOrbitLog. Blank lines are
// skipped.
func ReadOrbitLog(r io.Reader) ([]OrbitSample, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: empty", ErrMalformedLog)
	}
	if strings.TrimRight(sc.Text(), "\r") != OrbitLogHeader {
		return nil, fmt.Errorf("%w: unexpected header", ErrMalformedLog)
	}

	var samples []OrbitSample
	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		parts := strings.Split(text, orbitLogSep)
		if len(parts) != 8 {
			return nil, fmt.Errorf("%w: line %d has %d columns", ErrMalformedLog, line, len(parts))
		}

		var vals [8]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedLog, line, err)
			}
			vals[i] = v
		}
		samples = append(samples, OrbitSample{
			T: vals[0], M: vals[1], A: vals[2], E: vals[3],
			Inc: vals[4], Node: vals[5], Peri: vals[6], F: vals[7],
		})
	}
	return samples, sc.Err()
}
