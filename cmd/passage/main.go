// Command passage plans a nautical route offline and prints its legs.
//
// Usage:
//
//	go run ./cmd/passage -in passage.json
//	echo '{"origin":{"lat":50.8,"lng":-1.1},"destination":{"lat":49.6,"lng":-1.6}}' | go run ./cmd/passage -format json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/couchcryptid/marine-watch/internal/domain"
	"github.com/couchcryptid/marine-watch/internal/geodesy"
)

// passage is the input document.
type passage struct {
	Origin      *domain.GeoPoint  `json:"origin"`
	Destination *domain.GeoPoint  `json:"destination"`
	Waypoints   []domain.GeoPoint `json:"waypoints"`
}

type plan struct {
	Legs            []domain.NauticalLeg `json:"legs"`
	TotalDistanceNm float64              `json:"total_distance_nm"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("passage", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "-", "passage JSON file, or - for stdin")
	format := fs.String("format", "table", "output format: table or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *format != "table" && *format != "json" {
		fmt.Fprintf(stderr, "unknown format %q\n", *format)
		return 2
	}

	p, err := readPassage(*in, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read passage: %v\n", err)
		return 1
	}

	legs, err := geodesy.GenerateRoute(*p.Origin, *p.Destination, p.Waypoints)
	if err != nil {
		fmt.Fprintf(stderr, "plan route: %v\n", err)
		return 1
	}
	result := plan{Legs: legs, TotalDistanceNm: geodesy.TotalDistanceNm(legs)}

	if *format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(stderr, "write plan: %v\n", err)
			return 1
		}
		return 0
	}

	writeTable(stdout, result)
	return 0
}

func readPassage(path string, stdin io.Reader) (passage, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return passage{}, err
		}
		defer f.Close()
		r = f
	}

	var p passage
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return passage{}, err
	}
	if p.Origin == nil || p.Destination == nil {
		return passage{}, fmt.Errorf("%w: origin and destination are required", domain.ErrInvalidInput)
	}
	return p, nil
}

func writeTable(w io.Writer, p plan) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LEG\tBEARING\tDISTANCE\tMANEUVER\tINSTRUCTION")
	for i, leg := range p.Legs {
		fmt.Fprintf(tw, "%d\t%03.0f°\t%.1f nm\t%s\t%s\n", i+1, leg.BearingDeg, leg.DistanceNm, leg.Maneuver, leg.Instruction)
	}
	tw.Flush() //nolint:errcheck // stdout
	fmt.Fprintf(w, "\nTotal: %.1f nm over %d leg(s)\n", p.TotalDistanceNm, len(p.Legs))
}
