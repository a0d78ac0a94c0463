// Command errcheck replays the service's error declarations through the
// registry build and reports the published table, or the first
// declaration conflict. It is meant to run in CI next to the unit
// tests: a non-zero exit means the service would refuse to start.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"faultline/internal/fault"
	"faultline/internal/faults"
)

func main() {
	format := flag.String("format", "table", "output format: table or json")
	prefix := flag.String("service-prefix", "svc", "service prefix for identifiers")
	out := flag.String("out", "", "write output to file instead of stdout")
	flag.Parse()

	fault.SetServicePrefix(*prefix)

	registry, err := faults.BuildRegistry()
	if err != nil {
		reportFailure(err)
		os.Exit(1)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintln(os.Stderr, "errcheck:", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	switch *format {
	case "json":
		if err := writeJSON(w, registry); err != nil {
			fmt.Fprintln(os.Stderr, "errcheck:", err)
			os.Exit(1)
		}
	default:
		writeTable(w, registry)
	}
}

func reportFailure(err error) {
	var conflict *fault.ConflictError
	if errors.As(err, &conflict) {
		fmt.Fprintf(os.Stderr, "errcheck: conflicting declarations for %s\n", conflict.Identifier)
		fmt.Fprintf(os.Stderr, "  %s declared at %s\n", conflict.ShapeA, conflict.SiteA)
		fmt.Fprintf(os.Stderr, "  %s declared at %s\n", conflict.ShapeB, conflict.SiteB)
		return
	}
	var decl *fault.DeclarationError
	if errors.As(err, &decl) {
		fmt.Fprintf(os.Stderr, "errcheck: invalid declaration at %s: %s\n", decl.Site, decl.Reason)
		return
	}
	fmt.Fprintln(os.Stderr, "errcheck:", err)
}

type report struct {
	EntryPoints map[string][]string `json:"entry_points"`
	Schemas     []fault.Schema      `json:"schemas"`
}

func writeJSON(w *os.File, registry *fault.Registry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report{
		EntryPoints: registry.Table(),
		Schemas:     registry.Schemas(),
	})
}

func writeTable(w *os.File, registry *fault.Registry) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRY POINT\tIDENTIFIER\tKIND\tSTATUS\tCONTEXT")
	for _, entry := range registry.EntryPoints() {
		idents := registry.Identifiers(entry)
		sort.Strings(idents)
		for _, ident := range idents {
			s, ok := registry.Schema(ident)
			if !ok {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", entry, s.Identifier, s.Kind, s.Status, s.Shape)
		}
	}
	_ = tw.Flush()
}
