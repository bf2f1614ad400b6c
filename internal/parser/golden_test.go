package parser

import (
	"testing"

	"golang.org/x/tools/txtar"
)

// TestFixturesParseCleanly bundles several small, independent source
// snippets into one archive instead of one file per fixture, the way
// a table of inputs would otherwise sprawl across testdata/.
func TestFixturesParseCleanly(t *testing.T) {
	ar, err := txtar.ParseFile("testdata/fixtures.txtar")
	if err != nil {
		t.Fatalf("txtar.ParseFile() error: %v", err)
	}
	if len(ar.Files) == 0 {
		t.Fatalf("expected at least one fixture in the archive")
	}
	for _, f := range ar.Files {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			if _, err := Parse(f.Name, string(f.Data)); err != nil {
				t.Fatalf("Parse(%s) error: %v", f.Name, err)
			}
		})
	}
}
