package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// CaptureHeader is the header of a small FishStat-style capture export.
// The S columns carry status flags and are dropped during cleaning.
var CaptureHeader = []string{
	"Country (Country)",
	"ASFIS species (ASFIS species)",
	"FAO major fishing area (FAO major fishing area)",
	"Unit (Unit)",
	"[2018]", "S",
	"[2019]", "S.1",
	"[2020]", "S.2",
}

// CaptureCSV is a wide capture export with sentinel cells.
const CaptureCSV = `Country (Country),ASFIS species (ASFIS species),FAO major fishing area (FAO major fishing area),Unit (Unit),[2018],S,[2019],S.1,[2020],S.2
Norway,FCY,27,Tonnes - live weight,10,,20,E,30,
Iceland,FCY,27,Tonnes - live weight,.,,5,,NA,E
Chile,ANE,87,Tonnes - live weight,100,,,,300,
`

// WriteFile writes content into a file named name inside a fresh temp dir
// and returns the path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}
