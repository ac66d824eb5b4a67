package msdoc

import (
	"path/filepath"
	"testing"

	"os"
)

func TestCSVScanReaderLoadsAndGroupsByScan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scans.csv")
	content := "scan_number,retention_time,mz,intensity,centroided\n" +
		"1,0.1,100,10,1\n" +
		"1,0.1,101,20,1\n" +
		"2,0.2,150,5,1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewCSVScanReader()
	if err := r.OpenFile(path); err != nil {
		t.Fatal(err)
	}

	infos, err := r.ScanInfoListAtLevel(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d scans, want 2", len(infos))
	}

	pts, err := r.GetScanData(1, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 2 || pts[0].X != 100 || pts[1].X != 101 {
		t.Errorf("scan 1 points = %v, want [{100 10} {101 20}]", pts)
	}

	if _, err := r.GetScanData(99, true); err == nil {
		t.Fatal("expected error for unknown scan")
	}
}
