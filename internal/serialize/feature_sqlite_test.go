package serialize

import (
	"database/sql"
	"testing"

	"github.com/phanidev19/msnontile/internal/feature"
	"github.com/phanidev19/msnontile/internal/msdoc"
)

func TestFeatureSQLiteWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := OpenFeatureSQLiteWriter(dir + "/features.db")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	feats := []feature.Feature{oneHillFeature()}
	w.AddSample("sample-a", feats, buildTestConverter())
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite3", dir+"/features.db")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var sampleName string
	if err := db.QueryRow(`SELECT Name FROM FinderSamples WHERE Id = 1`).Scan(&sampleName); err != nil {
		t.Fatal(err)
	}
	if sampleName != "sample-a" {
		t.Errorf("sample name = %q, want sample-a", sampleName)
	}

	var unchargedMass, apexTime, intensity float64
	var chargeList string
	err = db.QueryRow(`SELECT UnchargedMass, ApexTime, Intensity, ChargeList FROM FinderFeatures WHERE SamplesId = 1`).
		Scan(&unchargedMass, &apexTime, &intensity, &chargeList)
	if err != nil {
		t.Fatal(err)
	}
	if unchargedMass != 998.98 || apexTime != 0.5 || intensity != 100 || chargeList != "1" {
		t.Errorf("got (%v,%v,%v,%q), want (998.98,0.5,100,\"1\")", unchargedMass, apexTime, intensity, chargeList)
	}
}

func TestFeatureSQLiteWriterFinalizeTwiceErrors(t *testing.T) {
	dir := t.TempDir()
	w, err := OpenFeatureSQLiteWriter(dir + "/features.db")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.AddSample("sample-a", nil, (*msdoc.ScanConverter)(nil))
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	if err := w.Finalize(); err == nil {
		t.Fatal("expected error finalizing twice")
	}
}
