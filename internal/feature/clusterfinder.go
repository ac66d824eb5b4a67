package feature

import (
	"math"
	"sync/atomic"

	"github.com/phanidev19/msnontile/internal/errs"
	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

// MinCosineSimilarity is the minimum cosine correlation a candidate
// isotope neighbor's XIC must have with the parent hill's XIC to be kept
// in a cluster, per spec §4.L step 6.
const MinCosineSimilarity = 0.90

// Feature is one emitted isotope cluster group: a neutral mass plus every
// charge-state cluster explaining it.
type Feature struct {
	ID            int
	UnchargedMass float64
	ApexTime      float64
	Intensity     float64
	Clusters      []Cluster
}

// Cluster is one charge state's explanation of a feature: the parent hill
// plus every kept isotope-neighbor hill.
type Cluster struct {
	Charge      int
	Monoisotope float64
	Parent      *Hill
	Neighbors   []*Hill
	// NeighborSimilarity[i] is the cosine similarity of Neighbors[i]'s XIC
	// against the parent's, parallel to Neighbors.
	NeighborSimilarity []float64
}

// ClusterFinder runs the main feature-finding loop over a Session.
type ClusterFinder struct {
	session *Session
	hills   *HillFinder
	charge  ChargeDeterminator
	mono    MonoisotopeDeterminator

	MinIntensity   float64
	ProgressLimit  float64 // 0 disables the percent-progress termination check
	totalPoints    int
	stop           int32
}

// NewClusterFinder builds a finder over session using the given
// determinators and hill finder. totalPoints is the rectangle's starting
// point count, used for the progress-limit termination check.
func NewClusterFinder(session *Session, hills *HillFinder, charge ChargeDeterminator, mono MonoisotopeDeterminator, totalPoints int) *ClusterFinder {
	return &ClusterFinder{session: session, hills: hills, charge: charge, mono: mono, totalPoints: totalPoints}
}

// Stop requests cancellation before the next cluster; observed between
// iterations of Run, matching the spec's atomic-flag cancellation model.
func (c *ClusterFinder) Stop() { atomic.StoreInt32(&c.stop, 1) }

func (c *ClusterFinder) stopped() bool { return atomic.LoadInt32(&c.stop) != 0 }

// Run executes the main loop until the session is exhausted, the minimum
// intensity threshold is crossed, the progress limit is reached, or Stop
// is called, returning every emitted Feature.
func (c *ClusterFinder) Run() ([]Feature, error) {
	var features []Feature
	c.hills.ResetID()
	for {
		if c.stopped() {
			return features, nil
		}
		seed := c.session.MaxIntensity()
		if seed == nil || seed.Intensity < c.MinIntensity {
			return features, nil
		}
		if c.ProgressLimit > 0 && c.totalPoints > 0 {
			processed := c.totalPoints - c.session.RemainingPoints()
			if float64(processed)/float64(c.totalPoints) >= c.ProgressLimit {
				return features, nil
			}
		}

		feat, touched, err := c.processSeed(seed)
		if err != nil {
			return features, err
		}
		if feat != nil {
			features = append(features, *feat)
		}
		if err := c.session.UpdateIndexForTiles(touched); err != nil {
			return features, err
		}
	}
}

func (c *ClusterFinder) processSeed(seed *TilePoint) (*Feature, []tilecoord.Pos, error) {
	searchRadius := math.Max(c.charge.SearchRadius(), c.mono.SearchRadius())
	crossSection, err := c.session.Document().GetScanData(seed.ScanIndex, seed.Mz-searchRadius, seed.Mz+searchRadius, true)
	if err != nil {
		return nil, nil, err
	}

	charge := c.charge.DetermineCharge(crossSection, seed.Mz)
	offset, _ := c.mono.DetermineMonoisotopeOffset(crossSection, seed.Mz, charge)
	monoMz := MonoisotopicMz(seed.Mz, offset, charge)
	unchargedMass := UnchargedMass(monoMz, charge)
	window := AveragineWindowFor(unchargedMass)

	touchedSet := make(map[tilecoord.Pos]bool)
	mainCluster, err := c.buildCluster(seed.Mz, seed.ScanIndex, charge, window, touchedSet)
	if err != nil {
		return nil, nil, err
	}
	if mainCluster == nil {
		// make_default_hill never returns null for a valid seed; a nil
		// mainCluster here means the seed point itself could not be found,
		// which is an invariant violation worth surfacing rather than
		// looping forever on the same seed.
		return nil, nil, errs.Newf(errs.Error, "no hill found for seed at mz %v, scan index %d", seed.Mz, seed.ScanIndex)
	}

	clusters := []Cluster{*mainCluster}
	for otherCharge := 1; otherCharge <= 10; otherCharge++ {
		if otherCharge == charge {
			continue
		}
		nextMz := MassAdjust(seed.Mz, charge, otherCharge)
		otherWindow := AveragineWindowFor(unchargedMass)
		cl, err := c.buildCluster(nextMz, seed.ScanIndex, otherCharge, otherWindow, touchedSet)
		if err != nil {
			return nil, nil, err
		}
		if cl != nil {
			clusters = append(clusters, *cl)
		}
	}

	feat := &Feature{
		ID:            c.hills.NextID(),
		UnchargedMass: unchargedMass,
		ApexTime:      c.session.Document().Converter().TimeAt(seed.ScanIndex),
		Intensity:     seed.Intensity,
		Clusters:      clusters,
	}

	touched := make([]tilecoord.Pos, 0, len(touchedSet))
	for pos := range touchedSet {
		touched = append(touched, pos)
	}
	return feat, touched, nil
}

func (c *ClusterFinder) buildCluster(seedMz float64, seedScan, charge int, window AveragineWindow, touched map[tilecoord.Pos]bool) (*Cluster, error) {
	parent, err := c.hills.ExplainPeak(seedMz, seedScan)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		pt := &TilePoint{Mz: seedMz, ScanIndex: seedScan}
		parent, err = c.hills.MakeDefaultHill(pt)
		if err != nil {
			return nil, err
		}
		if parent == nil || len(parent.Points) == 0 {
			return nil, nil
		}
	}
	parent.ID = c.hills.NextID()
	parentXIC := HillXIC(parent)

	neighbors := make([]*Hill, 0, window.Left+window.Right)
	similarities := make([]float64, 0, window.Left+window.Right)
	for _, neighborMz := range CandidateNeighborMz(seedMz, charge, window) {
		nh, err := c.hills.ExplainNeighbor(neighborMz, parent)
		if err != nil {
			return nil, err
		}
		if nh == nil {
			continue
		}
		sim := CosineSimilarity(parentXIC, HillXIC(nh))
		if sim < MinCosineSimilarity {
			continue
		}
		nh.ID = c.hills.NextID()
		neighbors = append(neighbors, nh)
		similarities = append(similarities, sim)
	}

	if err := c.hills.MarkPointsAsProcessed(parent); err != nil {
		return nil, err
	}
	for pos := range parent.TilesTouched {
		touched[pos] = true
	}
	for _, nh := range neighbors {
		if err := c.hills.MarkPointsAsProcessed(nh); err != nil {
			return nil, err
		}
		for pos := range nh.TilesTouched {
			touched[pos] = true
		}
	}

	return &Cluster{Charge: charge, Monoisotope: seedMz, Parent: parent, Neighbors: neighbors, NeighborSimilarity: similarities}, nil
}

// CosineSimilarity compares two XICs aligned by scan index, treating
// missing overlap as zero contribution.
func CosineSimilarity(a, b []numeric.Point) float64 {
	byScan := make(map[int]float64, len(b))
	for _, p := range b {
		byScan[int(p.X)] = p.Y
	}
	var dot, normA, normB float64
	for _, p := range a {
		bv := byScan[int(p.X)]
		dot += p.Y * bv
		normA += p.Y * p.Y
	}
	for _, p := range b {
		normB += p.Y * p.Y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
