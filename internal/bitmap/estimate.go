package bitmap

// EstimateDataSize reproduces the byte count FromSortedIter(values,
// universe) would produce, without allocating the output buffer, per
// spec.md §4.7's estimator: "mirrors the builder's state-tracking without
// writing bytes — used to decide whether to materialize a dense bitmap in
// tree8 form at all." Used by BuildDensityAware to pick the smaller of
// the regular and complemented encodings cheaply.
func EstimateDataSize(values []uint32, universe uint32) int {
	levels := levelsFor(universe)
	return estimateNode(values, levels)
}

// estimateNode mirrors encodeNode's emission exactly: a node always writes
// its own byte (leaf or mask) once entered — callers gate recursion into a
// child on len(values)==0, never the node's own byte.
func estimateNode(values []uint32, levelsRemaining int) int {
	if levelsRemaining <= 1 {
		return 1
	}

	var groups [8][]uint32
	shift := uint(3 * (levelsRemaining - 1))
	for _, v := range values {
		d := (v >> shift) & 7
		groups[d] = append(groups[d], v)
	}

	size := 1 // this node's mask byte
	for d := 0; d < 8; d++ {
		if len(groups[d]) > 0 {
			size += estimateNode(groups[d], levelsRemaining-1)
		}
	}
	return size
}
