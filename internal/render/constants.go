package render

// Path interpolation
const (
	// One filter lookup per this many samples along the path, plus one.
	pathSamplesPerLookup = 4

	// Path interpolation needs at least one segment.
	minPathSegments = 1
)
