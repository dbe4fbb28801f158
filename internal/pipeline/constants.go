package pipeline

// Rate matching
const (
	// Host and internal rates closer than this are treated as equal and the
	// bridge passes blocks straight through.
	rateTolerance = 1e-9
)

// Frame queue
const (
	minQueueCapacity = 1
)
