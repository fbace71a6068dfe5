package wire

// Since-version thresholds for every version-gated wire message this
// repository emits (spec section 6). Expressed as a table rather than
// scattered conditionals, per spec section 9's "versioned protocols"
// design note.
const (
	OutputGeometrySince uint32 = 1
	OutputModeSince     uint32 = 1
	OutputScaleSince    uint32 = 2
	OutputDoneSince     uint32 = 2

	DataSourceActionSince           uint32 = 3
	DataSourceDndDropPerformedSince uint32 = 3
	DataSourceDndFinishedSince      uint32 = 3

	DataOfferActionSince        uint32 = 3
	DataOfferSourceActionsSince uint32 = 3
)
