package export

// BuildEditManifest derives edit.json from shots already sorted by start
// frame. It reports false when there are no shots.
func BuildEditManifest(sourceName, sourceType string, shots []Shot) (EditManifest, bool) {
	if len(shots) == 0 {
		return EditManifest{}, false
	}
	first, last := shots[0], shots[len(shots)-1]
	return EditManifest{
		SourceName:  sourceName,
		SourceType:  sourceType,
		TotalFrames: last.FrameOut - first.StartFrame,
		FrameOffset: first.StartFrame,
	}, true
}
