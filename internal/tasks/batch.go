package tasks

import (
	"slices"

	"github.com/desertthunder/amzx/internal/models"
	"github.com/desertthunder/amzx/internal/shared"
)

// DefaultBatchSize is the destination's per-request track limit.
const DefaultBatchSize = shared.MaxBatchSize

// Chunk partitions tracks into consecutive batches of at most size tracks.
//
// The result has ceil(len/size) batches; concatenated, they equal the input.
// Batches share the input's track pointers. Sizes outside 1..[DefaultBatchSize] use [DefaultBatchSize].
func Chunk(tracks []*models.Track, size int) []models.TrackBatch {
	if size <= 0 || size > DefaultBatchSize {
		size = DefaultBatchSize
	}

	batches := make([]models.TrackBatch, 0, (len(tracks)+size-1)/size)
	for batch := range slices.Chunk(tracks, size) {
		batches = append(batches, models.TrackBatch(batch))
	}
	return batches
}

// URIs returns the destination URIs of the batch's resolved tracks, in order.
func URIs(batch models.TrackBatch) []string {
	uris := make([]string, 0, len(batch))
	for _, t := range batch {
		if t.Translation != nil && t.Translation.URI != "" {
			uris = append(uris, t.Translation.URI)
		}
	}
	return uris
}

// clearTranslations drops the matches of a batch that was never written.
func clearTranslations(batch models.TrackBatch) {
	for _, t := range batch {
		t.Translation = nil
	}
}
