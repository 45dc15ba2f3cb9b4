// Package thumbnails keeps the on-disk preview cache in step with Kitsu.
//
// Presence on disk is the only cache key: a file that exists is never fetched
// again unless forced. Batches run through an errgroup with a worker limit and
// every write goes through a temp file and rename, so the resulting tree does
// not depend on completion order.
package thumbnails
