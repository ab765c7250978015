// Package events clusters per-lap event points, such as the extrema of a
// gear or brake signal, into locations representative across laps.
//
// Points are pooled as (signal value, distance) pairs and grouped with
// seeded k-means; centroids come back ordered by distance so repeated
// runs over the same laps label clusters identically.
package events
