// Package fusion turns a text sentiment rating and a stream of facial
// expression observations into one coarse sentiment.
//
// ReduceText collapses the three-way text classifier output into a scored
// sentiment. Aggregator.Reduce collapses face observations
// with an exponential half-life decay and a softmax over the per-bucket
// weighted durations. Fuse merges both signals with a fixed precedence.
//
// Every function here is pure: no clock reads, no shared state. Callers
// normally pass observations ascending by timestamp (see
// emotion.SortByTimestamp); the face aggregator reduces a sorted copy
// otherwise and never reorders its input.
package fusion
