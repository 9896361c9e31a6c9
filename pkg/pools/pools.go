// Package pools provides object pooling for reducing GC pressure.
//
// The clustering phases allocate short-lived scratch per node or per
// partition; these pools let workers reuse it:
//
//   - Int64Pool: id slices (touched-community lists, emitted arcs)
//   - WeightMapPool: community id -> accumulated weight maps
//   - BytePool: line buffers for edge-list scanning
package pools
