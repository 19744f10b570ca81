// Package aggregate reduces per-element orientation snapshots to one
// orientation per grain per timestep.
//
// Quaternion samples are averaged on SO(3) through the principal
// eigenvector of their summed outer products, which is insensitive to the
// q/-q ambiguity. Element-to-grain membership is fixed up front, normally
// from the last snapshot, and applied to every timestep.
package aggregate
