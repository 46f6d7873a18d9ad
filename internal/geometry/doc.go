// Package geometry is the planar measure model used by the linear-referencing
// packages: densification to a station spacing, lengths in a chosen linear
// unit, distance-along-line interpolation and point projection.
//
// Lines are orb.LineString values in a projected coordinate system. All
// distances are planar and expressed in the coordinate system's linear unit
// unless a function converts explicitly.
package geometry
