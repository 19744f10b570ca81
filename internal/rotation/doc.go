// Package rotation is the stateless rotation kernel used by the texture
// analysis packages: unit quaternions, Euler-Bunge angles, angle wrapping
// and the small symmetric eigen-solve needed for orientation averaging.
//
// Conventions:
//   - Quaternions are stored (W, X, Y, Z) with W the scalar part.
//   - An orientation quaternion is passive: its rotation matrix maps
//     sample coordinates into crystal coordinates. This is the Bunge
//     orientation matrix g, whose columns are the sample axes expressed
//     in crystal coordinates.
//   - Euler angles are Bunge (φ1, Φ, φ2) in radians, wrapped to [0, 2π).
//
// q and -q describe the same rotation. Comparisons and averages must
// resolve that ambiguity first; see CanonicalizeSign.
package rotation
