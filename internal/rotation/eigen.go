package rotation

import (
	"math"
	"sort"
)

const (
	// jacobiMaxSweeps caps the cyclic Jacobi iteration. A 4x4 symmetric
	// matrix converges in well under ten sweeps.
	jacobiMaxSweeps = 64
	// jacobiEpsilon is the off-diagonal to total Frobenius mass ratio at
	// which the matrix is considered diagonal.
	jacobiEpsilon = 1e-30
)

// Matrix4 is a row-major 4x4 matrix.
type Matrix4 [4][4]float64

// OuterSum returns Σ wᵢ·qᵢqᵢᵀ over the quaternions. A nil weights slice
// weights every sample by one.
func OuterSum(qs []Quaternion, weights []float64) Matrix4 {
	var m Matrix4
	for i, q := range qs {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		c := q.Components()
		for r := 0; r < 4; r++ {
			for k := 0; k < 4; k++ {
				m[r][k] += w * c[r] * c[k]
			}
		}
	}
	return m
}

// SymmetricEigen4 diagonalises the symmetric matrix a with the cyclic
// Jacobi method. Eigenvalues are returned in descending order; column i of
// vectors is the unit eigenvector for values[i].
func SymmetricEigen4(a Matrix4) (values [4]float64, vectors Matrix4) {
	var v Matrix4
	for i := 0; i < 4; i++ {
		v[i][i] = 1
	}

	for sweep := 0; sweep < jacobiMaxSweeps; sweep++ {
		var off, total float64
		for p := 0; p < 4; p++ {
			for q := 0; q < 4; q++ {
				sq := a[p][q] * a[p][q]
				total += sq
				if p != q {
					off += sq
				}
			}
		}
		if off == 0 || off <= jacobiEpsilon*total {
			break
		}

		for p := 0; p < 3; p++ {
			for q := p + 1; q < 4; q++ {
				if a[p][q] == 0 {
					continue
				}
				theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
				t := 1 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				if theta < 0 {
					t = -t
				}
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				for k := 0; k < 4; k++ {
					akp, akq := a[k][p], a[k][q]
					a[k][p] = c*akp - s*akq
					a[k][q] = s*akp + c*akq
				}
				for k := 0; k < 4; k++ {
					apk, aqk := a[p][k], a[q][k]
					a[p][k] = c*apk - s*aqk
					a[q][k] = s*apk + c*aqk
				}
				for k := 0; k < 4; k++ {
					vkp, vkq := v[k][p], v[k][q]
					v[k][p] = c*vkp - s*vkq
					v[k][q] = s*vkp + c*vkq
				}
			}
		}
	}

	order := []int{0, 1, 2, 3}
	sort.SliceStable(order, func(i, j int) bool {
		return a[order[i]][order[i]] > a[order[j]][order[j]]
	})
	for col, src := range order {
		values[col] = a[src][src]
		for r := 0; r < 4; r++ {
			vectors[r][col] = v[r][src]
		}
	}
	return values, vectors
}

// PrincipalEigenvector returns the unit eigenvector of the symmetric
// matrix a for its largest eigenvalue, as a quaternion, with that
// eigenvalue.
func PrincipalEigenvector(a Matrix4) (Quaternion, float64) {
	values, vectors := SymmetricEigen4(a)
	q := Quaternion{W: vectors[0][0], X: vectors[1][0], Y: vectors[2][0], Z: vectors[3][0]}
	return q.Normalize(), values[0]
}
