package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/texture.report/internal/fsutil"
	"github.com/banshee-data/texture.report/internal/rotation"
)

// Grain 1 (elements 10, 11) stays in the cube orientation. Grain 2
// (elements 20, 21) starts in Goss and turns 5° about the normal per step.
var fixtureFiles = []string{"step_1.csv", "step_2.csv", "step_10.csv"}

func fixtureOrientation(grain, step int) rotation.Quaternion {
	if grain == 1 {
		return rotation.Identity()
	}
	return rotation.EulerDegrees(float64(5*step), 45, 0).Quaternion()
}

func fixtureFS() *fsutil.MemoryFileSystem {
	fsys := fsutil.NewMemoryFileSystem()
	elements := map[int][]int{1: {10, 11}, 2: {20, 21}}
	for step, name := range fixtureFiles {
		var b strings.Builder
		b.WriteString("block_id,id,orientation_q1,orientation_q2,orientation_q3,orientation_q4,cauchy_stress_xx,elastic_strain_xx\n")
		for _, grain := range []int{1, 2} {
			q := fixtureOrientation(grain, step)
			for _, el := range elements[grain] {
				fmt.Fprintf(&b, "%d,%d,%s,%s,%s,%s,%s,%s\n", grain, el,
					f64(q.W), f64(q.X), f64(q.Y), f64(q.Z),
					f64(100*float64(step)+float64(el)/10), f64(0.001*float64(step)))
			}
		}
		fsys.WriteFile("results/"+name, []byte(b.String()))
	}
	// Not a snapshot: no block_id column.
	fsys.WriteFile("results/grips.csv", []byte("id,force\n1,10\n2,11\n"))
	return fsys
}

func f64(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func ptr[T any](v T) *T { return &v }
