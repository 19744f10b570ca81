// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"

	"github.com/banshee-data/texture.report/internal/rotation"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertSameRotation fails the test unless got and want describe the same
// rotation to within tol, either sign.
func AssertSameRotation(t testing.TB, got, want rotation.Orientation, tol float64) {
	t.Helper()
	g, w := got.Quaternion(), want.Quaternion()
	if !rotation.EqualRotation(g, w, tol) {
		t.Errorf("rotation = %v, want %v (±)", g, w)
	}
}

// AngleDiff returns the distance between two angles on the circle, in
// [0, π].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), rotation.TwoPi)
	return math.Min(d, rotation.TwoPi-d)
}

// AssertEulerClose compares Euler triples component-wise modulo 2π.
func AssertEulerClose(t testing.TB, got, want rotation.EulerAngle, tol float64) {
	t.Helper()
	g, w := got.Components(), want.Components()
	for i := range g {
		if AngleDiff(g[i], w[i]) > tol {
			t.Errorf("euler = %v, want %v", got, want)
			return
		}
	}
}

// AssertFloatsClose fails the test unless the slices have equal length and
// agree element-wise to within tol. NaN matches NaN.
func AssertFloatsClose(t testing.TB, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.IsNaN(got[i]) && math.IsNaN(want[i]) {
			continue
		}
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}
