package aggregate

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/texture.report/internal/rotation"
	"github.com/banshee-data/texture.report/internal/testutil"
)

func cluster() []rotation.Quaternion {
	return []rotation.Quaternion{
		rotation.EulerDegrees(30, 40, 50).Quaternion(),
		rotation.EulerDegrees(32, 41, 49).Quaternion(),
		rotation.EulerDegrees(29, 38, 52).Quaternion(),
		rotation.EulerDegrees(31, 42, 48).Quaternion(),
		rotation.EulerDegrees(28, 39, 51).Quaternion(),
	}
}

func TestAverageOrientation_Single(t *testing.T) {
	q := rotation.NewQuaternion(0.3, -0.6, 0.1, 0.73)
	got, err := AverageOrientation([]rotation.Quaternion{q})
	require.NoError(t, err)
	testutil.AssertSameRotation(t, got, q, 1e-12)
	assert.True(t, got.IsUnit(1e-12))
}

func TestAverageOrientation_Copies(t *testing.T) {
	q := rotation.EulerDegrees(120, 33, 270).Quaternion()
	samples := []rotation.Quaternion{q, q, q, q, q, q, q}
	got, err := AverageOrientation(samples)
	require.NoError(t, err)
	testutil.AssertSameRotation(t, got, q, 1e-12)
}

func TestAverageOrientation_Identity(t *testing.T) {
	id := rotation.Identity()
	got, err := AverageOrientation([]rotation.Quaternion{id, id, id})
	require.NoError(t, err)
	assert.InDelta(t, 1, got.W, 1e-12)
	assert.InDelta(t, 0, got.X, 1e-12)
	assert.InDelta(t, 0, got.Y, 1e-12)
	assert.InDelta(t, 0, got.Z, 1e-12)

	e := rotation.ToEuler(got)
	testutil.AssertEulerClose(t, e, rotation.Euler(0, 0, 0), 1e-9)
}

func TestAverageOrientation_PermutationInvariant(t *testing.T) {
	samples := cluster()
	want, err := AverageOrientation(samples)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]rotation.Quaternion(nil), samples...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := AverageOrientation(shuffled)
		require.NoError(t, err)
		testutil.AssertSameRotation(t, got, want, 1e-12)
	}
}

func TestAverageOrientation_SignInvariant(t *testing.T) {
	samples := cluster()
	want, err := AverageOrientation(samples)
	require.NoError(t, err)

	flipped := append([]rotation.Quaternion(nil), samples...)
	flipped[1] = flipped[1].Neg()
	flipped[3] = flipped[3].Neg()
	got, err := AverageOrientation(flipped)
	require.NoError(t, err)
	testutil.AssertSameRotation(t, got, want, 1e-12)

	// A global flip lands the result on the other sheet, same rotation.
	for i := range flipped {
		flipped[i] = samples[i].Neg()
	}
	got, err = AverageOrientation(flipped)
	require.NoError(t, err)
	testutil.AssertSameRotation(t, got, want, 1e-12)
	assert.GreaterOrEqual(t, got.Dot(flipped[0]), 0.0)
}

func TestAverageOrientation_Symmetric(t *testing.T) {
	// ±10° about z average to the identity.
	z := rotation.V(0, 0, 1)
	a := rotation.FromAxisAngle(z, 10*math.Pi/180)
	b := rotation.FromAxisAngle(z, -10*math.Pi/180)
	got, err := AverageOrientation([]rotation.Quaternion{a, b})
	require.NoError(t, err)
	testutil.AssertSameRotation(t, got, rotation.Identity(), 1e-12)
}

func TestAverageOrientation_WithinCluster(t *testing.T) {
	samples := cluster()
	got, err := AverageOrientation(samples)
	require.NoError(t, err)
	for _, q := range samples {
		// Every sample is within 5° of the mean.
		d := rotation.Compose(rotation.Invert(got), q).Angle()
		assert.Less(t, d, 5*math.Pi/180)
	}
}

func TestAverageOrientation_Empty(t *testing.T) {
	_, err := AverageOrientation(nil)
	assert.ErrorIs(t, err, ErrEmptyGrain)
}

func TestAverageOrientation_InvalidSample(t *testing.T) {
	good := rotation.EulerDegrees(10, 20, 30).Quaternion()
	tests := []struct {
		name string
		bad  rotation.Quaternion
	}{
		{"zero", rotation.Quaternion{}},
		{"nan", rotation.Quaternion{W: 1, X: math.NaN(), Y: 0.5, Z: 0.5}},
		{"inf", rotation.Quaternion{W: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AverageOrientation([]rotation.Quaternion{good, tt.bad, good})
			assert.ErrorIs(t, err, ErrInvalidOrientation)
			assert.ErrorContains(t, err, "sample 1")
		})
	}
}

func TestAverageOrientationWeighted(t *testing.T) {
	z := rotation.V(0, 0, 1)
	a := rotation.FromAxisAngle(z, 0)
	b := rotation.FromAxisAngle(z, math.Pi/3)
	samples := []rotation.Quaternion{a, b}

	t.Run("zero weight ignores sample", func(t *testing.T) {
		got, err := AverageOrientationWeighted(samples, []float64{0, 1})
		require.NoError(t, err)
		testutil.AssertSameRotation(t, got, b, 1e-12)
	})

	t.Run("heavier sample pulls the mean", func(t *testing.T) {
		got, err := AverageOrientationWeighted(samples, []float64{3, 1})
		require.NoError(t, err)
		toA := rotation.Compose(rotation.Invert(got), a).Angle()
		toB := rotation.Compose(rotation.Invert(got), b).Angle()
		assert.Less(t, toA, toB)
	})

	t.Run("all-zero weights fall back to equal", func(t *testing.T) {
		got, err := AverageOrientationWeighted(samples, []float64{0, 0})
		require.NoError(t, err)
		want, err := AverageOrientation(samples)
		require.NoError(t, err)
		testutil.AssertSameRotation(t, got, want, 1e-12)
		testutil.AssertSameRotation(t, got, rotation.FromAxisAngle(z, math.Pi/6), 1e-12)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := AverageOrientationWeighted(samples, []float64{1})
		assert.ErrorIs(t, err, ErrInvalidWeight)
	})

	t.Run("negative weight", func(t *testing.T) {
		_, err := AverageOrientationWeighted(samples, []float64{1, -1})
		assert.ErrorIs(t, err, ErrInvalidWeight)
	})
}
