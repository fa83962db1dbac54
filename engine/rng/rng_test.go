package rng

import "testing"

func TestRNG_Deterministic(t *testing.T) {
	rng1 := New(42)
	rng2 := New(42)

	for i := 0; i < 20; i++ {
		a := rng1.Roll(20)
		b := rng2.Roll(20)
		if a != b {
			t.Fatalf("roll %d: got %d and %d from same seed", i, a, b)
		}
	}
}

func TestRNG_Roll_Range(t *testing.T) {
	rng := New(99)

	for i := 0; i < 1000; i++ {
		r := rng.Roll(20)
		if r < 1 || r > 20 {
			t.Fatalf("roll out of range [1,20]: got %d", r)
		}
	}
}

func TestRNG_Roll_OneSided(t *testing.T) {
	rng := New(1)

	for i := 0; i < 10; i++ {
		if r := rng.Roll(1); r != 1 {
			t.Fatalf("1-sided die should always be 1, got %d", r)
		}
	}
}

func TestRNG_Float64_Range(t *testing.T) {
	rng := New(7)

	for i := 0; i < 1000; i++ {
		f := rng.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("float out of range [0,1): got %f", f)
		}
	}
}

func TestRNG_Chance_Extremes(t *testing.T) {
	rng := New(3)

	for i := 0; i < 100; i++ {
		if rng.Chance(0) {
			t.Fatal("Chance(0) should never be true")
		}
		if !rng.Chance(1) {
			t.Fatal("Chance(1) should always be true")
		}
	}
}

func TestRNG_Shuffle_Deterministic(t *testing.T) {
	a := []int{1, 2, 3, 4, 5, 6, 7, 8}
	b := []int{1, 2, 3, 4, 5, 6, 7, 8}

	New(11).Shuffle(len(a), func(i, j int) { a[i], a[j] = a[j], a[i] })
	New(11).Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("shuffle differs at %d: %v vs %v", i, a, b)
		}
	}
}

func TestRNG_Position_Tracks(t *testing.T) {
	rng := New(42)

	if rng.Position() != 0 {
		t.Fatalf("expected position 0, got %d", rng.Position())
	}

	rng.Roll(6)
	if rng.Position() != 1 {
		t.Fatalf("expected position 1, got %d", rng.Position())
	}

	rng.Chance(0.5)
	rng.Float64()
	rng.Shuffle(3, func(i, j int) {})
	if rng.Position() != 4 {
		t.Fatalf("expected position 4, got %d", rng.Position())
	}
}

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	b, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	if a == b {
		t.Errorf("expected distinct seeds, got %d twice", a)
	}
	if New(a).Seed() != a {
		t.Error("Seed() should return the construction seed")
	}
}
