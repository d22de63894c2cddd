package prng

import "testing"

func TestMulberry32KnownSequence(t *testing.T) {
	r := New(320)
	want := []uint32{2311470363, 195416923, 1291873446}
	for i, w := range want {
		if got := r.Uint32(); got != w {
			t.Fatalf("draw %d = %d, want %d", i, got, w)
		}
	}
}

func TestMulberry32Float64(t *testing.T) {
	r := New(320)
	want := []float64{
		float64(2311470363) / twoTo32,
		float64(195416923) / twoTo32,
		float64(1291873446) / twoTo32,
	}
	for i, w := range want {
		if got := r.Float64(); got != w {
			t.Errorf("draw %d = %v, want %v", i, got, w)
		}
	}
}

func TestMulberry32Range(t *testing.T) {
	r := New(7)
	for i := 0; i < 100000; i++ {
		v := r.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("draw %d out of range: %v", i, v)
		}
	}
}

func TestMulberry32Deterministic(t *testing.T) {
	a, b := New(12345), New(12345)
	for i := 0; i < 1000; i++ {
		if x, y := a.Uint32(), b.Uint32(); x != y {
			t.Fatalf("draw %d diverged: %d != %d", i, x, y)
		}
	}
}

func TestMulberry32Reset(t *testing.T) {
	r := New(99)
	first := r.Uint32()
	r.Uint32()
	r.Reset()
	if got := r.Uint32(); got != first {
		t.Errorf("after Reset got %d, want %d", got, first)
	}
	if r.Seed() != 99 {
		t.Errorf("Seed() = %d, want 99", r.Seed())
	}
}

func TestIntn(t *testing.T) {
	r := New(1)
	if got := r.Intn(0); got != 0 {
		t.Errorf("Intn(0) = %d, want 0", got)
	}
	for i := 0; i < 1000; i++ {
		if v := r.Intn(10); v < 0 || v >= 10 {
			t.Fatalf("Intn(10) = %d", v)
		}
	}
}

func TestSeedFromString(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"", 0},
		{"TEST", 320},
		{"a", 97},
		{"é", 233},
		{"😀a", 55454},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SeedFromString(tt.in); got != tt.want {
				t.Errorf("SeedFromString(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func BenchmarkFloat64(b *testing.B) {
	r := New(1)
	for i := 0; i < b.N; i++ {
		r.Float64()
	}
}
