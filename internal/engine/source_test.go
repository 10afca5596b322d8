package engine

import (
	"errors"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

// chiSquare returns the statistic for counts against a uniform expectation.
func chiSquare(counts []int, total int) float64 {
	expected := float64(total) / float64(len(counts))
	var stat float64
	for _, c := range counts {
		d := float64(c) - expected
		stat += d * d / expected
	}
	return stat
}

func TestSourcesStayInBounds(t *testing.T) {
	sources := map[string]Source{
		"crypto": NewCryptoSource(),
		"seeded": NewSeededSource(Seeds{Server: "bounds", Client: "check"}, 0),
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			for _, n := range []int{1, 37, 49} {
				for i := 0; i < 2000; i++ {
					v, err := src.Intn(n)
					if err != nil {
						t.Fatalf("Intn(%d): %v", n, err)
					}
					if v < 0 || v >= n {
						t.Fatalf("Intn(%d) = %d, out of range", n, v)
					}
				}
			}
		})
	}
}

func TestSourcesAreUniform(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping uniformity check in short mode")
	}

	// Critical chi-square values at p=0.0001: df=36 -> ~74.3, df=48 -> ~91.5.
	limits := map[int]float64{37: 80, 49: 100}
	const draws = 100_000

	sources := map[string]func() Source{
		"crypto": func() Source { return NewCryptoSource() },
		"seeded": func() Source { return NewSeededSource(Seeds{Server: "uniform_server", Client: "uniform_client"}, 1) },
	}

	for name, mk := range sources {
		for n, limit := range limits {
			src := mk()
			counts := make([]int, n)
			for i := 0; i < draws; i++ {
				v, err := src.Intn(n)
				if err != nil {
					t.Fatalf("%s Intn(%d): %v", name, n, err)
				}
				counts[v]++
			}
			if stat := chiSquare(counts, draws); stat > limit {
				t.Errorf("%s over %d outcomes: chi-square %.2f exceeds %.0f", name, n, stat, limit)
			}
		}
	}
}

func TestInvalidBound(t *testing.T) {
	for _, src := range []Source{NewCryptoSource(), NewSeededSource(Seeds{}, 0)} {
		if _, err := src.Intn(0); !errors.Is(err, ErrInvalidBound) {
			t.Errorf("Intn(0) error = %v, want ErrInvalidBound", err)
		}
	}
}

func TestCryptoSourceReadError(t *testing.T) {
	src := NewCryptoSourceFrom(failingReader{})
	if _, err := src.Intn(37); err == nil {
		t.Fatal("expected read error")
	}
}

func TestSeededSourceReplays(t *testing.T) {
	seeds := Seeds{Server: "test_server_seed", Client: "test_client_seed"}
	src := NewSeededSource(seeds, 0)

	for nonce := uint64(0); nonce < 10; nonce++ {
		got, err := src.Intn(37)
		if err != nil {
			t.Fatalf("Intn: %v", err)
		}
		if want := Draw(seeds, nonce, 37); got != want {
			t.Errorf("draw at nonce %d = %d, want %d", nonce, got, want)
		}
	}
	if src.Nonce() != 10 {
		t.Errorf("Nonce() = %d, want 10", src.Nonce())
	}
	if src.Seeds() != seeds {
		t.Error("Seeds() mismatch")
	}
}
