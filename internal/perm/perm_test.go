package perm

import (
	"fmt"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/stat/combin"
)

func TestBinaryCounts(t *testing.T) {
	for length := 0; length <= 8; length++ {
		for ones := 0; ones <= length; ones++ {
			t.Run(fmt.Sprintf("%d_of_%d", ones, length), func(t *testing.T) {
				seqs := Binary(ones, length)
				if want := combin.Binomial(length, ones); len(seqs) != want {
					t.Fatalf("got %d sequences, want %d", len(seqs), want)
				}

				seen := make(map[string]bool, len(seqs))
				for _, s := range seqs {
					if len(s) != length {
						t.Fatalf("sequence %v has length %d", s, len(s))
					}
					n := 0
					for _, v := range s {
						n += v
					}
					if n != ones {
						t.Errorf("sequence %v has %d ones", s, n)
					}
					key := fmt.Sprint(s)
					if seen[key] {
						t.Errorf("duplicate sequence %v", s)
					}
					seen[key] = true
				}
			})
		}
	}
}

func TestBinaryBaseCases(t *testing.T) {
	tests := []struct {
		ones, length int
		want         [][]int
	}{
		{0, 5, [][]int{{0, 0, 0, 0, 0}}},
		{5, 5, [][]int{{1, 1, 1, 1, 1}}},
		{1, 3, [][]int{{0, 0, 1}, {0, 1, 0}, {1, 0, 0}}},
	}

	for _, tt := range tests {
		if got := Binary(tt.ones, tt.length); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Binary(%d, %d) = %v, want %v", tt.ones, tt.length, got, tt.want)
		}
	}
}

func TestBinaryPanics(t *testing.T) {
	tests := []struct {
		name         string
		ones, length int
	}{
		{"too many ones", 3, 2},
		{"negative ones", -1, 2},
		{"negative length", 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			Binary(tt.ones, tt.length)
		})
	}
}

func TestMasks(t *testing.T) {
	got := Masks(1, 2)
	want := [][]bool{{false, true}, {true, false}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Masks(1, 2) = %v, want %v", got, want)
	}
}
