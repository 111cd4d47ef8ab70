package survival

import (
	"context"
	"os"
	"testing"

	"github.com/aouyang1/go-survival/predictive"
	"github.com/goccy/go-json"
	"github.com/pkg/profile"
)

var benchSamples *predictive.Samples

func BenchmarkFitToModel(b *testing.B) {
	ds := simulate(b, 500, 1)
	opt := testOptions()

	var a *Analysis
	var err error

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a, err = New(opt, nil)
		if err != nil {
			panic(err)
		}
		if err := a.Fit(context.Background(), ds); err != nil {
			panic(err)
		}
	}

	m, err := a.Model()
	if err != nil {
		panic(err)
	}
	bytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile("benchmark_model.json", bytes, 0o644); err != nil {
		panic(err)
	}
}

func BenchmarkPosteriorPredictive(b *testing.B) {
	ds := simulate(b, 500, 1)
	a, err := New(testOptions(), nil)
	if err != nil {
		panic(err)
	}
	if err := a.Fit(context.Background(), ds); err != nil {
		panic(err)
	}

	defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchSamples, err = a.PosteriorPredictive(context.Background(), predictive.MethodTruncated)
		if err != nil {
			panic(err)
		}
	}
}
