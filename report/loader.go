package report

import (
	"context"

	"github.com/sarchlab/chargersim/datarecording"
)

// LoadSamples reads every recorded iteration in order.
func LoadSamples(
	ctx context.Context,
	reader datarecording.DataReader,
) ([]Sample, error) {
	reader.MapTable(IterationTable, Sample{})

	results, _, err := reader.Query(ctx, IterationTable,
		datarecording.QueryParams{OrderBy: "Iteration"})
	if err != nil {
		return nil, err
	}

	samples := make([]Sample, 0, len(results))
	for _, r := range results {
		samples = append(samples, *r.(*Sample))
	}

	return samples, nil
}

// LoadOnsets reads the recorded overcharge onsets.
func LoadOnsets(
	ctx context.Context,
	reader datarecording.DataReader,
) ([]Onset, error) {
	reader.MapTable(OverchargeTable, Onset{})

	results, _, err := reader.Query(ctx, OverchargeTable,
		datarecording.QueryParams{OrderBy: "Iteration"})
	if err != nil {
		return nil, err
	}

	onsets := make([]Onset, 0, len(results))
	for _, r := range results {
		onsets = append(onsets, *r.(*Onset))
	}

	return onsets, nil
}
