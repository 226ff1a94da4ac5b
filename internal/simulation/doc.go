// Package simulation runs batches of independent snowball-sampling runs
// over one corpus and summarizes how far and how fast discovery spreads.
//
// Every run gets its own discovery state and its own random stream derived
// from the scenario's base seed, so a batch is reproducible regardless of
// how many runs execute in parallel. Runs use the real discovery Engine;
// nothing is mocked.
//
// Usage:
//
//	r := simulation.NewRunner(c, logger)
//	res, err := r.Run(ctx, simulation.Scenario{
//	    Name:     "climate",
//	    Seeds:    []string{"climate change"},
//	    Runs:     200,
//	    BaseSeed: 42,
//	})
//	fmt.Println(res.Rounds.Mean, res.Coverage.Max)
package simulation
