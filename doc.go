// Package neat provides a Go implementation of the NeuroEvolution of Augmenting Topologies (NEAT) algorithm.
//
// NEAT is a genetic algorithm for the generation of evolving artificial neural networks.
// It alters both the weighting parameters and structures of networks, attempting to find
// a balance between the fitness of evolved solutions and their diversity.
//
// Genomes are directed acyclic graphs of node and edge genes. Edges are
// aligned across genomes by an innovation number derived from their
// endpoints, so independent genomes that grow the same connection agree on
// its identity without a global registry.
//
// Basic usage:
//
//	// Load configuration (INI, YAML or TOML)
//	config, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Create a new population
//	pop, err := neat.NewPopulation(config, neat.WithLogger(slog.Default()))
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	// Evaluate each genome through its compiled network
//	eval := func(genomes []*neat.Genome, config *neat.Config) error {
//		for _, g := range genomes {
//			net, err := nn.New(g, config)
//			if err != nil {
//				return err
//			}
//			out, err := net.Activate([]float64{0.5, 1.0})
//			if err != nil {
//				return err
//			}
//			g.Fitness = out[0]
//		}
//		return nil
//	}
//
//	// Run for the configured number of generations
//	best, err := pop.Run(eval)
//	if err != nil {
//		log.Fatalf("Error running evolution: %v", err)
//	}
//	fmt.Println(best)
package neat
