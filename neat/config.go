package neat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Config stores the configuration parameters for the NEAT algorithm.
type Config struct {
	Neat         NeatConfig         `yaml:"neat" toml:"neat"`
	Genome       GenomeConfig       `yaml:"genome" toml:"genome"`
	SpeciesSet   SpeciesSetConfig   `yaml:"species_set" toml:"species_set"`
	Stagnation   StagnationConfig   `yaml:"stagnation" toml:"stagnation"`
	Reproduction ReproductionConfig `yaml:"reproduction" toml:"reproduction"`
}

// NeatConfig holds parameters specific to the NEAT algorithm itself.
type NeatConfig struct {
	PopulationSize   int   `ini:"population_size" yaml:"population_size" toml:"population_size"`
	NumOfGenerations int   `ini:"num_of_generations" yaml:"num_of_generations" toml:"num_of_generations"`
	Seed             int64 `ini:"seed" yaml:"seed" toml:"seed"` // Seed of the default random source

	// Early stopping. Off unless FitnessTermination is set.
	FitnessTermination bool    `ini:"fitness_termination" yaml:"fitness_termination" toml:"fitness_termination"`
	FitnessThreshold   float64 `ini:"fitness_threshold" yaml:"fitness_threshold" toml:"fitness_threshold"`
	ResetOnExtinction  bool    `ini:"reset_on_extinction" yaml:"reset_on_extinction" toml:"reset_on_extinction"`
}

// GenomeConfig holds parameters specific to the structure and mutation of genomes.
type GenomeConfig struct {
	NumInputNeurons    int    `ini:"num_input_neurons" yaml:"num_input_neurons" toml:"num_input_neurons"`
	NumOutputNeurons   int    `ini:"num_output_neurons" yaml:"num_output_neurons" toml:"num_output_neurons"`
	ActivationFunction string `ini:"activation_function" yaml:"activation_function" toml:"activation_function"` // e.g. "sigmoid", "tanh"

	AddNodeMutationRate       float64 `ini:"add_node_mutation_rate" yaml:"add_node_mutation_rate" toml:"add_node_mutation_rate"`
	AddConnectionMutationRate float64 `ini:"add_connection_mutation_rate" yaml:"add_connection_mutation_rate" toml:"add_connection_mutation_rate"`

	// ChangeConnectionMutationRate gates the whole weight/bias pass. Default 1.0.
	ChangeConnectionMutationRate float64 `ini:"change_connection_mutation_rate" yaml:"change_connection_mutation_rate" toml:"change_connection_mutation_rate"`
	ChangeWeightMutationRate     float64 `ini:"change_weight_mutation_rate" yaml:"change_weight_mutation_rate" toml:"change_weight_mutation_rate"`
	ReplaceWeightMutationRate    float64 `ini:"replace_weight_mutation_rate" yaml:"replace_weight_mutation_rate" toml:"replace_weight_mutation_rate"`
	ReenableConnectionRate       float64 `ini:"reenable_connection_rate" yaml:"reenable_connection_rate" toml:"reenable_connection_rate"`
	WeightMutatePower            float64 `ini:"weight_mutate_power" yaml:"weight_mutate_power" toml:"weight_mutate_power"` // Bound of a perturbation delta. Default 1.0.
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	SpeciesDifference float64 `ini:"species_difference" yaml:"species_difference" toml:"species_difference"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	SpeciesFitnessFunc string `ini:"species_fitness_func" yaml:"species_fitness_func" toml:"species_fitness_func"` // Default: "mean"
	MaxStagnation      int    `ini:"max_stagnation" yaml:"max_stagnation" toml:"max_stagnation"`
	SpeciesElitism     int    `ini:"species_elitism" yaml:"species_elitism" toml:"species_elitism"`
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	MinSpecieSize int     `ini:"min_specie_size" yaml:"min_specie_size" toml:"min_specie_size"`
	GenomesToSave float64 `ini:"genomes_to_save" yaml:"genomes_to_save" toml:"genomes_to_save"` // Survival fraction in (0, 1]
}

// configKey names one parameter by its section and key. The section is the
// yaml/toml table name; iniSections maps it to the INI section header.
type configKey struct {
	section string
	key     string
}

var iniSections = map[string]string{
	"neat":         "NEAT",
	"genome":       "DefaultGenome",
	"species_set":  "DefaultSpeciesSet",
	"stagnation":   "DefaultStagnation",
	"reproduction": "DefaultReproduction",
}

// requiredKeys must be present in every loaded configuration file.
var requiredKeys = []configKey{
	{"neat", "population_size"},
	{"neat", "num_of_generations"},
	{"genome", "num_input_neurons"},
	{"genome", "num_output_neurons"},
	{"genome", "activation_function"},
	{"genome", "add_node_mutation_rate"},
	{"genome", "add_connection_mutation_rate"},
	{"genome", "change_weight_mutation_rate"},
	{"genome", "replace_weight_mutation_rate"},
	{"genome", "reenable_connection_rate"},
	{"species_set", "species_difference"},
	{"stagnation", "species_elitism"},
	{"stagnation", "max_stagnation"},
	{"reproduction", "min_specie_size"},
	{"reproduction", "genomes_to_save"},
}

// DefaultConfig returns a valid configuration. Loaders start from it, so the
// optional parameters keep these values when a file does not set them.
func DefaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			PopulationSize:   50,
			NumOfGenerations: 100,
			Seed:             1,
		},
		Genome: GenomeConfig{
			NumInputNeurons:              2,
			NumOutputNeurons:             1,
			ActivationFunction:           "sigmoid",
			AddNodeMutationRate:          0.03,
			AddConnectionMutationRate:    0.05,
			ChangeConnectionMutationRate: 1.0,
			ChangeWeightMutationRate:     0.8,
			ReplaceWeightMutationRate:    0.1,
			ReenableConnectionRate:       0.25,
			WeightMutatePower:            1.0,
		},
		SpeciesSet: SpeciesSetConfig{
			SpeciesDifference: 3.0,
		},
		Stagnation: StagnationConfig{
			SpeciesFitnessFunc: "mean",
			MaxStagnation:      15,
			SpeciesElitism:     2,
		},
		Reproduction: ReproductionConfig{
			MinSpecieSize: 2,
			GenomesToSave: 0.2,
		},
	}
}

// LoadConfig loads configuration parameters from a file. The format is chosen
// by extension: .yaml/.yml and .toml are supported, anything else is read as INI.
func LoadConfig(filePath string) (*Config, error) {
	var (
		config *Config
		err    error
	)
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		config, err = loadYAML(filePath)
	case ".toml":
		config, err = loadTOML(filePath)
	default:
		config, err = loadINI(filePath)
	}
	if err != nil {
		return nil, err
	}

	config.Genome.ActivationFunction = cleanIniString(config.Genome.ActivationFunction)
	config.Stagnation.SpeciesFitnessFunc = cleanIniString(config.Stagnation.SpeciesFitnessFunc)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadINI(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	for _, rk := range requiredKeys {
		if !cfg.Section(iniSections[rk.section]).HasKey(rk.key) {
			return nil, fmt.Errorf("config error: missing required key '%s' in [%s]", rk.key, iniSections[rk.section])
		}
	}

	config := DefaultConfig()
	if err := cfg.Section(iniSections["neat"]).MapTo(&config.Neat); err != nil {
		return nil, fmt.Errorf("failed to map [%s] section: %w", iniSections["neat"], err)
	}
	if err := cfg.Section(iniSections["genome"]).MapTo(&config.Genome); err != nil {
		return nil, fmt.Errorf("failed to map [%s] section: %w", iniSections["genome"], err)
	}
	if err := cfg.Section(iniSections["species_set"]).MapTo(&config.SpeciesSet); err != nil {
		return nil, fmt.Errorf("failed to map [%s] section: %w", iniSections["species_set"], err)
	}
	if err := cfg.Section(iniSections["stagnation"]).MapTo(&config.Stagnation); err != nil {
		return nil, fmt.Errorf("failed to map [%s] section: %w", iniSections["stagnation"], err)
	}
	if err := cfg.Section(iniSections["reproduction"]).MapTo(&config.Reproduction); err != nil {
		return nil, fmt.Errorf("failed to map [%s] section: %w", iniSections["reproduction"], err)
	}
	return config, nil
}

func loadYAML(filePath string) (*Config, error) {
	data, err := readConfigFile(filePath)
	if err != nil {
		return nil, err
	}

	// Decode once loosely to check key presence; zero values are legal for
	// several required parameters, so the typed decode cannot tell.
	var raw map[string]map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yaml config '%s': %w", filePath, err)
	}
	for _, rk := range requiredKeys {
		if _, ok := raw[rk.section][rk.key]; !ok {
			return nil, fmt.Errorf("config error: missing required key '%s.%s'", rk.section, rk.key)
		}
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to decode yaml config '%s': %w", filePath, err)
	}
	return config, nil
}

func loadTOML(filePath string) (*Config, error) {
	config := DefaultConfig()
	md, err := toml.DecodeFile(filePath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode toml config '%s': %w", filePath, err)
	}
	for _, rk := range requiredKeys {
		if !md.IsDefined(rk.section, rk.key) {
			return nil, fmt.Errorf("config error: missing required key '%s.%s'", rk.section, rk.key)
		}
	}
	return config, nil
}

func readConfigFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filePath, err)
	}
	return data, nil
}

// Validate checks every parameter and fails on the first invalid one.
func (c *Config) Validate() error {
	if c.Neat.PopulationSize <= 0 {
		return fmt.Errorf("config error: population_size must be positive")
	}
	if c.Neat.NumOfGenerations <= 0 {
		return fmt.Errorf("config error: num_of_generations must be positive")
	}
	if c.Genome.NumInputNeurons <= 0 {
		return fmt.Errorf("config error: num_input_neurons must be positive")
	}
	if c.Genome.NumOutputNeurons <= 0 {
		return fmt.Errorf("config error: num_output_neurons must be positive")
	}
	if _, err := ParseActivation(c.Genome.ActivationFunction); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	probabilities := []struct {
		name  string
		value float64
	}{
		{"add_node_mutation_rate", c.Genome.AddNodeMutationRate},
		{"add_connection_mutation_rate", c.Genome.AddConnectionMutationRate},
		{"change_connection_mutation_rate", c.Genome.ChangeConnectionMutationRate},
		{"change_weight_mutation_rate", c.Genome.ChangeWeightMutationRate},
		{"replace_weight_mutation_rate", c.Genome.ReplaceWeightMutationRate},
		{"reenable_connection_rate", c.Genome.ReenableConnectionRate},
	}
	for _, p := range probabilities {
		if !(p.value >= 0 && p.value <= 1) {
			return fmt.Errorf("config error: %s must be between 0 and 1, got %v", p.name, p.value)
		}
	}
	if !(c.Genome.WeightMutatePower > 0) {
		return fmt.Errorf("config error: weight_mutate_power must be positive")
	}

	if !(c.SpeciesSet.SpeciesDifference > 0) {
		return fmt.Errorf("config error: species_difference must be positive")
	}
	if c.Stagnation.SpeciesElitism < 0 {
		return fmt.Errorf("config error: species_elitism cannot be negative")
	}
	if c.Stagnation.MaxStagnation < 0 {
		return fmt.Errorf("config error: max_stagnation cannot be negative")
	}
	if _, ok := StatFunctions[strings.ToLower(c.Stagnation.SpeciesFitnessFunc)]; !ok {
		return fmt.Errorf("config error: invalid species_fitness_func '%s'", c.Stagnation.SpeciesFitnessFunc)
	}
	if c.Reproduction.MinSpecieSize <= 0 {
		return fmt.Errorf("config error: min_specie_size must be positive")
	}
	if !(c.Reproduction.GenomesToSave > 0 && c.Reproduction.GenomesToSave <= 1) {
		return fmt.Errorf("config error: genomes_to_save must be in (0, 1], got %v", c.Reproduction.GenomesToSave)
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
