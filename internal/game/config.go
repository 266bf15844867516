package game

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GameConfig holds configurable parameters for a game session.
type GameConfig struct {
	TickRate          int `yaml:"tick_rate" json:"tick_rate"` // Ticks per second
	MaxPlayers        int `yaml:"max_players" json:"max_players"`
	PointsToWin       int `yaml:"points_to_win" json:"points_to_win"`
	RoundEndDelay     int `yaml:"round_end_delay" json:"round_end_delay"`         // Ticks between win condition and round result
	RoundRestartDelay int `yaml:"round_restart_delay" json:"round_restart_delay"` // Ticks between rounds

	Level   LevelConfig   `yaml:"level" json:"level"`
	Bomb    BombConfig    `yaml:"bomb" json:"bomb"`
	Player  PlayerConfig  `yaml:"player" json:"player"`
	Shrink  ShrinkConfig  `yaml:"shrink" json:"shrink"`
	Scoring ScoringConfig `yaml:"scoring" json:"scoring"`
	AI      AIConfig      `yaml:"ai" json:"ai"`
}

// LevelConfig controls procedural level generation.
type LevelConfig struct {
	Width           int `yaml:"width" json:"width"`
	Height          int `yaml:"height" json:"height"`
	BrickPercent    int `yaml:"brick_percent" json:"brick_percent"`
	ConcretePercent int `yaml:"concrete_percent" json:"concrete_percent"`
	ItemDropPercent int `yaml:"item_drop_percent" json:"item_drop_percent"` // Chance a burnt brick leaves an item
	Gateways        int `yaml:"gateways" json:"gateways"`
	StartTrials     int `yaml:"start_trials" json:"start_trials"`
}

// BombConfig holds the bomb and fire rules.
type BombConfig struct {
	DetonationIterations     int  `yaml:"detonation_iterations" json:"detonation_iterations"`
	ExplodingTimeMultiplier  int  `yaml:"exploding_time_multiplier" json:"exploding_time_multiplier"` // Percent
	FireIterations           int  `yaml:"fire_iterations" json:"fire_iterations"`
	RollingSpeed             int  `yaml:"rolling_speed" json:"rolling_speed"` // Sub-cell units per tick
	FlyingSpeed              int  `yaml:"flying_speed" json:"flying_speed"`
	CrazyPercent             int  `yaml:"crazy_percent" json:"crazy_percent"`
	FlyingBombsDieOffGrid    bool `yaml:"flying_bombs_die_off_grid" json:"flying_bombs_die_off_grid"`
	KickedBombsDetonateOnHit bool `yaml:"kicked_bombs_detonate_on_hit" json:"kicked_bombs_detonate_on_hit"`
	ThrowDistance            int  `yaml:"throw_distance" json:"throw_distance"`
	PunchDistance            int  `yaml:"punch_distance" json:"punch_distance"`
}

// PlayerConfig holds player movement, inventory and damage rules.
type PlayerConfig struct {
	MaxVitality           int  `yaml:"max_vitality" json:"max_vitality"`
	BaseSpeed             int  `yaml:"base_speed" json:"base_speed"`
	SkateBonus            int  `yaml:"skate_bonus" json:"skate_bonus"`
	MaxSpeed              int  `yaml:"max_speed" json:"max_speed"`
	MinSpeed              int  `yaml:"min_speed" json:"min_speed"`
	CorrectionSensitivity int  `yaml:"correction_sensitivity" json:"correction_sensitivity"`
	InitialBombs          int  `yaml:"initial_bombs" json:"initial_bombs"`
	InitialRange          int  `yaml:"initial_range" json:"initial_range"`
	MaxRange              int  `yaml:"max_range" json:"max_range"`
	DiseaseDuration       int  `yaml:"disease_duration" json:"disease_duration"`
	BombFireDamagePercent int  `yaml:"bomb_fire_damage_percent" json:"bomb_fire_damage_percent"`
	ItemsRelocateOnBurn   bool `yaml:"items_relocate_on_burn" json:"items_relocate_on_burn"`
}

// ShrinkConfig selects and tunes the arena pressure strategies.
type ShrinkConfig struct {
	Weights               map[string]int `yaml:"weights" json:"weights"`
	StartAfterTicks       int            `yaml:"start_after_ticks" json:"start_after_ticks"`
	WarningTicks          int            `yaml:"warning_ticks" json:"warning_ticks"`
	SpiralFrequency       int            `yaml:"spiral_frequency" json:"spiral_frequency"`
	FallingBombsFrequency int            `yaml:"falling_bombs_frequency" json:"falling_bombs_frequency"`
	DeathLinesFrequency   int            `yaml:"death_lines_frequency" json:"death_lines_frequency"`
	DiseaseFrequency      int            `yaml:"disease_frequency" json:"disease_frequency"`
	CountdownTicks        int            `yaml:"countdown_ticks" json:"countdown_ticks"`
}

// Kill credit policies.
const (
	CreditTriggerer = "triggerer"
	CreditOwner     = "owner"
)

// ScoringConfig decides who gets credit for kills and how points are awarded.
type ScoringConfig struct {
	CreditTo       string `yaml:"credit_to" json:"credit_to"`
	WinPoints      int    `yaml:"win_points" json:"win_points"`
	KillPoints     int    `yaml:"kill_points" json:"kill_points"`
	SelfKillPoints int    `yaml:"self_kill_points" json:"self_kill_points"`
	TeamKillPoints int    `yaml:"team_kill_points" json:"team_kill_points"`
}

// AIConfig weights the cost grid of computer players.
type AIConfig struct {
	FireCost  int `yaml:"fire_cost" json:"fire_cost"`
	BlastCost int `yaml:"blast_cost" json:"blast_cost"`
}

// DefaultConfig returns a sensible default game configuration.
func DefaultConfig() GameConfig {
	return GameConfig{
		TickRate:          25,
		MaxPlayers:        4,
		PointsToWin:       3,
		RoundEndDelay:     40,
		RoundRestartDelay: 75,
		Level: LevelConfig{
			Width:           17,
			Height:          13,
			BrickPercent:    60,
			ConcretePercent: 4,
			ItemDropPercent: 30,
			StartTrials:     200,
		},
		Bomb: BombConfig{
			DetonationIterations:    60,
			ExplodingTimeMultiplier: 100,
			FireIterations:          15,
			RollingSpeed:            20,
			FlyingSpeed:             25,
			ThrowDistance:           3,
			PunchDistance:           3,
		},
		Player: PlayerConfig{
			MaxVitality:           100,
			BaseSpeed:             8,
			SkateBonus:            2,
			MaxSpeed:              16,
			MinSpeed:              3,
			CorrectionSensitivity: 30,
			InitialBombs:          1,
			InitialRange:          2,
			MaxRange:              10,
			DiseaseDuration:       250,
			BombFireDamagePercent: 100,
		},
		Shrink: ShrinkConfig{
			Weights: map[string]int{
				ShrinkSpiral.String():         4,
				ShrinkFallingBombs.String():   2,
				ShrinkDeathLines.String():     2,
				ShrinkDiseaseSeeding.String(): 1,
				ShrinkMassKill.String():       1,
				ShrinkSingleSurvivor.String(): 1,
			},
			StartAfterTicks:       1500,
			WarningTicks:          25,
			SpiralFrequency:       6,
			FallingBombsFrequency: 40,
			DeathLinesFrequency:   8,
			DiseaseFrequency:      100,
			CountdownTicks:        250,
		},
		Scoring: ScoringConfig{
			CreditTo:  CreditTriggerer,
			WinPoints: 1,
		},
		AI: AIConfig{
			FireCost:  1000,
			BlastCost: 40,
		},
	}
}

// LoadConfig reads a YAML file over the defaults. Unknown keys are rejected.
func LoadConfig(path string) (GameConfig, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the simulation cannot run with.
func (c GameConfig) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	percent := func(v int) bool { return v >= 0 && v <= 100 }

	check(c.TickRate > 0, "tick_rate must be positive")
	check(c.MaxPlayers > 0, "max_players must be positive")
	check(c.PointsToWin > 0, "points_to_win must be positive")
	check(c.Level.Width >= 5 && c.Level.Height >= 5, "level must be at least 5x5, got %dx%d", c.Level.Width, c.Level.Height)
	check(c.Level.Width <= MaxLevelSide && c.Level.Height <= MaxLevelSide, "level must be at most %dx%d, got %dx%d", MaxLevelSide, MaxLevelSide, c.Level.Width, c.Level.Height)
	check(percent(c.Level.BrickPercent) && percent(c.Level.ConcretePercent) && c.Level.BrickPercent+c.Level.ConcretePercent <= 100,
		"brick_percent and concrete_percent must add up to at most 100")
	check(percent(c.Level.ItemDropPercent), "item_drop_percent must be within 0..100")
	check(c.Level.Gateways >= 0, "gateways must not be negative")
	check(c.Bomb.DetonationIterations > 0, "detonation_iterations must be positive")
	check(c.Bomb.ExplodingTimeMultiplier > 0, "exploding_time_multiplier must be positive")
	check(c.Bomb.FireIterations > 0, "fire_iterations must be positive")
	check(c.Bomb.RollingSpeed > 0 && c.Bomb.RollingSpeed <= CellUnits, "rolling_speed must be within 1..%d", CellUnits)
	check(c.Bomb.FlyingSpeed > 0 && c.Bomb.FlyingSpeed <= CellUnits, "flying_speed must be within 1..%d", CellUnits)
	check(percent(c.Bomb.CrazyPercent), "crazy_percent must be within 0..100")
	check(c.Bomb.ThrowDistance > 0 && c.Bomb.PunchDistance > 0, "throw and punch distances must be positive")
	check(c.Player.MaxVitality > 0, "max_vitality must be positive")
	check(c.Player.MinSpeed > 0 && c.Player.MinSpeed <= c.Player.BaseSpeed && c.Player.BaseSpeed <= c.Player.MaxSpeed,
		"speeds must satisfy 0 < min_speed <= base_speed <= max_speed")
	check(c.Player.MaxSpeed < cellHalf, "max_speed must be below %d", cellHalf)
	check(c.Player.CorrectionSensitivity >= 0 && c.Player.CorrectionSensitivity <= cellHalf,
		"correction_sensitivity must be within 0..%d", cellHalf)
	check(c.Player.InitialBombs > 0 && c.Player.InitialRange > 0 && c.Player.MaxRange >= c.Player.InitialRange,
		"initial bombs/range must be positive and max_range >= initial_range")
	check(c.Player.BombFireDamagePercent >= 0, "bomb_fire_damage_percent must not be negative")
	check(c.Scoring.CreditTo == CreditOwner || c.Scoring.CreditTo == CreditTriggerer,
		"credit_to must be %q or %q", CreditOwner, CreditTriggerer)
	for name, weight := range c.Shrink.Weights {
		_, err := ParseShrinkKind(name)
		check(err == nil, "shrink weight: %v", err)
		check(weight >= 0, "shrink weight %s must not be negative", name)
	}
	check(c.Shrink.WarningTicks >= 0 && c.Shrink.StartAfterTicks >= 0, "shrink timings must not be negative")
	return errors.Join(errs...)
}
