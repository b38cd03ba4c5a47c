package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Game    GameConfig    `mapstructure:"game"`
	Map     MapConfig     `mapstructure:"map"`
	Runtime RuntimeConfig `mapstructure:"runtime"`
	Server  ServerConfig  `mapstructure:"server"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Log     LogConfig     `mapstructure:"log"`
}

// GameConfig holds the simulation rules. It is copied into the runtime's init
// message and treated as read-only by the engine.
type GameConfig struct {
	SpawnPhaseTurns     int `mapstructure:"spawn_phase_turns" msgpack:"spawn_phase_turns"`
	SpawnRadius         int `mapstructure:"spawn_radius" msgpack:"spawn_radius"`
	WinThresholdPercent int `mapstructure:"win_threshold_percent" msgpack:"win_threshold_percent"`
	WinCheckInterval    int `mapstructure:"win_check_interval" msgpack:"win_check_interval"`
	NumBots             int `mapstructure:"num_bots" msgpack:"num_bots"`

	Alliance   AllianceConfig   `mapstructure:"alliance" msgpack:"alliance"`
	Population PopulationConfig `mapstructure:"population" msgpack:"population"`
	Attack     AttackConfig     `mapstructure:"attack" msgpack:"attack"`
	Units      UnitsConfig      `mapstructure:"units" msgpack:"units"`
	Nukes      NukeConfig       `mapstructure:"nukes" msgpack:"nukes"`
	Naval      NavalConfig      `mapstructure:"naval" msgpack:"naval"`
}

// AllianceConfig holds alliance timing settings
type AllianceConfig struct {
	DurationTicks        int `mapstructure:"duration_ticks" msgpack:"duration_ticks"`
	RequestCooldownTicks int `mapstructure:"request_cooldown_ticks" msgpack:"request_cooldown_ticks"`
	TargetDurationTicks  int `mapstructure:"target_duration_ticks" msgpack:"target_duration_ticks"`
}

// PopulationConfig holds growth and income settings
type PopulationConfig struct {
	StartTroops         int `mapstructure:"start_troops" msgpack:"start_troops"`
	StartWorkers        int `mapstructure:"start_workers" msgpack:"start_workers"`
	BotStartTroops      int `mapstructure:"bot_start_troops" msgpack:"bot_start_troops"`
	BaseMax             int `mapstructure:"base_max" msgpack:"base_max"`
	PerTile             int `mapstructure:"per_tile" msgpack:"per_tile"`
	PerCity             int `mapstructure:"per_city" msgpack:"per_city"`
	BaseGrowth          int `mapstructure:"base_growth" msgpack:"base_growth"`
	GrowthDivisor       int `mapstructure:"growth_divisor" msgpack:"growth_divisor"`
	DefaultTroopRatio   int `mapstructure:"default_troop_ratio" msgpack:"default_troop_ratio"`
	GoldPerWorkerPermil int `mapstructure:"gold_per_worker_permil" msgpack:"gold_per_worker_permil"`
	FactoryGold         int `mapstructure:"factory_gold" msgpack:"factory_gold"`
}

// AttackConfig holds the integer attack cost function parameters
type AttackConfig struct {
	TerraNulliusCost    int `mapstructure:"terra_nullius_cost" msgpack:"terra_nullius_cost"`
	HighlandPercent     int `mapstructure:"highland_percent" msgpack:"highland_percent"`
	MountainPercent     int `mapstructure:"mountain_percent" msgpack:"mountain_percent"`
	DefenseBonusPercent int `mapstructure:"defense_bonus_percent" msgpack:"defense_bonus_percent"`
	FalloutPercent      int `mapstructure:"fallout_percent" msgpack:"fallout_percent"`
	TraitorPercent      int `mapstructure:"traitor_percent" msgpack:"traitor_percent"`
	MinTilesPerTick     int `mapstructure:"min_tiles_per_tick" msgpack:"min_tiles_per_tick"`
	TroopsPerExtraTile  int `mapstructure:"troops_per_extra_tile" msgpack:"troops_per_extra_tile"`
	MaxTilesPerTick     int `mapstructure:"max_tiles_per_tick" msgpack:"max_tiles_per_tick"`
}

// UnitSpec holds price and build settings of one unit type
type UnitSpec struct {
	Cost              int `mapstructure:"cost" msgpack:"cost"`
	ConstructionTicks int `mapstructure:"construction_ticks" msgpack:"construction_ticks"`
	MaxHealth         int `mapstructure:"max_health" msgpack:"max_health"`
}

// UnitsConfig holds per-unit settings
type UnitsConfig struct {
	City              UnitSpec `mapstructure:"city" msgpack:"city"`
	Port              UnitSpec `mapstructure:"port" msgpack:"port"`
	MissileSilo       UnitSpec `mapstructure:"missile_silo" msgpack:"missile_silo"`
	DefensePost       UnitSpec `mapstructure:"defense_post" msgpack:"defense_post"`
	SAMLauncher       UnitSpec `mapstructure:"sam_launcher" msgpack:"sam_launcher"`
	Factory           UnitSpec `mapstructure:"factory" msgpack:"factory"`
	Warship           UnitSpec `mapstructure:"warship" msgpack:"warship"`
	TransportShip     UnitSpec `mapstructure:"transport_ship" msgpack:"transport_ship"`
	AtomBomb          UnitSpec `mapstructure:"atom_bomb" msgpack:"atom_bomb"`
	HydrogenBomb      UnitSpec `mapstructure:"hydrogen_bomb" msgpack:"hydrogen_bomb"`
	MIRV              UnitSpec `mapstructure:"mirv" msgpack:"mirv"`
	DefensePostRadius int      `mapstructure:"defense_post_radius" msgpack:"defense_post_radius"`
	MinStructureGap   int      `mapstructure:"min_structure_gap" msgpack:"min_structure_gap"`
}

// NukeConfig holds ordnance settings
type NukeConfig struct {
	Speed            int `mapstructure:"speed" msgpack:"speed"`
	AtomInnerRadius  int `mapstructure:"atom_inner_radius" msgpack:"atom_inner_radius"`
	AtomOuterRadius  int `mapstructure:"atom_outer_radius" msgpack:"atom_outer_radius"`
	HydroInnerRadius int `mapstructure:"hydro_inner_radius" msgpack:"hydro_inner_radius"`
	HydroOuterRadius int `mapstructure:"hydro_outer_radius" msgpack:"hydro_outer_radius"`
	MIRVWarheads     int `mapstructure:"mirv_warheads" msgpack:"mirv_warheads"`
	MIRVSpread       int `mapstructure:"mirv_spread" msgpack:"mirv_spread"`
	SiloCooldown     int `mapstructure:"silo_cooldown" msgpack:"silo_cooldown"`
	SAMRange         int `mapstructure:"sam_range" msgpack:"sam_range"`
	SAMHitPercent    int `mapstructure:"sam_hit_percent" msgpack:"sam_hit_percent"`
	SAMCooldown      int `mapstructure:"sam_cooldown" msgpack:"sam_cooldown"`
}

// NavalConfig holds ship settings
type NavalConfig struct {
	BoatSpeed          int `mapstructure:"boat_speed" msgpack:"boat_speed"`
	MaxBoatsPerPlayer  int `mapstructure:"max_boats_per_player" msgpack:"max_boats_per_player"`
	WarshipRange       int `mapstructure:"warship_range" msgpack:"warship_range"`
	WarshipPatrolRange int `mapstructure:"warship_patrol_range" msgpack:"warship_patrol_range"`
	ShellDamage        int `mapstructure:"shell_damage" msgpack:"shell_damage"`
	ShellSpeed         int `mapstructure:"shell_speed" msgpack:"shell_speed"`
	WarshipCooldown    int `mapstructure:"warship_cooldown" msgpack:"warship_cooldown"`
	TradeShipOdds      int `mapstructure:"trade_ship_odds" msgpack:"trade_ship_odds"`
	TradeGoldPerTile   int `mapstructure:"trade_gold_per_tile" msgpack:"trade_gold_per_tile"`
	PathSearchLimit    int `mapstructure:"path_search_limit" msgpack:"path_search_limit"`
}

// MapConfig holds terrain generation settings
type MapConfig struct {
	Width           int   `mapstructure:"width" msgpack:"width"`
	Height          int   `mapstructure:"height" msgpack:"height"`
	Seed            int64 `mapstructure:"seed" msgpack:"seed"`
	OceanBorder     int   `mapstructure:"ocean_border" msgpack:"ocean_border"`
	Lakes           int   `mapstructure:"lakes" msgpack:"lakes"`
	LakeRadius      int   `mapstructure:"lake_radius" msgpack:"lake_radius"`
	HighlandPercent int   `mapstructure:"highland_percent" msgpack:"highland_percent"`
	MountainPercent int   `mapstructure:"mountain_percent" msgpack:"mountain_percent"`
}

// RuntimeConfig holds simulation worker settings
type RuntimeConfig struct {
	InboxCapacity    int `mapstructure:"inbox_capacity"`
	OutboxCapacity   int `mapstructure:"outbox_capacity"`
	NameViewInterval int `mapstructure:"name_view_interval"`
	// EventDetails attaches the full JSON of lifecycle events to their log lines.
	EventDetails bool `mapstructure:"event_details"`
}

// ServerConfig holds gRPC simulation host configuration
type ServerConfig struct {
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	MaxGames              int    `mapstructure:"max_games"`
	IdleTimeoutSeconds    int    `mapstructure:"idle_timeout_seconds"`
	EnableReflection      bool   `mapstructure:"enable_reflection"`
	GracefulShutdownDelay int    `mapstructure:"graceful_shutdown_delay"`
	TurnRateLimit         int    `mapstructure:"turn_rate_limit"`
	TurnBurst             int    `mapstructure:"turn_burst"`
	HashWindow            int    `mapstructure:"hash_window"`
}

// ArchiveConfig holds replay archive settings
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	// Game defaults
	v.SetDefault("game.spawn_phase_turns", 100)
	v.SetDefault("game.spawn_radius", 4)
	v.SetDefault("game.win_threshold_percent", 80)
	v.SetDefault("game.win_check_interval", 10)
	v.SetDefault("game.num_bots", 20)

	v.SetDefault("game.alliance.duration_ticks", 3000)
	v.SetDefault("game.alliance.request_cooldown_ticks", 300)
	v.SetDefault("game.alliance.target_duration_ticks", 100)

	v.SetDefault("game.population.start_troops", 2500)
	v.SetDefault("game.population.start_workers", 2500)
	v.SetDefault("game.population.bot_start_troops", 1000)
	v.SetDefault("game.population.base_max", 10000)
	v.SetDefault("game.population.per_tile", 100)
	v.SetDefault("game.population.per_city", 25000)
	v.SetDefault("game.population.base_growth", 10)
	v.SetDefault("game.population.growth_divisor", 60)
	v.SetDefault("game.population.default_troop_ratio", 60)
	v.SetDefault("game.population.gold_per_worker_permil", 10)
	v.SetDefault("game.population.factory_gold", 50)

	v.SetDefault("game.attack.terra_nullius_cost", 1)
	v.SetDefault("game.attack.highland_percent", 150)
	v.SetDefault("game.attack.mountain_percent", 200)
	v.SetDefault("game.attack.defense_bonus_percent", 200)
	v.SetDefault("game.attack.fallout_percent", 50)
	v.SetDefault("game.attack.traitor_percent", 80)
	v.SetDefault("game.attack.min_tiles_per_tick", 2)
	v.SetDefault("game.attack.troops_per_extra_tile", 50)
	v.SetDefault("game.attack.max_tiles_per_tick", 40)

	setUnitDefault(v, "city", 125000, 20, 1)
	setUnitDefault(v, "port", 125000, 20, 1)
	setUnitDefault(v, "missile_silo", 1000000, 40, 1)
	setUnitDefault(v, "defense_post", 50000, 10, 1)
	setUnitDefault(v, "sam_launcher", 1500000, 30, 1)
	setUnitDefault(v, "factory", 125000, 20, 1)
	setUnitDefault(v, "warship", 250000, 0, 1000)
	setUnitDefault(v, "transport_ship", 0, 0, 1)
	setUnitDefault(v, "atom_bomb", 750000, 0, 1)
	setUnitDefault(v, "hydrogen_bomb", 5000000, 0, 1)
	setUnitDefault(v, "mirv", 25000000, 0, 1)
	v.SetDefault("game.units.defense_post_radius", 30)
	v.SetDefault("game.units.min_structure_gap", 2)

	v.SetDefault("game.nukes.speed", 4)
	v.SetDefault("game.nukes.atom_inner_radius", 12)
	v.SetDefault("game.nukes.atom_outer_radius", 30)
	v.SetDefault("game.nukes.hydro_inner_radius", 80)
	v.SetDefault("game.nukes.hydro_outer_radius", 100)
	v.SetDefault("game.nukes.mirv_warheads", 35)
	v.SetDefault("game.nukes.mirv_spread", 60)
	v.SetDefault("game.nukes.silo_cooldown", 75)
	v.SetDefault("game.nukes.sam_range", 70)
	v.SetDefault("game.nukes.sam_hit_percent", 75)
	v.SetDefault("game.nukes.sam_cooldown", 75)

	v.SetDefault("game.naval.boat_speed", 2)
	v.SetDefault("game.naval.max_boats_per_player", 3)
	v.SetDefault("game.naval.warship_range", 40)
	v.SetDefault("game.naval.warship_patrol_range", 100)
	v.SetDefault("game.naval.shell_damage", 250)
	v.SetDefault("game.naval.shell_speed", 6)
	v.SetDefault("game.naval.warship_cooldown", 20)
	v.SetDefault("game.naval.trade_ship_odds", 200)
	v.SetDefault("game.naval.trade_gold_per_tile", 100)
	v.SetDefault("game.naval.path_search_limit", 200000)

	// Map defaults
	v.SetDefault("map.width", 200)
	v.SetDefault("map.height", 120)
	v.SetDefault("map.seed", 1)
	v.SetDefault("map.ocean_border", 6)
	v.SetDefault("map.lakes", 4)
	v.SetDefault("map.lake_radius", 6)
	v.SetDefault("map.highland_percent", 20)
	v.SetDefault("map.mountain_percent", 5)

	// Runtime defaults
	v.SetDefault("runtime.inbox_capacity", 256)
	v.SetDefault("runtime.outbox_capacity", 256)
	v.SetDefault("runtime.name_view_interval", 10)
	v.SetDefault("runtime.event_details", false)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 50061)
	v.SetDefault("server.max_games", 100)
	v.SetDefault("server.idle_timeout_seconds", 600)
	v.SetDefault("server.enable_reflection", true)
	v.SetDefault("server.graceful_shutdown_delay", 5)
	v.SetDefault("server.turn_rate_limit", 20)
	v.SetDefault("server.turn_burst", 40)
	v.SetDefault("server.hash_window", 600)

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.path", "~/.frontsim/archive.db")

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func setUnitDefault(v *viper.Viper, name string, cost, constructionTicks, maxHealth int) {
	v.SetDefault("game.units."+name+".cost", cost)
	v.SetDefault("game.units."+name+".construction_ticks", constructionTicks)
	v.SetDefault("game.units."+name+".max_health", maxHealth)
}

// Default returns a configuration built from the defaults alone.
func Default() *Config {
	dv := viper.New()
	setViperDefaults(dv)
	c := &Config{}
	if err := dv.Unmarshal(c); err != nil {
		panic("failed to decode default config: " + err.Error())
	}
	return c
}

// DefaultGameConfig returns the default simulation rules.
func DefaultGameConfig() GameConfig {
	return Default().Game
}

// DefaultMapConfig returns the default terrain settings.
func DefaultMapConfig() MapConfig {
	return Default().Map
}

// Init initializes the configuration
func Init(configPath string) error {
	v = viper.New()

	// Set defaults before loading any config
	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("frontsim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/frontsim")
	}

	v.SetEnvPrefix("FRONTSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath == "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// A missing file falls back to defaults
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// Set allows runtime config updates
func Set(key string, value interface{}) {
	v.Set(key, value)
	_ = v.Unmarshal(cfg)
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of the config file. Only server-side
// settings should be read again after a change; running simulations keep the
// GameConfig they were initialized with.
func WatchConfig(onChange func(*Config)) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		next := &Config{}
		if err := v.Unmarshal(next); err != nil {
			return
		}
		if err := Validate(next); err != nil {
			return
		}
		cfg = next
		if onChange != nil {
			onChange(next)
		}
	})
}

// Validate validates the configuration values
func Validate(c *Config) error {
	if err := ValidateGame(c.Game); err != nil {
		return err
	}
	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		return fmt.Errorf("map dimensions must be positive")
	}
	if c.Map.Width > 1<<16 || c.Map.Height > 1<<16 {
		return fmt.Errorf("map dimensions must fit in 16 bits")
	}
	if c.Map.HighlandPercent < 0 || c.Map.MountainPercent < 0 || c.Map.HighlandPercent+c.Map.MountainPercent > 100 {
		return fmt.Errorf("map.highland_percent + map.mountain_percent must be between 0 and 100")
	}
	if c.Runtime.InboxCapacity <= 0 || c.Runtime.OutboxCapacity <= 0 {
		return fmt.Errorf("runtime queue capacities must be positive")
	}
	if c.Runtime.NameViewInterval <= 0 {
		return fmt.Errorf("runtime.name_view_interval must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.MaxGames <= 0 {
		return fmt.Errorf("server.max_games must be positive")
	}
	if c.Server.TurnRateLimit <= 0 || c.Server.TurnBurst <= 0 {
		return fmt.Errorf("server turn rate limits must be positive")
	}
	if c.Server.HashWindow <= 0 {
		return fmt.Errorf("server.hash_window must be positive")
	}
	if c.Archive.Enabled && c.Archive.Path == "" {
		return fmt.Errorf("archive.path is required when the archive is enabled")
	}
	return nil
}

// ValidateGame checks the simulation rules on their own; the runtime calls it
// on the config received in an init message.
func ValidateGame(g GameConfig) error {
	if g.SpawnPhaseTurns < 0 {
		return fmt.Errorf("game.spawn_phase_turns must be non-negative")
	}
	if g.SpawnRadius < 0 {
		return fmt.Errorf("game.spawn_radius must be non-negative")
	}
	if g.WinThresholdPercent <= 0 || g.WinThresholdPercent > 100 {
		return fmt.Errorf("game.win_threshold_percent must be between 1 and 100")
	}
	if g.WinCheckInterval <= 0 {
		return fmt.Errorf("game.win_check_interval must be positive")
	}
	if g.NumBots < 0 {
		return fmt.Errorf("game.num_bots must be non-negative")
	}
	if g.Population.DefaultTroopRatio < 0 || g.Population.DefaultTroopRatio > 100 {
		return fmt.Errorf("game.population.default_troop_ratio must be between 0 and 100")
	}
	if g.Population.GrowthDivisor <= 0 {
		return fmt.Errorf("game.population.growth_divisor must be positive")
	}
	if g.Attack.MinTilesPerTick <= 0 || g.Attack.MaxTilesPerTick < g.Attack.MinTilesPerTick {
		return fmt.Errorf("game.attack tiles per tick must satisfy 0 < min <= max")
	}
	if g.Attack.TroopsPerExtraTile <= 0 {
		return fmt.Errorf("game.attack.troops_per_extra_tile must be positive")
	}
	if g.Nukes.Speed <= 0 || g.Naval.BoatSpeed <= 0 || g.Naval.ShellSpeed <= 0 {
		return fmt.Errorf("unit speeds must be positive")
	}
	if g.Nukes.SAMHitPercent < 0 || g.Nukes.SAMHitPercent > 100 {
		return fmt.Errorf("game.nukes.sam_hit_percent must be between 0 and 100")
	}
	return nil
}

// Spec returns the settings for a unit type name as used in config keys.
func (u UnitsConfig) Spec(name string) (UnitSpec, bool) {
	switch name {
	case "City":
		return u.City, true
	case "Port":
		return u.Port, true
	case "MissileSilo":
		return u.MissileSilo, true
	case "DefensePost":
		return u.DefensePost, true
	case "SAMLauncher":
		return u.SAMLauncher, true
	case "Factory":
		return u.Factory, true
	case "Warship":
		return u.Warship, true
	case "TransportShip":
		return u.TransportShip, true
	case "AtomBomb":
		return u.AtomBomb, true
	case "HydrogenBomb":
		return u.HydrogenBomb, true
	case "MIRV":
		return u.MIRV, true
	}
	return UnitSpec{}, false
}
