package engine

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Config holds every construction-time option for an Engine, built with the
// functional-options pattern the teacher uses for its own
// NewEngine(repo, cache) constructor injection: collaborators and policy
// knobs are supplied once, never reached for internally (§10.3).
type Config struct {
	Symbol              string
	SelfTradePrevention bool
	MakerRate           decimal.Decimal
	TakerRate           decimal.Decimal
	Logger              zerolog.Logger
	Clock               func() time.Time
	FillIDBase          int64
}

// Option mutates a Config at construction time.
type Option func(*Config)

// WithSymbol sets the single symbol this engine instance matches.
func WithSymbol(symbol string) Option {
	return func(c *Config) { c.Symbol = symbol }
}

// WithSelfTradePrevention toggles self-trade prevention in the fill router.
func WithSelfTradePrevention(enabled bool) Option {
	return func(c *Config) { c.SelfTradePrevention = enabled }
}

// WithFeeSchedule sets the maker/taker fee rates, per §4.7. Each rate is a
// plain fraction multiplied into notional (0.0002 is 2 basis points).
func WithFeeSchedule(makerRate, takerRate decimal.Decimal) Option {
	return func(c *Config) {
		c.MakerRate = makerRate
		c.TakerRate = takerRate
	}
}

// WithLogger installs a component logger. Zero value is zerolog.Nop(),
// matching §10.1.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithClock overrides the engine's time source, for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Config) { c.Clock = clock }
}

// WithFillIDBase sets the starting value for the fill router's monotonic
// fill_id counter (§4.7's "implementation-defined base").
func WithFillIDBase(base int64) Option {
	return func(c *Config) { c.FillIDBase = base }
}

func defaultConfig() Config {
	return Config{
		Symbol:     "SYMBOL",
		MakerRate:  decimal.Zero,
		TakerRate:  decimal.Zero,
		Logger:     zerolog.Nop(),
		Clock:      time.Now,
		FillIDBase: 1,
	}
}
