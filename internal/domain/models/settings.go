package models

// StrategyVariant selects which automated-trading-strategy variant the
// backend runs.
type StrategyVariant string

const (
	StrategyTrend    StrategyVariant = "trend"
	StrategyBreakout StrategyVariant = "breakout"
	StrategyHybrid   StrategyVariant = "hybrid"
)

// Settings is the backend's flat runtime configuration record. It is the
// only resource with a write path in addition to read/poll.
type Settings struct {
	Leverage              float64         `json:"leverage"`
	RiskPerTrade          float64         `json:"risk_per_trade"`
	RiskRewardRatio       float64         `json:"risk_reward_ratio"`
	MaxOpenTrades         int             `json:"max_open_trades"`
	MaxConsecutiveLosses  int             `json:"max_consecutive_losses"`
	CooldownHours         float64         `json:"cooldown_hours"`
	UseATRStop            bool            `json:"use_atr_stop"`
	FixedStopPips         float64         `json:"fixed_stop_pips"`
	ATRMultiplier         float64         `json:"atr_multiplier"`
	TrailingStopPips      float64         `json:"trailing_stop_pips"`
	PartialClosePercent   float64         `json:"partial_close_percent"`
	PreNewsMinutes        int             `json:"pre_news_minutes"`
	PostNewsMinutes       int             `json:"post_news_minutes"`
	AvoidOpenMinutes      int             `json:"avoid_open_minutes"`
	EntryTimeframe        string          `json:"entry_timeframe"`
	ConfirmationTimeframe string          `json:"confirmation_timeframe"`
	AllowedPairs          []string        `json:"allowed_pairs"`
	RSIPeriod             int             `json:"rsi_period"`
	RSIOversold           float64         `json:"rsi_oversold"`
	RSIOverbought         float64         `json:"rsi_overbought"`
	CorrelationThreshold  float64         `json:"correlation_threshold"`
	Strategy              StrategyVariant `json:"ats_strategy"`
	PaperTrading          bool            `json:"paper_trading"`
}

// SettingsUpdate is a partial settings write. Nil fields are left
// untouched by the backend.
type SettingsUpdate struct {
	Leverage             *float64         `json:"leverage,omitempty"`
	RiskPerTrade         *float64         `json:"risk_per_trade,omitempty" validate:"omitempty,gt=0,lte=10"`
	RiskRewardRatio      *float64         `json:"risk_reward_ratio,omitempty" validate:"omitempty,gt=0"`
	MaxOpenTrades        *int             `json:"max_open_trades,omitempty" validate:"omitempty,gte=1"`
	MaxConsecutiveLosses *int             `json:"max_consecutive_losses,omitempty" validate:"omitempty,gte=1"`
	CooldownHours        *float64         `json:"cooldown_hours,omitempty"`
	UseATRStop           *bool            `json:"use_atr_stop,omitempty"`
	FixedStopPips        *float64         `json:"fixed_stop_pips,omitempty"`
	ATRMultiplier        *float64         `json:"atr_multiplier,omitempty" validate:"omitempty,gt=0"`
	TrailingStopPips     *float64         `json:"trailing_stop_pips,omitempty"`
	PartialClosePercent  *float64         `json:"partial_close_percent,omitempty"`
	PreNewsMinutes       *int             `json:"pre_news_minutes,omitempty"`
	PostNewsMinutes      *int             `json:"post_news_minutes,omitempty"`
	AvoidOpenMinutes     *int             `json:"avoid_open_minutes,omitempty"`
	EntryTimeframe       *string          `json:"entry_timeframe,omitempty"`
	ConfirmationTF       *string          `json:"confirmation_timeframe,omitempty"`
	AllowedPairs         []string         `json:"allowed_pairs,omitempty"`
	Strategy             *StrategyVariant `json:"ats_strategy,omitempty" validate:"omitempty,oneof=trend breakout hybrid"`
	PaperTrading         *bool            `json:"paper_trading,omitempty"`
}

// SettingsUpdateResult echoes the fields the backend actually changed.
type SettingsUpdateResult struct {
	Updated map[string]any `json:"updated"`
}
