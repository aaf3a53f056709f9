package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"niftydash/internal/domain"
)

// Indicator is a selectable column attached to rows by the backend.
type Indicator struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// Group is a named set of indicators. An empty Timeframe means the group is
// universal.
type Group struct {
	Name       string           `yaml:"name"`
	Timeframe  domain.Timeframe `yaml:"timeframe"`
	Indicators []Indicator      `yaml:"indicators"`
}

// Catalogue is the ordered list of indicator groups offered to the user.
type Catalogue struct {
	Groups []Group `yaml:"groups"`
}

// Visible reports whether a group tagged tag is shown for the active
// timeframe. The features view reuses the hourly catalogue; the reverse
// does not hold.
func Visible(tag, active domain.Timeframe) bool {
	switch {
	case tag == "":
		return true
	case tag == active:
		return true
	case active == domain.TimeframeFeatures && tag == domain.Timeframe1h:
		return true
	}
	return false
}

// VisibleGroups returns the groups shown for tf, in catalogue order.
func (c Catalogue) VisibleGroups(tf domain.Timeframe) []Group {
	var out []Group
	for _, g := range c.Groups {
		if Visible(g.Timeframe, tf) {
			out = append(out, g)
		}
	}
	return out
}

// VisibleIndicators flattens the visible groups for tf. An id listed by
// more than one visible group appears once, at its first position.
func (c Catalogue) VisibleIndicators(tf domain.Timeframe) []Indicator {
	seen := make(map[string]bool)
	var out []Indicator
	for _, g := range c.VisibleGroups(tf) {
		for _, ind := range g.Indicators {
			if seen[ind.ID] {
				continue
			}
			seen[ind.ID] = true
			out = append(out, ind)
		}
	}
	return out
}

// IsVisible reports whether id can be selected while tf is active.
func (c Catalogue) IsVisible(id string, tf domain.Timeframe) bool {
	for _, g := range c.VisibleGroups(tf) {
		for _, ind := range g.Indicators {
			if ind.ID == id {
				return true
			}
		}
	}
	return false
}

// Label returns the display label for id and whether id is known.
func (c Catalogue) Label(id string) (string, bool) {
	for _, g := range c.Groups {
		for _, ind := range g.Indicators {
			if ind.ID == id {
				return ind.Label, true
			}
		}
	}
	return "", false
}

// LoadCatalogue reads a catalogue from a YAML file.
func LoadCatalogue(path string) (Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalogue{}, err
	}

	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalogue{}, fmt.Errorf("parsing catalogue %s: %w", path, err)
	}
	for i, g := range c.Groups {
		if g.Timeframe == "" {
			continue
		}
		if _, err := domain.ParseTimeframe(string(g.Timeframe)); err != nil {
			return Catalogue{}, fmt.Errorf("catalogue group %d (%s): %w", i, g.Name, err)
		}
	}
	return c, nil
}

// DefaultCatalogue returns the built-in indicator groups.
func DefaultCatalogue() Catalogue {
	return Catalogue{Groups: []Group{
		{Name: "Volume", Indicators: []Indicator{
			{ID: "volume", Label: "Volume"},
		}},
		{Name: "RSI", Timeframe: domain.Timeframe1h, Indicators: []Indicator{
			{ID: "rsi_14", Label: "RSI 14"},
			{ID: "rsi_sma_14", Label: "RSI SMA 14"},
			{ID: "rsi_diff", Label: "RSI Diff"},
			{ID: "rsi_slope", Label: "RSI Slope"},
			{ID: "rsi_dist_50", Label: "RSI Dist 50"},
			{ID: "rsi_zone", Label: "RSI Zone"},
		}},
		{Name: "Momentum", Timeframe: domain.Timeframe1h, Indicators: []Indicator{
			{ID: "roc_7", Label: "ROC 7"},
			{ID: "roc_9", Label: "ROC 9"},
			{ID: "roc_21", Label: "ROC 21"},
			{ID: "roc7_flag", Label: "ROC7 Flag"},
			{ID: "roc_accel", Label: "ROC Accel"},
		}},
		{Name: "Moving Averages", Timeframe: domain.Timeframe1h, Indicators: []Indicator{
			{ID: "ema_7", Label: "EMA 7"},
			{ID: "ema_9", Label: "EMA 9"},
			{ID: "ema_20", Label: "EMA 20"},
			{ID: "ema_50", Label: "EMA 50"},
			{ID: "ema_100", Label: "EMA 100"},
			{ID: "sma_25", Label: "SMA 25"},
			{ID: "close_pct_sma_25", Label: "Close % SMA 25"},
			{ID: "ema_alignment", Label: "EMA Alignment"},
		}},
		{Name: "LSMA", Timeframe: domain.Timeframe1h, Indicators: []Indicator{
			{ID: "lsma_25", Label: "LSMA 25"},
			{ID: "close_gt_lsma", Label: "Close > LSMA"},
			{ID: "close_lt_lsma", Label: "Close < LSMA"},
			{ID: "close_pct_lsma", Label: "Close % LSMA"},
			{ID: "lsma_diff", Label: "LSMA Diff"},
		}},
		{Name: "Bollinger Bands", Timeframe: domain.Timeframe1h, Indicators: []Indicator{
			{ID: "bb_upper", Label: "BB Upper"},
			{ID: "bb_middle", Label: "BB Middle"},
			{ID: "bb_lower", Label: "BB Lower"},
			{ID: "bb_width", Label: "BB Width"},
			{ID: "bb_squeeze", Label: "BB Squeeze"},
			{ID: "bb_position", Label: "BB Position"},
			{ID: "bb_range", Label: "BB Range"},
			{ID: "bb_upper_slope", Label: "BB Upper Slope"},
			{ID: "bb_lower_slope", Label: "BB Lower Slope"},
		}},
		{Name: "Volatility", Timeframe: domain.Timeframe1h, Indicators: []Indicator{
			{ID: "hl_range", Label: "HL Range"},
			{ID: "range_pct", Label: "Range %"},
			{ID: "atr_14", Label: "ATR 14"},
			{ID: "atr_pct", Label: "ATR %"},
			{ID: "vwap", Label: "VWAP"},
			{ID: "close_pct_vwap", Label: "Close % VWAP"},
			{ID: "break_high_5", Label: "Break High 5"},
			{ID: "break_low_5", Label: "Break Low 5"},
		}},
		{Name: "Daily", Timeframe: domain.Timeframe1d, Indicators: []Indicator{
			{ID: "rsi_14", Label: "RSI 14"},
			{ID: "rsi_slope", Label: "RSI Slope"},
			{ID: "ema_20", Label: "EMA 20"},
			{ID: "ema_20_slope", Label: "EMA 20 Slope"},
			{ID: "trend_flag", Label: "Trend Flag"},
		}},
		{Name: "Daily Context", Timeframe: domain.TimeframeFeatures, Indicators: []Indicator{
			{ID: "daily_rsi_14", Label: "Daily RSI 14"},
			{ID: "daily_rsi_slope", Label: "Daily RSI Slope"},
			{ID: "daily_ema_20", Label: "Daily EMA 20"},
			{ID: "daily_ema_20_slope", Label: "Daily EMA 20 Slope"},
			{ID: "daily_trend_flag", Label: "Daily Trend Flag"},
		}},
	}}
}
