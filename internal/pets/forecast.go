package pets

import (
	"fmt"
	"math"
	"strings"
)

var (
	demandMultipliers = map[string]float64{
		"Terrible":       0.7,
		"Low":            0.85,
		"Medium":         1.0,
		"High":           1.3,
		"Extremely High": 1.6,
	}
	trendMultipliers = map[string]float64{
		"Dropping": 0.8,
		"Stable":   1.0,
		"Rising":   1.2,
	}
	tierMultipliers = map[string]float64{
		"Common":    0.9,
		"Uncommon":  1.0,
		"Rare":      1.1,
		"Epic":      1.25,
		"Legendary": 1.5,
		"Divine":    1.8,
	}
)

type ForecastInput struct {
	PetName      string  `json:"pet_name"`
	CurrentValue float64 `json:"current_value"`
	Demand       string  `json:"demand"`
	Trend        string  `json:"trend"`
	Tier         string  `json:"tier"`
	TimeHorizon  float64 `json:"time_horizon"`
}

type ForecastResult struct {
	PetName          string  `json:"pet_name"`
	CurrentValue     float64 `json:"current_value"`
	PredictedValue   float64 `json:"predicted_value"`
	TimeHorizon      float64 `json:"time_horizon"`
	Demand           string  `json:"demand"`
	Trend            string  `json:"trend"`
	Tier             string  `json:"tier"`
	PredictionTrend  string  `json:"prediction_trend"`
	InvestmentRating string  `json:"investment_rating"`
	Analysis         string  `json:"analysis"`
	ChangePercentage float64 `json:"change_percentage"`
}

func Forecast(in ForecastInput) ForecastResult {
	if in.Demand == "" {
		in.Demand = "Medium"
	}
	if in.Trend == "" {
		in.Trend = "Stable"
	}
	if in.Tier == "" {
		in.Tier = "Common"
	}
	if in.TimeHorizon == 0 {
		in.TimeHorizon = 30
	}

	demand := lookupMultiplier(demandMultipliers, in.Demand)
	trend := lookupMultiplier(trendMultipliers, in.Trend)
	tier := lookupMultiplier(tierMultipliers, in.Tier)
	timeMult := math.Pow(1+(trend-1)*0.1, in.TimeHorizon/30)
	total := demand * trend * tier * timeMult
	predicted := math.Round(in.CurrentValue * total)

	result := ForecastResult{
		PetName:        in.PetName,
		CurrentValue:   in.CurrentValue,
		PredictedValue: predicted,
		TimeHorizon:    in.TimeHorizon,
		Demand:         in.Demand,
		Trend:          in.Trend,
		Tier:           in.Tier,
	}

	switch {
	case predicted > in.CurrentValue*1.1:
		result.PredictionTrend = "positive"
	case predicted < in.CurrentValue*0.9:
		result.PredictionTrend = "negative"
	default:
		result.PredictionTrend = "neutral"
	}

	switch {
	case total >= 1.5:
		result.InvestmentRating = "⭐⭐⭐ Excellent"
	case total >= 1.2:
		result.InvestmentRating = "⭐⭐ Good"
	case total >= 1.0:
		result.InvestmentRating = "⭐ Fair"
	default:
		result.InvestmentRating = "❌ Poor"
	}

	if in.CurrentValue != 0 {
		result.ChangePercentage = math.Round((predicted-in.CurrentValue)/in.CurrentValue*1000) / 10
	}
	horizon := trimFloat(in.TimeHorizon)
	switch {
	case result.ChangePercentage > 0:
		result.Analysis = fmt.Sprintf("Based on %s demand and %s trend, %s is expected to increase by %v%% over %s days. The %s tier provides additional value stability.",
			in.Demand, strings.ToLower(in.Trend), in.PetName, result.ChangePercentage, horizon, in.Tier)
	case result.ChangePercentage < 0:
		result.Analysis = fmt.Sprintf("Market analysis suggests %s may decrease by %v%% over %s days due to %s demand and %s market conditions.",
			in.PetName, math.Abs(result.ChangePercentage), horizon, strings.ToLower(in.Demand), strings.ToLower(in.Trend))
	default:
		result.Analysis = fmt.Sprintf("%s is expected to maintain stable value over %s days with current market conditions.", in.PetName, horizon)
	}
	return result
}

func lookupMultiplier(table map[string]float64, key string) float64 {
	if value, ok := table[key]; ok {
		return value
	}
	return 1.0
}

func trimFloat(value float64) string {
	if value == math.Trunc(value) {
		return fmt.Sprintf("%d", int64(value))
	}
	return fmt.Sprintf("%g", value)
}
