// Package advisor maps a monthly consumption total to canned savings advice.
package advisor

// Tier is a consumption band.
type Tier string

const (
	TierHigh     Tier = "high"
	TierModerate Tier = "moderate"
	TierGood     Tier = "good"
)

// Tier thresholds in kWh per month. A total above HighThreshold is high;
// ModerateThreshold itself is moderate.
const (
	HighThreshold     = 500.0
	ModerateThreshold = 200.0
)

var tierTips = map[Tier][2]string{
	TierHigh: {
		"Seu consumo está alto! Considere usar aparelhos mais eficientes.",
		"Desligue aparelhos que não estão sendo usados para economizar mais.",
	},
	TierModerate: {
		"Você está no caminho certo! Verifique se há aparelhos que podem ser otimizados.",
		"Considere instalar painéis solares para reduzir ainda mais sua conta de luz.",
	},
	TierGood: {
		"Seu consumo está em um bom nível. Continue economizando!",
		"Aproveite para compartilhar suas práticas de economia com amigos e familiares.",
	},
}

// TierFor classifies totalKWh.
func TierFor(totalKWh float64) Tier {
	switch {
	case totalKWh > HighThreshold:
		return TierHigh
	case totalKWh >= ModerateThreshold && totalKWh <= HighThreshold:
		return TierModerate
	default:
		return TierGood
	}
}

// TipsFor returns the two tips of the tier totalKWh falls in.
func TipsFor(totalKWh float64) []string {
	t := tierTips[TierFor(totalKWh)]
	return []string{t[0], t[1]}
}

// Advice bundles a tier with its tips.
type Advice struct {
	TotalKWh float64  `json:"total_kwh"`
	Tier     Tier     `json:"tier"`
	Tips     []string `json:"tips"`
}

// AdviceFor is TierFor and TipsFor in one value.
func AdviceFor(totalKWh float64) Advice {
	return Advice{TotalKWh: totalKWh, Tier: TierFor(totalKWh), Tips: TipsFor(totalKWh)}
}
