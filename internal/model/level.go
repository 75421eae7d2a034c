// internal/model/level.go
package model

// Level はXPしきい値に対応するレベル定義です。
type Level struct {
	Number    int    `json:"number"`
	Threshold int    `json:"threshold"`
	Name      string `json:"name"`
	Badge     string `json:"badge"`
}

// Levels は昇順に並んだ固定のレベル表
var Levels = []Level{
	{Number: 1, Threshold: 0, Name: "Cyber Rookie", Badge: "🌱"},
	{Number: 2, Threshold: 100, Name: "Security Apprentice", Badge: "🔐"},
	{Number: 3, Threshold: 400, Name: "Phishing Spotter", Badge: "🎣"},
	{Number: 4, Threshold: 1000, Name: "Threat Hunter", Badge: "🔍"},
	{Number: 5, Threshold: 2000, Name: "Security Guardian", Badge: "🛡️"},
	{Number: 6, Threshold: 4000, Name: "Cyber Champion", Badge: "🏆"},
}

// LevelFor は xpTotal を超えない最大のしきい値を持つレベルを返します。
func LevelFor(xpTotal int) Level {
	current := Levels[0]
	for _, l := range Levels {
		if l.Threshold > xpTotal {
			break
		}
		current = l
	}
	return current
}

// NextLevel は次のレベルを返します。最高レベルの場合は false。
func NextLevel(current Level) (Level, bool) {
	for _, l := range Levels {
		if l.Threshold > current.Threshold {
			return l, true
		}
	}
	return Level{}, false
}
