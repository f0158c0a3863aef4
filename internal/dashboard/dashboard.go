// Package dashboard serves the static leaderboard, advisories and
// gamification data shown on the farmer dashboard.
package dashboard

// Entry is one leaderboard row.
type Entry struct {
	Name  string `json:"name"`
	Yield int    `json:"yield"`
}

// Snapshot is the dashboard payload.
type Snapshot struct {
	Leaderboard []Entry           `json:"leaderboard"`
	Advisories  map[string]string `json:"advisories"`
}

// Quest is a daily task shown on the dashboard.
type Quest struct {
	Icon      string `json:"icon"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Badge is an achievement the farmer can earn.
type Badge struct {
	Icon   string `json:"icon"`
	Title  string `json:"title"`
	Earned bool   `json:"earned"`
}

// Achievements is the gamification payload: level progress, rank, quests and badges.
type Achievements struct {
	Level       int     `json:"level"`
	XP          int     `json:"xp"`
	XPNextLevel int     `json:"xp_next_level"`
	Rank        int     `json:"rank"`
	Quests      []Quest `json:"quests"`
	Badges      []Badge `json:"badges"`
}

// Progress returns XP as a fraction of the XP needed for the next level.
func (a Achievements) Progress() float64 {
	if a.XPNextLevel <= 0 {
		return 0
	}
	return float64(a.XP) / float64(a.XPNextLevel)
}

func defaultSnapshot() Snapshot {
	return Snapshot{
		Leaderboard: []Entry{
			{Name: "Suresh K.", Yield: 1500},
			{Name: "Priya M.", Yield: 1450},
		},
		Advisories: map[string]string{
			"en": "Weather alert: Expect light showers this afternoon.",
		},
	}
}

func defaultAchievements() Achievements {
	return Achievements{
		Level:       5,
		XP:          1250,
		XPNextLevel: 2000,
		Rank:        5,
		Quests: []Quest{
			{Icon: "droplet", Text: "Irrigate the maize field", Completed: true},
			{Icon: "leaf", Text: "Apply fertilizer to rice paddy"},
			{Icon: "magnifying-glass", Text: "Check for pests"},
		},
		Badges: []Badge{
			{Icon: "🥇", Title: "First Harvest", Earned: true},
			{Icon: "💧", Title: "Water Saver"},
			{Icon: "🛡️", Title: "Pest Pro", Earned: true},
		},
	}
}
