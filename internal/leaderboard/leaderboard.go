package leaderboard

type LeaderboardEntry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Level    int    `json:"level"`
	Rank     int    `json:"rank"`
}

type Leaderboard struct {
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"userPosition"`
	TotalUsers   int                 `json:"totalUsers"`
	Source       string              `json:"source"`
}
