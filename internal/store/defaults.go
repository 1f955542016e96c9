package store

// Defaults is the badge catalog installed by `habitquest seed`.
var Defaults = []Badge{
	{Name: "Early Bird", Description: "For those who get things done before breakfast", Price: 50, Rarity: RarityCommon, Icon: "🐦"},
	{Name: "Night Owl", Description: "Productive after dark", Price: 50, Rarity: RarityCommon, Icon: "🦉"},
	{Name: "Focused Mind", Description: "Laser focus on the quest", Price: 150, Rarity: RarityRare, Icon: "🧠"},
	{Name: "Streak Keeper", Description: "Never breaks the chain", Price: 200, Rarity: RarityRare, Icon: "🔗"},
	{Name: "Quest Legend", Description: "A true HabitQuest legend", Price: 500, Rarity: RarityEpic, Icon: "🐉"},
}
