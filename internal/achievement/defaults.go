package achievement

// Defaults is the catalog installed by `habitquest seed`.
var Defaults = []Achievement{
	{
		Name:          "Task Champion",
		Description:   "Complete 5 tasks in a single day",
		Icon:          "🏆",
		XPReward:      50,
		CriteriaType:  CriteriaTasksCompleted,
		CriteriaValue: 5,
	},
	{
		Name:          "First Week Streak",
		Description:   "Stay active 7 days in a row",
		Icon:          "🔥",
		XPReward:      70,
		CriteriaType:  CriteriaStreakReached,
		CriteriaValue: 7,
	},
	{
		Name:          "Monthly Momentum",
		Description:   "Stay active 30 days in a row",
		Icon:          "🌋",
		XPReward:      300,
		CriteriaType:  CriteriaStreakReached,
		CriteriaValue: 30,
	},
	{
		Name:          "Century",
		Description:   "Earn 100 XP",
		Icon:          "💯",
		XPReward:      10,
		CriteriaType:  CriteriaXPReached,
		CriteriaValue: 100,
	},
	{
		Name:          "Habit Master",
		Description:   "Complete 3 different habits at least 3 times each",
		Icon:          "🔁",
		XPReward:      60,
		CriteriaType:  CriteriaHabitsCreated,
		CriteriaValue: 3,
	},
	{
		Name:          "Player One",
		Description:   "Submit your first game score",
		Icon:          "🎮",
		XPReward:      10,
		CriteriaType:  CriteriaGamesPlayed,
		CriteriaValue: 1,
	},
	{
		Name:          "Fit for Battle",
		Description:   "Complete a fitness plan",
		Icon:          "💪",
		XPReward:      40,
		CriteriaType:  CriteriaFitnessPlanCompleted,
		CriteriaValue: 1,
	},
}
