package services

import (
	"math/rand"

	"promptparty/models"
)

// themeCatalog is the fixed pool a started session draws from.
var themeCatalog = []models.Theme{
	{
		Title:       "Build a mini game you can enjoy in five seconds!",
		Description: "A game that delivers a full play experience in five seconds or less.",
		Requirements: []string{
			"A round ends within five seconds",
			"One-tap or one-key controls",
			"Instant win or lose feedback",
		},
	},
	{
		Title:       "Build the simplest puzzle game you can!",
		Description: "A puzzle stripped down to a single mechanic anyone understands at a glance.",
		Requirements: []string{
			"Exactly one puzzle mechanic",
			"No tutorial needed",
			"A clear solved state",
		},
	},
	{
		Title:       "Build a game that tests reflexes!",
		Description: "Reaction speed decides everything.",
		Requirements: []string{
			"A timed stimulus the player must react to",
			"Reaction time shown after each attempt",
			"Escalating difficulty",
		},
	},
	{
		Title:       "Build a game decided purely by luck!",
		Description: "No skill allowed: chance alone picks the winner.",
		Requirements: []string{
			"Outcome driven by randomness only",
			"A dramatic reveal of the result",
			"Replay with a single click",
		},
	},
	{
		Title:       "Build a rhythm game that uses sound!",
		Description: "Timing against an audible or visual beat.",
		Requirements: []string{
			"A steady beat the player follows",
			"Hit or miss judged by timing",
			"A combo or streak counter",
		},
	},
	{
		Title:       "Build a memory game that uses color!",
		Description: "Remember and reproduce color patterns.",
		Requirements: []string{
			"Color sequences to memorize",
			"Sequences that grow each round",
			"Mistakes end the run",
		},
	},
	{
		Title:       "Build a calculation game that uses numbers!",
		Description: "Quick mental arithmetic under pressure.",
		Requirements: []string{
			"Randomly generated arithmetic problems",
			"A countdown per question",
			"A running score",
		},
	},
}

func randomTheme() models.Theme {
	return themeCatalog[rand.Intn(len(themeCatalog))]
}
