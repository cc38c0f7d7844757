package rules

// KeywordSet holds the tiered phrases and symptom patterns for one risk domain.
// Phrases are lower case; matching is a case-insensitive substring test.
type KeywordSet struct {
	High     []string
	Medium   []string
	Low      []string
	Symptoms []string
}

// HIVKeywords is the HIV exposure keyword set.
var HIVKeywords = KeywordSet{
	High: []string{
		"unprotected", "multiple partners", "sti", "sexually transmitted",
		"injection drug", "needle sharing", "sex work", "recent exposure",
	},
	Medium: []string{
		"partner", "condom", "test", "worried", "concerned", "symptoms",
	},
	Low: []string{
		"healthy", "monogamous", "protected", "negative test",
	},
	Symptoms: []string{
		"fever", "night sweats", "weight loss", "fatigue", "swollen glands",
		"rash", "sore throat", "muscle aches", "genital sores", "discharge",
	},
}

// MentalHealthKeywords is the mental-health keyword set.
var MentalHealthKeywords = KeywordSet{
	High: []string{
		"suicide", "self-harm", "hopeless", "worthless", "can't go on",
		"death wish", "ending it", "severe depression", "psychosis",
	},
	Medium: []string{
		"depressed", "anxious", "stressed", "worried", "can't sleep",
		"panic", "trauma", "abuse", "isolated", "crying",
	},
	Low: []string{
		"concerned", "nervous", "tired", "overwhelmed",
	},
	Symptoms: []string{
		"sad", "hopeless", "anxious", "panic", "can't focus",
		"irritable", "mood swings", "hearing voices", "paranoid", "flashbacks",
	},
}
