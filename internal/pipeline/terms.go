package pipeline

// Default cue term lists for the rule-based qualifier components. These are
// deliberately small working defaults; project-specific rule tables are
// supplied through configuration.

var negationPreceding = []string{
	"no",
	"not",
	"without",
	"denies",
	"denied",
	"no sign of",
	"no signs of",
	"no evidence of",
	"absence of",
	"free of",
	"negative for",
}

var negationFollowing = []string{
	"unlikely",
	"ruled out",
	"was ruled out",
	"not present",
}

var negationPseudo = []string{
	"not only",
	"no increase",
	"no further",
	"not certain if",
	"not rule out",
}

var hypothesisPreceding = []string{
	"suspected",
	"suspicion of",
	"possible",
	"probable",
	"presumed",
	"may be",
	"might be",
	"could be",
	"suggests",
	"suggestive of",
	"question of",
	"rule out",
}

var hypothesisFollowing = []string{
	"suspected",
	"possible",
	"not excluded",
}

var hypothesisPseudo = []string{
	"no suspicion of",
	"ruled out",
}

var hypothesisConfirmation = []string{
	"confirmed",
	"confirms",
	"certain",
	"definite",
	"evidence of",
	"demonstrated",
}

var hypothesisVerbs = []string{
	"suspect",
	"suspects",
	"suppose",
	"supposes",
	"presume",
	"presumes",
	"assume",
	"assumes",
}

var historyPreceding = []string{
	"history of",
	"past history of",
	"past medical history of",
	"previous",
	"prior",
	"former",
	"childhood",
	"in the past",
}

var historyFollowing = []string{
	"in the past",
	"years ago",
}

var historyPseudo = []string{
	"no history of",
	"family history of",
}
