package voice

// Name heuristics over provider-assigned voice names. These are best effort:
// synthesis vendors do not promise anything about their naming.

// femaleTokens are matched case-insensitively as substrings of a voice name.
var femaleTokens = []string{
	"female", "woman", "girl", "女",
	// zh voices
	"huihui", "yaoyao", "xiaoxiao", "xiaoyi", "xiaohan", "xiaomo", "xiaochen",
	"xiaoxuan", "xiaoyou", "tingting", "ting-ting", "meijia", "mei-jia",
	"sinji", "sin-ji", "lili", "shanshan", "hanhan", "yating", "hiumaan",
	// en voices
	"samantha", "victoria", "karen", "moira", "tessa", "fiona", "veena",
	"zira", "susan", "hazel", "jenny", "aria", "libby", "sonia", "serena", "allison",
}

// qualityTokens mark voices that usually sound better than the default ones.
var qualityTokens = []string{"natural", "neural", "online", "premium", "enhanced"}
