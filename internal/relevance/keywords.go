package relevance

// 主题关键词集合，进程级常量，运行时不修改。
// 匹配按小写子串进行。

// relevantTopics 是允许回答的阿片类药物教育主题。
var relevantTopics = []string{
	"opioid",
	"addiction",
	"overdose",
	"withdrawal",
	"fentanyl",
	"heroin",
	"painkiller",
	"narcotic",
	"naloxone",
	"narcan",
	"rehab",
	"morphine",
	"oxycodone",
	"hydrocodone",
	"codeine",
	"methadone",
	"suboxone",
	"buprenorphine",
	"pain management",
	"substance abuse",
	"drug misuse",
}

// irrelevantTopics 是明确禁止讨论的主题。
var irrelevantTopics = []string{
	"celebrity",
	"entertainment",
	"politic",
	"singer",
	"actor",
	"actress",
	"movie",
	"pop culture",
	"music",
	"grammy",
	"sport",
	"tv show",
	"fashion",
	"geography",
	"weather",
	"recipe",
	"finance",
	"gaming",
	"video game",
	"tobacco",
	"alcohol",
	"caffeine",
	"nicotine",
	"cocaine",
	"methamphetamine",
	"benzodiazepine",
	"cannabis",
	"marijuana",
}

// RefusalMessage 是离题问题的固定拒答文案。
const RefusalMessage = "Sorry, I can only answer questions related to opioids, addiction, overdose, or withdrawal."
