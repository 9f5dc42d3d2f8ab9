package consts

// Agent branch statuses reported on the progress stream.
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateError     = "error"
)

// Analysis modes.
const (
	ModeFull  = "full"
	ModeQuick = "quick"
)

// Research topics. The researcher fills one summary per topic.
const (
	TopicReport   = "report"
	TopicNews     = "news"
	TopicPolicy   = "policy"
	TopicIndustry = "industry"
)

// Topics in quality-evaluation order (heaviest weight first).
var Topics = []string{TopicReport, TopicNews, TopicIndustry, TopicPolicy}

// Research source identifiers used in provenance tags.
const (
	SourceIndex = "index" // hybrid retrieval over the document indices
	SourceWeb   = "web"   // live web search
	SourceNone  = "none"  // both plans failed, topic left empty
)
