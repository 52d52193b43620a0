// Package reply renders resolved query outcomes into user-facing text.
// Every rendered message carries an explicit outcome kind; downstream code
// selects footers by the kind tag, never by inspecting the rendered text.
package reply

// Kind classifies the outcome of a resolved query.
type Kind int

const (
	// KindAnswer is a direct single-entry answer.
	KindAnswer Kind = iota
	// KindComparison is a year-over-year change answer.
	KindComparison
	// KindMultiYear is a multi-year listing or trend analysis.
	KindMultiYear
	// KindSuggestions is a did-you-mean list.
	KindSuggestions
	// KindNeedYear asks the user which year they mean.
	KindNeedYear
	// KindNeedTopic asks the user what item they mean.
	KindNeedTopic
	// KindTooShort rejects an over-ambiguous short query.
	KindTooShort
	// KindRangeTooLong rejects an oversized year range.
	KindRangeTooLong
	// KindBadAdminSyntax rejects a malformed structured lookup.
	KindBadAdminSyntax
	// KindNotFound is the apology for an unanswerable query.
	KindNotFound
)

var kindNames = map[Kind]string{
	KindAnswer:         "answer",
	KindComparison:     "comparison",
	KindMultiYear:      "multi_year",
	KindSuggestions:    "suggestions",
	KindNeedYear:       "need_year",
	KindNeedTopic:      "need_topic",
	KindTooShort:       "too_short",
	KindRangeTooLong:   "range_too_long",
	KindBadAdminSyntax: "bad_admin_syntax",
	KindNotFound:       "not_found",
}

// String returns the snake_case name used as a metrics label.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsSuccess reports whether the outcome answered the question. Guidance and
// fallback outcomes are not successes even though they produce a reply.
func (k Kind) IsSuccess() bool {
	switch k {
	case KindAnswer, KindComparison, KindMultiYear:
		return true
	default:
		return false
	}
}

// Message is one rendered reply.
type Message struct {
	Kind Kind
	Text string
}
