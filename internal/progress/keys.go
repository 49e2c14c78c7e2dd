package progress

// Storage keys for the three persisted records.
const (
	KeyAnswers   = "selectedAnswers"
	KeyCompleted = "completedQuestions"
	KeyBookmarks = "bookmarkedQuestions"
)

// Pseudo-topics that are not item topics.
const (
	TopicAll        = "All"
	TopicBookmarked = "Bookmarked"
)

// completedKey returns the key holding the completed set for a topic view.
// "All" and "Bookmarked" share the global set.
func completedKey(topic string) string {
	if isGlobalTopic(topic) {
		return KeyCompleted
	}
	return KeyCompleted + "_" + topic
}

func isGlobalTopic(topic string) bool {
	return topic == TopicAll || topic == TopicBookmarked || topic == ""
}
