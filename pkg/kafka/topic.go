package kafka

import "fmt"

// TopicPrefix namespaces every topic this system publishes to.
const TopicPrefix = "marketplace"

// Topic builds a fully-qualified topic name from a domain and an action,
// e.g. Topic("review", "upserted") -> "marketplace.review.upserted".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
