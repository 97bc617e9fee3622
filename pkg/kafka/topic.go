package kafka

import "fmt"

// TopicPrefix is the prefix shared by every topic this API writes to.
const TopicPrefix = "services"

// Topic constructs a fully-qualified topic name.
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
