package mqtt

import "fmt"

// TopicPrefixSystem is the base for system topics.
const TopicPrefixSystem = "graylogic/system"

// Topics provides builders for the MQTT topics this package publishes on.
// Bridge topics are built by the bridge packages themselves.
//
//	statusTopic := mqtt.Topics{}.SystemStatus()
//	// Returns: "graylogic/system/status"
type Topics struct{}

// SystemStatus returns the system status topic.
//
// Example: graylogic/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
