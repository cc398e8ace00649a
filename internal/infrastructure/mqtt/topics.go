package mqtt

// Topic layout under the configurable prefix (default "sentinel"):
//
//	<prefix>/system/status   retained device online/offline status
//	<prefix>/alarm/notify    one message per configured slot on trigger
//	<prefix>/alarm/status    retained last-alarm summary
//	<prefix>/config/mode     retained current alarm mode

// Topics builds topic strings for the device. The zero value uses the
// default prefix.
type Topics struct {
	Prefix string
}

const defaultTopicPrefix = "sentinel"

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return defaultTopicPrefix
	}
	return t.Prefix
}

// SystemStatus is the retained online/offline status topic.
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

// AlarmNotify carries one message per configured notification slot.
func (t Topics) AlarmNotify() string {
	return t.prefix() + "/alarm/notify"
}

// AlarmStatus is the retained last-alarm summary topic.
func (t Topics) AlarmStatus() string {
	return t.prefix() + "/alarm/status"
}

// ConfigMode is the retained current-mode topic.
func (t Topics) ConfigMode() string {
	return t.prefix() + "/config/mode"
}
