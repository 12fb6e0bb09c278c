package domain

// ChannelNone is the sentinel channel meaning the agent deliberately
// sent nothing (all channels denied, do-not-contact, etc.).
const ChannelNone = "none"

// Channel classes drive class-specific checks: subject lines only apply
// to email-like channels, the STOP opt-out token only to SMS-like ones.
// New channel names are added here rather than in check logic.
var (
	emailLike = map[string]bool{
		"email": true,
	}

	smsLike = map[string]bool{
		"sms":      true,
		"whatsapp": true,
	}
)

// IsEmailLike reports whether the channel carries subject lines and
// unsubscribe-style opt-out language.
func IsEmailLike(channel string) bool { return emailLike[channel] }

// IsSMSLike reports whether the channel uses keyword-reply opt-out
// ("STOP" or a locale equivalent).
func IsSMSLike(channel string) bool { return smsLike[channel] }

// NoMessage reports whether a message value represents the "no message"
// state: absent entirely, the none sentinel, or a channelless nil body.
func NoMessage(m *Message) bool {
	if m == nil {
		return true
	}
	if m.Channel == ChannelNone {
		return true
	}
	return m.Channel == "" && m.Body == nil
}

// ChannelOf returns the effective channel of a message, mapping the
// "no message" state to ChannelNone.
func ChannelOf(m *Message) string {
	if NoMessage(m) {
		return ChannelNone
	}
	return m.Channel
}
