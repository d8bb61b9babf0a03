package alerts

// Effect kinds
const (
	KindAudioCue           = "audio_cue"
	KindNativeNotification = "native_notification"
	KindBanner             = "banner"
)

// Effect is one side effect an observer should perform. Effects are independent and
// none of them is a record of anything.
type Effect interface {
	Kind() string
}

// AudioCue plays a short sequence of tones
type AudioCue struct {
	Tones []int `json:"tones"`
}

func (AudioCue) Kind() string { return KindAudioCue }

// NativeNotification is shown through the operating system
type NativeNotification struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	Tag                string `json:"tag"`
	RequireInteraction bool   `json:"require_interaction"`
}

func (NativeNotification) Kind() string { return KindNativeNotification }

// Banner is the transient in-app toast
type Banner struct {
	Title          string   `json:"title"`
	Message        string   `json:"message"`
	Glyph          string   `json:"glyph,omitempty"`
	Priority       Priority `json:"priority,omitempty"`
	OrderID        uint     `json:"order_id,omitempty"`
	NotificationID uint     `json:"notification_id,omitempty"`
}

func (Banner) Kind() string { return KindBanner }
