package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*VoiceOptions)(nil)

// VoiceOptions configures the connection to the voice-assistant backend.
type VoiceOptions struct {
	// BaseURL is the HTTP endpoint of the voice-assistant vendor API.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// PublicKey authenticates session start requests.
	PublicKey string `json:"public-key" mapstructure:"public-key"`

	// AssistantID selects the assistant persona to start sessions with.
	AssistantID string `json:"assistant-id" mapstructure:"assistant-id"`

	// ConnectTimeout bounds the wait for the backend's call-started event.
	// A session still connecting when it expires is forced back to idle.
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`

	// Simulate replaces the vendor backend with the in-process simulator.
	Simulate bool `json:"simulate" mapstructure:"simulate"`
}

// NewVoiceOptions creates a VoiceOptions object with default parameters.
func NewVoiceOptions() *VoiceOptions {
	return &VoiceOptions{
		BaseURL:        "https://api.vapi.ai",
		ConnectTimeout: 15 * time.Second,
		Simulate:       false,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *VoiceOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if !o.Simulate {
		if o.PublicKey == "" {
			errors = append(errors, fmt.Errorf("voice public key is required unless --voice.simulate is set"))
		}
		if o.AssistantID == "" {
			errors = append(errors, fmt.Errorf("voice assistant id is required unless --voice.simulate is set"))
		}
	}
	if o.ConnectTimeout <= 0 {
		errors = append(errors, fmt.Errorf("voice connect timeout must be positive"))
	}

	return errors
}

// AddFlags adds flags related to the voice backend to the specified FlagSet.
func (o *VoiceOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.BaseURL, "voice.base-url", o.BaseURL, "Base URL of the voice-assistant vendor API.")
	fs.StringVar(&o.PublicKey, "voice.public-key", o.PublicKey, "Public key for the voice-assistant vendor.")
	fs.StringVar(&o.AssistantID, "voice.assistant-id", o.AssistantID, "Assistant identifier to start sessions with.")
	fs.DurationVar(&o.ConnectTimeout, "voice.connect-timeout", o.ConnectTimeout, "Maximum wait for a session to become active.")
	fs.BoolVar(&o.Simulate, "voice.simulate", o.Simulate, "Use the in-process simulated voice backend.")
}
