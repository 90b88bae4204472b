package options

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SpeechOptions)(nil)

// SpeechOptions configures the text-to-speech proxy.
type SpeechOptions struct {
	// Endpoint is the vendor text-to-speech REST endpoint.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// APIKey is the vendor subscription key. Falls back to the
	// SARVAM_API_KEY environment variable when empty.
	APIKey string `json:"api-key" mapstructure:"api-key"`

	// Speaker, LanguageCode, Model and Pace select the synthesized voice.
	Speaker      string  `json:"speaker" mapstructure:"speaker"`
	LanguageCode string  `json:"language-code" mapstructure:"language-code"`
	Model        string  `json:"model" mapstructure:"model"`
	Pace         float64 `json:"pace" mapstructure:"pace"`

	// SampleRate is the output speech sample rate in Hz.
	SampleRate int `json:"sample-rate" mapstructure:"sample-rate"`
}

// NewSpeechOptions creates a SpeechOptions object with default parameters.
func NewSpeechOptions() *SpeechOptions {
	return &SpeechOptions{
		Endpoint:     "https://api.sarvam.ai/text-to-speech",
		Speaker:      "shreya",
		LanguageCode: "hi-IN",
		Model:        "bulbul:v3",
		Pace:         1.0,
		SampleRate:   8000,
	}
}

// Complete fills in the API key from the environment when it was not set
// explicitly on the command line or in the config file.
func (o *SpeechOptions) Complete() {
	if o.APIKey == "" {
		o.APIKey = os.Getenv("SARVAM_API_KEY")
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *SpeechOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.Endpoint == "" {
		errors = append(errors, fmt.Errorf("speech endpoint must not be empty"))
	}
	if o.Pace <= 0 {
		errors = append(errors, fmt.Errorf("speech pace must be positive"))
	}
	if o.SampleRate <= 0 {
		errors = append(errors, fmt.Errorf("speech sample rate must be positive"))
	}

	return errors
}

// AddFlags adds flags related to the speech proxy to the specified FlagSet.
func (o *SpeechOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Endpoint, "speech.endpoint", o.Endpoint, "Vendor text-to-speech endpoint.")
	fs.StringVar(&o.APIKey, "speech.api-key", o.APIKey, "Vendor subscription key (defaults to SARVAM_API_KEY).")
	fs.StringVar(&o.Speaker, "speech.speaker", o.Speaker, "Voice to synthesize with.")
	fs.StringVar(&o.LanguageCode, "speech.language-code", o.LanguageCode, "Target language code.")
	fs.StringVar(&o.Model, "speech.model", o.Model, "Vendor model identifier.")
	fs.Float64Var(&o.Pace, "speech.pace", o.Pace, "Speech pace multiplier.")
	fs.IntVar(&o.SampleRate, "speech.sample-rate", o.SampleRate, "Speech sample rate in Hz.")
}
