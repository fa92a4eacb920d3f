package models

// ViolationType identifies which wellbeing rule a day's schedule broke.
type ViolationType string

const (
	ViolationTooManyMeetings  ViolationType = "too_many_meetings"
	ViolationNoProtectedLunch ViolationType = "no_protected_lunch"
	ViolationNoMovement       ViolationType = "no_movement"
	ViolationMissingBuffers   ViolationType = "missing_buffers"
)

// Severity grades a violation.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// DefaultSetting is the wellbeing category a violation or suggestion belongs to.
type DefaultSetting string

const (
	DefaultSettingMovement      DefaultSetting = "movement"
	DefaultSettingNutrition     DefaultSetting = "nutrition"
	DefaultSettingRelationships DefaultSetting = "relationships"
	DefaultSettingStress        DefaultSetting = "stress"
	DefaultSettingTranscendence DefaultSetting = "transcendence"
	// DefaultSettingIntentions tags weekly intentions; the detector never emits it.
	DefaultSettingIntentions DefaultSetting = "intentions"
)

// Violation is one detected threshold breach for a single day.
type Violation struct {
	Type            ViolationType  `json:"type" yaml:"type"`
	Severity        Severity       `json:"severity" yaml:"severity"`
	Title           string         `json:"title" yaml:"title"`
	Description     string         `json:"description" yaml:"description"`
	AffectedEvents  []string       `json:"affected_events" yaml:"affected_events"`
	SuggestedAction string         `json:"suggested_action,omitempty" yaml:"suggested_action,omitempty"`
	DefaultSetting  DefaultSetting `json:"default_setting" yaml:"default_setting"`
}
