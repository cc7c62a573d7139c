package catalog

// Phase is a point in a stage's execution that gets a log message.
type Phase int

const (
	PhaseStarted Phase = iota
	PhaseCompleted
	PhaseFailed
)

// Profile describes how a stage type presents itself while it runs.
type Profile struct {
	Description string
	Started     string
	Completed   string
	Failed      string
}

// Text returns the profile's message for phase.
func (p Profile) Text(phase Phase) string {
	switch phase {
	case PhaseStarted:
		return p.Started
	case PhaseCompleted:
		return p.Completed
	default:
		return p.Failed
	}
}

// DefaultProfile applies to every type tag without its own profile.
var DefaultProfile = Profile{
	Description: "Node type",
	Started:     "Processing",
	Completed:   "Processing completed",
	Failed:      "Processing failed",
}

var profiles = map[string]Profile{
	DataSource: {
		Description: "Import data from various sources",
		Started:     "Reading input data",
		Completed:   "Input data loaded",
		Failed:      "Failed to read input data",
	},
	Transformer: {
		Description: "Transform and process data",
		Started:     "Transforming data",
		Completed:   "Data transformation completed",
		Failed:      "Data transformation failed",
	},
	Model: {
		Description: "Machine learning models",
		Started:     "Running model inference",
		Completed:   "Predictions generated",
		Failed:      "Model inference failed",
	},
	Sink: {
		Description: "Export data to destinations",
		Started:     "Writing output",
		Completed:   "Output saved successfully",
		Failed:      "Failed to save output",
	},
}

// Lookup returns the profile for a type tag, falling back to DefaultProfile.
func Lookup(tag string) Profile {
	if p, ok := profiles[tag]; ok {
		return p
	}
	return DefaultProfile
}

// Message formats "<label or tag>: <phase text>" for a stage.
func Message(label, tag string, phase Phase) string {
	name := label
	if name == "" {
		name = tag
	}
	return name + ": " + Lookup(tag).Text(phase)
}
