package engine

// IconClass is the severity class of a badge icon
type IconClass string

const (
	IconSuccess IconClass = "success"
	IconError   IconClass = "error"
)

// BadgeLabel is the display label of every outcome badge
const BadgeLabel = "Codefresh Build Page"

var iconFiles = map[IconClass]string{
	IconSuccess: "leaves_green.png",
	IconError:   "leaves_red.png",
}

// Badge is the marker attached to a completed job
type Badge struct {
	URL      ProgressURL `json:"url"`
	Icon     IconClass   `json:"icon"`
	IconFile string      `json:"icon_file"`
	Label    string      `json:"label"`
	Status   string      `json:"status"`
}

// Verdict is the pass/fail classification of a terminal status
type Verdict struct {
	Passed  bool
	Icon    IconClass
	Label   string
	Message string
}

// Classify maps a terminal status to a verdict.
// Unclassified statuses fail but keep the success icon.
func Classify(status BuildStatus) Verdict {
	switch status.Kind {
	case StatusSuccess:
		return Verdict{Passed: true, Icon: IconSuccess, Label: BadgeLabel, Message: "Codefresh build successful!"}
	case StatusError:
		return Verdict{Passed: false, Icon: IconError, Label: BadgeLabel, Message: "Codefresh build failed!"}
	default:
		return Verdict{
			Passed:  false,
			Icon:    IconSuccess,
			Label:   BadgeLabel,
			Message: "Codefresh status " + status.Raw + " unclassified.",
		}
	}
}

// NewBadge builds the badge for a terminal status
func NewBadge(url ProgressURL, status BuildStatus) *Badge {
	v := Classify(status)
	return &Badge{
		URL:      url,
		Icon:     v.Icon,
		IconFile: iconFiles[v.Icon],
		Label:    v.Label,
		Status:   status.Raw,
	}
}
