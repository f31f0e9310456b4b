// Package catalog holds the fixed label set of the skin classifier together with
// the curated search vocabulary and descriptive content served for each label.
package catalog

// NoIssueDetected is reported when no label clears its threshold.
const NoIssueDetected = "no_skin_issue_detected"

// DefaultThreshold applies to labels without an explicit entry in thresholds.
const DefaultThreshold = 0.5

// Labels is the classifier output order. Index i of the model output is Labels[i].
var Labels = []string{"acne", "pockmark", "stain", "wrinkle", "black_circle", "healthy"}

var thresholds = map[string]float32{
	"acne":         0.5,
	"pockmark":     0.5,
	"stain":        0.92,
	"wrinkle":      0.96,
	"black_circle": 0.5,
}

// IsLabel reports whether s is one of the classifier labels.
func IsLabel(s string) bool {
	for _, l := range Labels {
		if l == s {
			return true
		}
	}
	return false
}

// Threshold returns the probability a label must exceed to be reported.
func Threshold(label string) float32 {
	if t, ok := thresholds[label]; ok {
		return t
	}
	return DefaultThreshold
}
