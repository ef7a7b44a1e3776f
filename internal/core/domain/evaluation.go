package domain

// QAPair is one generated evaluation sample
type QAPair struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Contexts []string `json:"contexts"`
}

// Evaluation limits
const (
	QAContextChars   = 4000 // text sent to the model when generating questions
	QASliceChars     = 1500 // size of each returned context slice
	QAMaxSlices      = 5
	DefaultQuestions = 5
)

// ContextSlices splits text into at most QAMaxSlices consecutive slices of QASliceChars runes.
func ContextSlices(text string) []string {
	runes := []rune(text)
	var slices []string
	for start := 0; start < len(runes) && len(slices) < QAMaxSlices; start += QASliceChars {
		end := start + QASliceChars
		if end > len(runes) {
			end = len(runes)
		}
		slices = append(slices, string(runes[start:end]))
	}
	return slices
}

// Truncate returns at most n runes of text
func Truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
