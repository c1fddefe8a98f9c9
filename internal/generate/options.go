package generate

// DefaultContentType is used when the form leaves the type blank
const DefaultContentType = "quiz"

// Option is one selectable value with its display label
type Option struct {
	Value string
	Label string
}

var (
	Subjects = []Option{
		{Value: "mathematics", Label: "Mathematics"},
		{Value: "science", Label: "Science"},
		{Value: "history", Label: "History"},
		{Value: "literature", Label: "Literature"},
	}

	Grades = []Option{
		{Value: "elementary", Label: "Elementary"},
		{Value: "middle", Label: "Middle School"},
		{Value: "high", Label: "High School"},
	}

	ContentTypes = []Option{
		{Value: "quiz", Label: "Quiz"},
		{Value: "lesson", Label: "Lesson Plan"},
		{Value: "exercise", Label: "Exercise"},
	}
)

// Label returns the display label for value, or value itself when unknown
func Label(options []Option, value string) string {
	for _, o := range options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// Index returns the position of value in options, or -1
func Index(options []Option, value string) int {
	for i, o := range options {
		if o.Value == value {
			return i
		}
	}
	return -1
}
