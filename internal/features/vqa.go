package features

import (
	"strings"
	"time"

	"github.com/jdkato/prose/v2"

	"github.com/inferwatch/backend/internal/drift"
)

// Question types produced by ClassifyQuestion.
const (
	QuestionWhat    = "what"
	QuestionWhere   = "where"
	QuestionWhen    = "when"
	QuestionWho     = "who"
	QuestionWhy     = "why"
	QuestionHowMany = "how_many"
	QuestionHow     = "how"
	QuestionYesNo   = "yes_no"
	QuestionOther   = "other"
)

// VQAFeatures is the fixed feature record for the visual question answering
// domain. All fields are always populated.
type VQAFeatures struct {
	Brightness         float64   `json:"brightness"`
	Contrast           float64   `json:"contrast"`
	AspectRatio        float64   `json:"aspect_ratio"`
	Width              int       `json:"width"`
	Height             int       `json:"height"`
	QuestionLength     int       `json:"question_length"`
	QuestionCharLength int       `json:"question_char_length"`
	QuestionType       string    `json:"question_type"`
	QuestionTokens     int       `json:"question_tokens"`
	AnswerLength       int       `json:"answer_length"`
	AnswerCharLength   int       `json:"answer_char_length"`
	InferenceTime      float64   `json:"inference_time"`
	CreatedAt          time.Time `json:"timestamp"`
}

// VQASchema lists the monitored columns for the VQA domain.
var VQASchema = drift.Schema{
	Numeric: []string{
		"brightness", "contrast", "aspect_ratio", "width", "height",
		"question_length", "question_char_length", "question_tokens",
		"answer_length", "answer_char_length", "inference_time",
	},
	Categorical: []string{"question_type"},
}

// ExtractVQA derives the VQA feature record from the image stats, the
// question/answer pair and the measured inference time.
func ExtractVQA(stats ImageStats, question, answer string, inferenceTime time.Duration) VQAFeatures {
	return VQAFeatures{
		Brightness:         stats.Brightness,
		Contrast:           stats.Contrast,
		AspectRatio:        stats.AspectRatio,
		Width:              stats.Width,
		Height:             stats.Height,
		QuestionLength:     len(strings.Fields(question)),
		QuestionCharLength: len(question),
		QuestionType:       ClassifyQuestion(question),
		QuestionTokens:     countTokens(question),
		AnswerLength:       len(strings.Fields(answer)),
		AnswerCharLength:   len(answer),
		InferenceTime:      inferenceTime.Seconds(),
		CreatedAt:          time.Now(),
	}
}

// questionRules is an ordered prefix table; the first match wins. The
// two-word "how many"/"how much" check must precede the bare "how" check.
var questionRules = []struct {
	prefixes []string
	qtype    string
}{
	{[]string{"what"}, QuestionWhat},
	{[]string{"where"}, QuestionWhere},
	{[]string{"when"}, QuestionWhen},
	{[]string{"who"}, QuestionWho},
	{[]string{"why"}, QuestionWhy},
	{[]string{"how many", "how much"}, QuestionHowMany},
	{[]string{"how"}, QuestionHow},
	{[]string{"is", "are", "do", "does"}, QuestionYesNo},
}

// ClassifyQuestion buckets a question into a coarse type based on its
// leading words.
func ClassifyQuestion(question string) string {
	q := strings.ToLower(strings.TrimSpace(question))

	for _, rule := range questionRules {
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(q, prefix) {
				return rule.qtype
			}
		}
	}
	return QuestionOther
}

func countTokens(text string) int {
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithTagging(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		// tokenizer failure degrades to a whitespace split
		return len(strings.Fields(text))
	}
	return len(doc.Tokens())
}

func (f VQAFeatures) NumericFeatures() map[string]float64 {
	return map[string]float64{
		"brightness":           f.Brightness,
		"contrast":             f.Contrast,
		"aspect_ratio":         f.AspectRatio,
		"width":                float64(f.Width),
		"height":               float64(f.Height),
		"question_length":      float64(f.QuestionLength),
		"question_char_length": float64(f.QuestionCharLength),
		"question_tokens":      float64(f.QuestionTokens),
		"answer_length":        float64(f.AnswerLength),
		"answer_char_length":   float64(f.AnswerCharLength),
		"inference_time":       f.InferenceTime,
	}
}

func (f VQAFeatures) CategoricalFeatures() map[string]string {
	return map[string]string{"question_type": f.QuestionType}
}

func (f VQAFeatures) Timestamp() time.Time {
	return f.CreatedAt
}
