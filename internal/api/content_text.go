package api

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	sectionRe      = regexp.MustCompile(`(?i)^\s*(QUESTION|OPTIONS|CORRECT[_ ]ANSWER|EXPLANATION)\s*(?::\s*(.*))?$`)
	optionRe       = regexp.MustCompile(`^\s*(?:\d+|[A-Da-d])[.):]\s+(.+)$`)
	answerNumberRe = regexp.MustCompile(`^\s*(\d+)`)
	answerLetterRe = regexp.MustCompile(`^\s*([A-Da-d])(?:[.):\s]|$)`)
)

// parseContentString decodes content the backend passed through as a string:
// embedded JSON first, then the sectioned quiz text, else a plain body.
func parseContentString(s string) GeneratedContent {
	s = strings.TrimSpace(s)
	if s == "" {
		return GeneratedContent{}
	}

	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		var c GeneratedContent
		if err := json.Unmarshal([]byte(s[start:end+1]), &c); err == nil && !c.Empty() {
			return c
		}
	}

	if c := parseQuizText(s); c.Question != "" {
		return c
	}

	return GeneratedContent{Body: s}
}

func parseQuizText(s string) GeneratedContent {
	var (
		c           GeneratedContent
		section     string
		question    []string
		answer      string
		explanation []string
	)

	for _, line := range strings.Split(s, "\n") {
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			section = strings.ToUpper(strings.ReplaceAll(m[1], " ", "_"))
			rest := strings.TrimSpace(m[2])
			if rest == "" {
				continue
			}
			line = rest
		}

		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}

		switch section {
		case "QUESTION":
			question = append(question, text)
		case "OPTIONS":
			if m := optionRe.FindStringSubmatch(text); m != nil {
				c.Options = append(c.Options, strings.TrimSpace(m[1]))
			}
		case "CORRECT_ANSWER":
			if answer == "" {
				answer = text
			}
		case "EXPLANATION":
			explanation = append(explanation, text)
		}
	}

	c.Question = strings.Join(question, " ")
	c.Explanation = strings.Join(explanation, " ")
	c.CorrectAnswer = textAnswerIndex(answer, c.Options)
	return c
}

// textAnswerIndex converts the answer line of the text format. Numbers there
// are one-based, matching the "1. ..." option numbering the model prints.
// An answer that does not point at one of options resolves to nil.
func textAnswerIndex(answer string, options []string) *int {
	if answer == "" {
		return nil
	}
	if m := answerNumberRe.FindStringSubmatch(answer); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return optionIndex(n-1, options)
		}
	}
	if m := answerLetterRe.FindStringSubmatch(answer); m != nil {
		return optionIndex(letterIndex(m[1][0]), options)
	}
	for i, opt := range options {
		if strings.EqualFold(opt, answer) {
			return optionIndex(i, options)
		}
	}
	return nil
}
