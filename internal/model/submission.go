package model

import "time"

// Submission is one completed check-in. Values are never mutated after the
// fetch that produced them.
type Submission struct {
	ID                 string                   `json:"id"`
	AssessmentID       string                   `json:"assessmentId"`
	AssessmentTitle    string                   `json:"assessmentTitle"`
	SubmittedAt        time.Time                `json:"submittedAt"`
	SectionScores      map[SkillAreaKey]float64 `json:"sectionScores"`
	TotalScore         float64                  `json:"totalScore"`
	PrimarySkillArea   SkillAreaKey             `json:"primarySkillArea,omitempty"`
	SecondarySkillArea SkillAreaKey             `json:"secondarySkillArea,omitempty"`
	TimeTakenSeconds   int                      `json:"timeTakenSeconds"`
	MoodCheck          string                   `json:"moodCheck,omitempty"`
	Answers            []Answer                 `json:"answers"`
}

func (s Submission) HasSubmittedAt() bool {
	return !s.SubmittedAt.IsZero()
}

type AnswerOption struct {
	Label string  `json:"label"`
	Marks float64 `json:"marks"`
}

type Answer struct {
	QuestionIndex       int            `json:"questionIndex"`
	QuestionText        string         `json:"questionText"`
	SectionKey          SkillAreaKey   `json:"sectionKey"`
	Options             []AnswerOption `json:"options"`
	SelectedOptionIndex int            `json:"selectedOptionIndex"`
	SelectedOptionLabel string         `json:"selectedOptionLabel,omitempty"`
	Marks               float64        `json:"marks"`
	TimeTakenSeconds    int            `json:"timeTakenSeconds"`
}
