package controller

import (
	"wellbeing_dashboard/internal/model"
	"wellbeing_dashboard/internal/service"
)

type rosterView struct {
	model.RosterEntry
	Bucket         *model.Bucket                       `json:"bucket,omitempty"`
	BucketLabel    string                              `json:"bucketLabel,omitempty"`
	SectionBuckets map[model.SkillAreaKey]model.Bucket `json:"sectionBuckets,omitempty"`
}

type submissionView struct {
	ID             string                              `json:"id"`
	Bucket         model.Bucket                        `json:"bucket"`
	BucketLabel    string                              `json:"bucketLabel"`
	SectionBuckets map[model.SkillAreaKey]model.Bucket `json:"sectionBuckets"`
}

// ViewResponse is a NavigationView plus the labels of the requested
// vocabulary and buckets derived for individual records.
type ViewResponse struct {
	SessionID string `json:"sessionId"`
	model.NavigationView
	Vocabulary    model.Vocabulary        `json:"vocabulary"`
	BucketLabels  map[model.Bucket]string `json:"bucketLabels"`
	OverallLabels map[model.Bucket]string `json:"overallLabels"`
	SkillAreas    []model.SkillArea       `json:"skillAreas"`
	Roster        []rosterView            `json:"roster,omitempty"`
	Submissions   []submissionView        `json:"submissions,omitempty"`
}

func presentView(sessionID string, view model.NavigationView, vocab model.Vocabulary) ViewResponse {
	vocab = model.ParseVocabulary(string(vocab))
	resp := ViewResponse{
		SessionID:      sessionID,
		NavigationView: view,
		Vocabulary:     vocab,
		BucketLabels:   vocab.Labels(),
		OverallLabels:  model.OverallLabels(),
		SkillAreas:     model.SkillAreas,
	}
	if view.Data == nil {
		return resp
	}

	if class := view.Data.Class; class != nil {
		resp.Roster = make([]rosterView, 0, len(class.Students))
		for _, st := range class.Students {
			rv := rosterView{RosterEntry: st}
			// students without a submission have no bucket
			if st.HasSubmission {
				b := service.ClassifyOverall(st.TotalScore)
				rv.Bucket = &b
				rv.BucketLabel = model.OverallLabel(b)
				rv.SectionBuckets = service.SectionBuckets(st.SectionScores)
			}
			resp.Roster = append(resp.Roster, rv)
		}
	}

	if student := view.Data.Student; student != nil {
		resp.Submissions = make([]submissionView, 0, len(student.Submissions))
		for _, sub := range student.Submissions {
			b := service.ClassifyOverall(sub.TotalScore)
			resp.Submissions = append(resp.Submissions, submissionView{
				ID:             sub.ID,
				Bucket:         b,
				BucketLabel:    model.OverallLabel(b),
				SectionBuckets: service.SectionBuckets(sub.SectionScores),
			})
		}
	}
	return resp
}
