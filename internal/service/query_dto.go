package service

import "wellbeing_dashboard/internal/model"

// Wire shapes of the query service. Every numeric field tolerates null,
// strings and garbage so a partially malformed payload still decodes.

type bucketCountsDTO struct {
	Green  model.Number `json:"green"`
	Yellow model.Number `json:"yellow"`
	Red    model.Number `json:"red"`
}

type overallCountsDTO struct {
	DoingWell      model.Number `json:"doingWell"`
	NeedsSupport   model.Number `json:"needsSupport"`
	NeedsAttention model.Number `json:"needsAttention"`
}

type trendPointDTO struct {
	Month    model.Text   `json:"month"`
	Week     model.Text   `json:"week"`
	Count    model.Number `json:"count"`
	AvgScore model.Number `json:"avgScore"`
}

type statsDTO struct {
	TotalStudents     model.Number `json:"totalStudents"`
	CompletedStudents model.Number `json:"completedStudents"`
	PendingStudents   model.Number `json:"pendingStudents"`
	CompletionRate    model.Number `json:"completionRate"`
	AvgScore          model.Number `json:"avgScore"`
}

type schoolDTO struct {
	ID              model.Text   `json:"_id"`
	SchoolID        model.Text   `json:"schoolId"`
	Name            model.Text   `json:"name"`
	Logo            model.Text   `json:"logo"`
	Address         model.Text   `json:"address"`
	ParentID        model.Text   `json:"parentId"`
	StudentCount    model.Number `json:"studentCount"`
	SubmissionCount model.Number `json:"submissionCount"`
	CompletionRate  model.Number `json:"completionRate"`
	Branches        []schoolDTO  `json:"branches"`
}

type overviewDTO struct {
	Totals struct {
		TotalSchools     model.Number `json:"totalSchools"`
		TotalStudents    model.Number `json:"totalStudents"`
		TotalSubmissions model.Number `json:"totalSubmissions"`
	} `json:"totals"`
	OverallDistribution overallCountsDTO           `json:"overallDistribution"`
	SkillDistribution   map[string]bucketCountsDTO `json:"skillDistribution"`
	MonthlyTrend        []trendPointDTO            `json:"monthlyTrend"`
	TopSchools          []struct {
		SchoolID        model.Text   `json:"schoolId"`
		Name            model.Text   `json:"name"`
		Logo            model.Text   `json:"logo"`
		SubmissionCount model.Number `json:"submissionCount"`
		AvgScore        model.Number `json:"avgScore"`
	} `json:"topSchools"`
	Schools    []schoolDTO `json:"schools"`
	Pagination struct {
		Page  model.Number `json:"page"`
		Limit model.Number `json:"limit"`
		Total model.Number `json:"total"`
		Pages model.Number `json:"pages"`
	} `json:"pagination"`
}

type classRollupDTO struct {
	ClassName           model.Text                 `json:"className"`
	TotalStudents       model.Number               `json:"totalStudents"`
	CompletedStudents   model.Number               `json:"completedStudents"`
	PendingStudents     model.Number               `json:"pendingStudents"`
	CompletionRate      model.Number               `json:"completionRate"`
	AvgScore            model.Number               `json:"avgScore"`
	SkillDistribution   map[string]bucketCountsDTO `json:"skillDistribution"`
	OverallDistribution overallCountsDTO           `json:"overallDistribution"`
}

type recentSubmissionDTO struct {
	ID              model.Text      `json:"_id"`
	StudentID       model.Text      `json:"studentId"`
	StudentName     model.Text      `json:"studentName"`
	Class           model.Text      `json:"class"`
	Section         model.Text      `json:"section"`
	SchoolName      model.Text      `json:"schoolName"`
	AssessmentTitle model.Text      `json:"assessmentTitle"`
	TotalScore      model.Number    `json:"totalScore"`
	SubmittedAt     model.Timestamp `json:"submittedAt"`
}

type schoolAnalyticsDTO struct {
	School            schoolDTO             `json:"school"`
	Stats             statsDTO              `json:"stats"`
	Classes           []classRollupDTO      `json:"classes"`
	RecentSubmissions []recentSubmissionDTO `json:"recentSubmissions"`
	MonthlyTrend      []trendPointDTO       `json:"monthlyTrend"`
	WeeklyTrend       []trendPointDTO       `json:"weeklyTrend"`
}

type classCatalogDTO struct {
	Classes []struct {
		ID struct {
			Class   model.Text `json:"class"`
			Section model.Text `json:"section"`
		} `json:"_id"`
	} `json:"classes"`
}

type rosterDTO struct {
	ID            model.Text                    `json:"_id"`
	Name          model.Text                    `json:"name"`
	AccessID      model.Text                    `json:"accessId"`
	Class         model.Text                    `json:"class"`
	Section       model.Text                    `json:"section"`
	RollNo        model.Text                    `json:"rollNo"`
	HasSubmission model.Flag                    `json:"hasSubmission"`
	TotalScore    model.Number                  `json:"totalScore"`
	SectionScores map[string]model.SignedNumber `json:"sectionScores"`
	SubmittedAt   model.Timestamp               `json:"submittedAt"`
}

type classAnalyticsDTO struct {
	School              schoolDTO                  `json:"school"`
	ClassName           model.Text                 `json:"className"`
	CurrentSection      model.Text                 `json:"currentSection"`
	Sections            []model.Text               `json:"sections"`
	Stats               statsDTO                   `json:"stats"`
	SkillDistribution   map[string]bucketCountsDTO `json:"skillDistribution"`
	OverallDistribution overallCountsDTO           `json:"overallDistribution"`
	Students            []rosterDTO                `json:"students"`
}

type answerDTO struct {
	QuestionIndex model.Number `json:"questionIndex"`
	Section       model.Text   `json:"section"`
	QuestionText  model.Text   `json:"questionText"`
	Options       []struct {
		Label model.Text   `json:"label"`
		Marks model.Number `json:"marks"`
	} `json:"options"`
	SelectedOptionIndex  model.SignedNumber `json:"selectedOptionIndex"`
	SelectedOptionLabel  model.Text         `json:"selectedOptionLabel"`
	Marks                model.Number       `json:"marks"`
	TimeTakenForQuestion model.Number       `json:"timeTakenForQuestion"`
}

type submissionDTO struct {
	ID                 model.Text                    `json:"_id"`
	AssessmentID       model.Text                    `json:"assessmentId"`
	AssessmentTitle    model.Text                    `json:"assessmentTitle"`
	TotalScore         model.SignedNumber            `json:"totalScore"`
	SectionScores      map[string]model.SignedNumber `json:"sectionScores"`
	PrimarySkillArea   model.Text                    `json:"primarySkillArea"`
	SecondarySkillArea model.Text                    `json:"secondarySkillArea"`
	TimeTaken          model.Number                  `json:"timeTaken"`
	MoodCheck          model.Text                    `json:"moodCheck"`
	Answers            []answerDTO                   `json:"answers"`
	SubmittedAt        model.Timestamp               `json:"submittedAt"`
}

type studentAnalyticsDTO struct {
	ID             model.Text      `json:"_id"`
	Name           model.Text      `json:"name"`
	AccessID       model.Text      `json:"accessId"`
	Class          model.Text      `json:"class"`
	Section        model.Text      `json:"section"`
	RollNo         model.Text      `json:"rollNo"`
	School         schoolDTO       `json:"school"`
	Submissions    []submissionDTO `json:"submissions"`
	AvailableTests []struct {
		ID    model.Text `json:"_id"`
		Title model.Text `json:"title"`
	} `json:"availableTests"`
}

type studentSearchDTO struct {
	Students []rosterDTO `json:"students"`
}

type testSummaryDTO struct {
	ID                    model.Text       `json:"_id"`
	Title                 model.Text       `json:"title"`
	Description           model.Text       `json:"description"`
	CreatedAt             model.Timestamp  `json:"createdAt"`
	TotalSubmissions      model.Number     `json:"totalSubmissions"`
	CompletedSubmissions  model.Number     `json:"completedSubmissions"`
	PendingSubmissions    model.Number     `json:"pendingSubmissions"`
	IncompleteSubmissions model.Number     `json:"incompleteSubmissions"`
	AvgScore              model.Number     `json:"avgScore"`
	CompletionRate        model.Number     `json:"completionRate"`
	Distribution          overallCountsDTO `json:"distribution"`
	QuestionCount         model.Number     `json:"questionCount"`
}

type testCatalogDTO struct {
	Tests      []testSummaryDTO `json:"tests"`
	TotalTests model.Number     `json:"totalTests"`
}

type testDetailDTO struct {
	Assessment testSummaryDTO `json:"assessment"`
	Stats      struct {
		TotalSubmissions  model.Number               `json:"totalSubmissions"`
		AvgScore          model.Number               `json:"avgScore"`
		Distribution      overallCountsDTO           `json:"distribution"`
		SkillDistribution map[string]bucketCountsDTO `json:"skillDistribution"`
	} `json:"stats"`
	SchoolBreakdown []struct {
		SchoolID        model.Text   `json:"schoolId"`
		Name            model.Text   `json:"name"`
		SubmissionCount model.Number `json:"submissionCount"`
		AvgScore        model.Number `json:"avgScore"`
	} `json:"schoolBreakdown"`
	RecentSubmissions []recentSubmissionDTO `json:"recentSubmissions"`
}

type apiErrorDTO struct {
	Message model.Text `json:"message"`
	Error   model.Text `json:"error"`
}
