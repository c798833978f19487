package service

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"wellbeing_dashboard/internal/model"
)

func toBucketCounts(d bucketCountsDTO) model.BucketCounts {
	c := model.NewBucketCounts()
	c[model.BucketStable] = d.Green.Int()
	c[model.BucketEmerging] = d.Yellow.Int()
	c[model.BucketSupportNeeded] = d.Red.Int()
	return c
}

func toOverallCounts(d overallCountsDTO) model.BucketCounts {
	c := model.NewBucketCounts()
	c[model.BucketStable] = d.DoingWell.Int()
	c[model.BucketEmerging] = d.NeedsSupport.Int()
	c[model.BucketSupportNeeded] = d.NeedsAttention.Int()
	return c
}

func toDistribution(m map[string]bucketCountsDTO) model.Distribution {
	dist := model.NewDistribution()
	for key, counts := range m {
		area := model.SkillAreaKey(strings.ToUpper(strings.TrimSpace(key)))
		if !area.Valid() {
			continue
		}
		dist[area] = toBucketCounts(counts)
	}
	return dist
}

func toSectionScores(m map[string]model.SignedNumber) map[model.SkillAreaKey]float64 {
	out := make(map[model.SkillAreaKey]float64, len(m))
	for key, v := range m {
		area := model.SkillAreaKey(strings.ToUpper(strings.TrimSpace(key)))
		if !area.Valid() {
			continue
		}
		out[area] = float64(v)
	}
	return out
}

var weekLabel = regexp.MustCompile(`^W(\d{1,2})\s+(\d{4})$`)

// trendSortKey parses server period labels ("2024-03" or "W12 2024").
func trendSortKey(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if m := weekLabel.FindStringSubmatch(label); m != nil {
		week, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		return year*100 + week, true
	}
	parts := strings.SplitN(label, "-", 2)
	if len(parts) != 2 {
		return 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, false
	}
	return year*100 + month, true
}

// toTrend drops points whose period cannot be parsed and sorts the rest.
func toTrend(points []trendPointDTO) []model.TrendPoint {
	out := make([]model.TrendPoint, 0, len(points))
	for _, p := range points {
		label := string(p.Month)
		if label == "" {
			label = string(p.Week)
		}
		key, ok := trendSortKey(label)
		if !ok {
			continue
		}
		out = append(out, model.TrendPoint{
			PeriodLabel:   label,
			PeriodSortKey: key,
			AvgScore:      model.RoundTenth(p.AvgScore.Float()),
			Count:         p.Count.Int(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PeriodSortKey < out[j].PeriodSortKey
	})
	return out
}

func toStats(d statsDTO) model.CompletionStats {
	return model.CompletionStats{
		TotalStudents:     d.TotalStudents.Int(),
		CompletedStudents: d.CompletedStudents.Int(),
		PendingStudents:   d.PendingStudents.Int(),
		CompletionRate:    d.CompletionRate.Float(),
		AvgScore:          model.RoundTenth(d.AvgScore.Float()),
	}
}

func toSchoolSummary(d schoolDTO) model.SchoolSummary {
	s := model.SchoolSummary{
		ID:              string(d.ID),
		Code:            string(d.SchoolID),
		Name:            string(d.Name),
		Logo:            string(d.Logo),
		StudentCount:    d.StudentCount.Int(),
		SubmissionCount: d.SubmissionCount.Int(),
		CompletionRate:  d.CompletionRate.Float(),
		Branches:        make([]model.SchoolSummary, 0, len(d.Branches)),
	}
	for _, b := range d.Branches {
		s.Branches = append(s.Branches, toSchoolSummary(b))
	}
	return s
}

func toSchoolInfo(d schoolDTO) model.SchoolInfo {
	return model.SchoolInfo{
		ID:       string(d.ID),
		Code:     string(d.SchoolID),
		Name:     string(d.Name),
		Logo:     string(d.Logo),
		Address:  string(d.Address),
		ParentID: string(d.ParentID),
	}
}

func toRecentSubmissions(list []recentSubmissionDTO) []model.RecentSubmission {
	out := make([]model.RecentSubmission, 0, len(list))
	for _, r := range list {
		out = append(out, model.RecentSubmission{
			ID:              string(r.ID),
			StudentID:       string(r.StudentID),
			StudentName:     string(r.StudentName),
			ClassName:       string(r.Class),
			SectionName:     string(r.Section),
			SchoolName:      string(r.SchoolName),
			AssessmentTitle: string(r.AssessmentTitle),
			TotalScore:      r.TotalScore.Float(),
			SubmittedAt:     r.SubmittedAt.Time,
		})
	}
	return out
}

func toRoster(list []rosterDTO) []model.RosterEntry {
	out := make([]model.RosterEntry, 0, len(list))
	for _, r := range list {
		out = append(out, model.RosterEntry{
			ID:            string(r.ID),
			Name:          string(r.Name),
			AccessID:      string(r.AccessID),
			ClassName:     string(r.Class),
			SectionName:   string(r.Section),
			RollNo:        string(r.RollNo),
			HasSubmission: bool(r.HasSubmission),
			TotalScore:    r.TotalScore.Float(),
			SectionScores: toSectionScores(r.SectionScores),
			SubmittedAt:   r.SubmittedAt.Time,
		})
	}
	return out
}

func toNationwideOverview(d overviewDTO) *model.NationwideOverview {
	o := &model.NationwideOverview{
		Totals: model.NationwideTotals{
			Schools:     d.Totals.TotalSchools.Int(),
			Students:    d.Totals.TotalStudents.Int(),
			Submissions: d.Totals.TotalSubmissions.Int(),
		},
		Aggregates: model.AggregateView{
			SkillDistribution:   toDistribution(d.SkillDistribution),
			OverallDistribution: toOverallCounts(d.OverallDistribution),
			MonthlyTrend:        toTrend(d.MonthlyTrend),
		}.Normalize(),
		TopSchools: make([]model.SchoolRank, 0, len(d.TopSchools)),
		Schools:    make([]model.SchoolSummary, 0, len(d.Schools)),
		Pagination: model.Pagination{
			Page:  d.Pagination.Page.Int(),
			Limit: d.Pagination.Limit.Int(),
			Total: d.Pagination.Total.Int(),
			Pages: d.Pagination.Pages.Int(),
		},
	}
	for _, t := range d.TopSchools {
		o.TopSchools = append(o.TopSchools, model.SchoolRank{
			SchoolID:        string(t.SchoolID),
			Name:            string(t.Name),
			Logo:            string(t.Logo),
			SubmissionCount: t.SubmissionCount.Int(),
			AvgScore:        model.RoundTenth(t.AvgScore.Float()),
		})
	}
	for _, s := range d.Schools {
		o.Schools = append(o.Schools, toSchoolSummary(s))
	}
	return o
}

// toSchoolAnalytics derives the school-wide distributions by merging the
// per-class rollups, which is the only place the server reports them.
func toSchoolAnalytics(d schoolAnalyticsDTO) *model.SchoolAnalytics {
	a := &model.SchoolAnalytics{
		School:            toSchoolInfo(d.School),
		Stats:             toStats(d.Stats),
		Classes:           make([]model.ClassRollup, 0, len(d.Classes)),
		ClassCatalog:      []model.ClassEntry{},
		RecentSubmissions: toRecentSubmissions(d.RecentSubmissions),
	}
	skill := model.NewDistribution()
	overall := model.NewBucketCounts()
	for _, c := range d.Classes {
		rollup := model.ClassRollup{
			ClassName: string(c.ClassName),
			Stats: toStats(statsDTO{
				TotalStudents:     c.TotalStudents,
				CompletedStudents: c.CompletedStudents,
				PendingStudents:   c.PendingStudents,
				CompletionRate:    c.CompletionRate,
				AvgScore:          c.AvgScore,
			}),
			SkillDistribution:   toDistribution(c.SkillDistribution),
			OverallDistribution: toOverallCounts(c.OverallDistribution),
		}
		skill = skill.Merge(rollup.SkillDistribution)
		for _, b := range model.Buckets {
			overall[b] += rollup.OverallDistribution[b]
		}
		a.Classes = append(a.Classes, rollup)
	}
	a.Aggregates = model.AggregateView{
		SkillDistribution:   skill,
		OverallDistribution: overall,
		MonthlyTrend:        toTrend(d.MonthlyTrend),
		WeeklyTrend:         toTrend(d.WeeklyTrend),
	}.Normalize()
	return a
}

func toClassCatalog(d classCatalogDTO) []model.ClassEntry {
	out := make([]model.ClassEntry, 0, len(d.Classes))
	for _, c := range d.Classes {
		if c.ID.Class == "" {
			continue
		}
		out = append(out, model.ClassEntry{
			ClassName:   string(c.ID.Class),
			SectionName: string(c.ID.Section),
		})
	}
	return out
}

func toClassAnalytics(d classAnalyticsDTO) *model.ClassAnalytics {
	a := &model.ClassAnalytics{
		School:         toSchoolInfo(d.School),
		ClassName:      string(d.ClassName),
		CurrentSection: string(d.CurrentSection),
		Sections:       make([]string, 0, len(d.Sections)),
		Stats:          toStats(d.Stats),
		Aggregates: model.AggregateView{
			SkillDistribution:   toDistribution(d.SkillDistribution),
			OverallDistribution: toOverallCounts(d.OverallDistribution),
		}.Normalize(),
		Students: toRoster(d.Students),
	}
	for _, s := range d.Sections {
		if s != "" {
			a.Sections = append(a.Sections, string(s))
		}
	}
	return a
}

func toSubmission(d submissionDTO) model.Submission {
	sub := model.Submission{
		ID:                 string(d.ID),
		AssessmentID:       string(d.AssessmentID),
		AssessmentTitle:    string(d.AssessmentTitle),
		SubmittedAt:        d.SubmittedAt.Time,
		SectionScores:      toSectionScores(d.SectionScores),
		TotalScore:         float64(d.TotalScore),
		PrimarySkillArea:   model.SkillAreaKey(d.PrimarySkillArea),
		SecondarySkillArea: model.SkillAreaKey(d.SecondarySkillArea),
		TimeTakenSeconds:   d.TimeTaken.Int(),
		MoodCheck:          string(d.MoodCheck),
		Answers:            make([]model.Answer, 0, len(d.Answers)),
	}
	for _, a := range d.Answers {
		ans := model.Answer{
			QuestionIndex:       a.QuestionIndex.Int(),
			QuestionText:        string(a.QuestionText),
			SectionKey:          model.SkillAreaKey(a.Section),
			Options:             make([]model.AnswerOption, 0, len(a.Options)),
			SelectedOptionIndex: int(a.SelectedOptionIndex),
			SelectedOptionLabel: string(a.SelectedOptionLabel),
			Marks:               a.Marks.Float(),
			TimeTakenSeconds:    a.TimeTakenForQuestion.Int(),
		}
		for _, o := range a.Options {
			ans.Options = append(ans.Options, model.AnswerOption{Label: string(o.Label), Marks: o.Marks.Float()})
		}
		sub.Answers = append(sub.Answers, ans)
	}
	return sub
}

func toStudentAnalytics(d studentAnalyticsDTO) *model.StudentAnalytics {
	a := &model.StudentAnalytics{
		Student: model.StudentInfo{
			ID:          string(d.ID),
			Name:        string(d.Name),
			AccessID:    string(d.AccessID),
			ClassName:   string(d.Class),
			SectionName: string(d.Section),
			RollNo:      string(d.RollNo),
			School:      toSchoolInfo(d.School),
		},
		Submissions:    make([]model.Submission, 0, len(d.Submissions)),
		AvailableTests: make([]model.TestRef, 0, len(d.AvailableTests)),
	}
	for _, s := range d.Submissions {
		a.Submissions = append(a.Submissions, toSubmission(s))
	}
	for _, t := range d.AvailableTests {
		a.AvailableTests = append(a.AvailableTests, model.TestRef{ID: string(t.ID), Title: string(t.Title)})
	}
	a.Aggregates = AggregateStudent(a.Submissions)
	return a
}

func toTestSummary(d testSummaryDTO) model.TestSummary {
	return model.TestSummary{
		ID:                    string(d.ID),
		Title:                 string(d.Title),
		Description:           string(d.Description),
		CreatedAt:             d.CreatedAt.Time,
		TotalSubmissions:      d.TotalSubmissions.Int(),
		CompletedSubmissions:  d.CompletedSubmissions.Int(),
		PendingSubmissions:    d.PendingSubmissions.Int(),
		IncompleteSubmissions: d.IncompleteSubmissions.Int(),
		AvgScore:              model.RoundTenth(d.AvgScore.Float()),
		CompletionRate:        d.CompletionRate.Float(),
		Distribution:          toOverallCounts(d.Distribution),
	}
}

func toTestCatalog(d testCatalogDTO) *model.TestCatalog {
	c := &model.TestCatalog{
		Tests:      make([]model.TestSummary, 0, len(d.Tests)),
		TotalTests: d.TotalTests.Int(),
	}
	for _, t := range d.Tests {
		c.Tests = append(c.Tests, toTestSummary(t))
	}
	if c.TotalTests == 0 {
		c.TotalTests = len(c.Tests)
	}
	return c
}

func toTestDetail(d testDetailDTO) *model.TestDetail {
	t := &model.TestDetail{
		Test:          toTestSummary(d.Assessment),
		QuestionCount: d.Assessment.QuestionCount.Int(),
		Stats: model.TestStats{
			TotalSubmissions:  d.Stats.TotalSubmissions.Int(),
			AvgScore:          model.RoundTenth(d.Stats.AvgScore.Float()),
			Distribution:      toOverallCounts(d.Stats.Distribution),
			SkillDistribution: toDistribution(d.Stats.SkillDistribution),
		},
		SchoolBreakdown:   make([]model.SchoolBreakdown, 0, len(d.SchoolBreakdown)),
		RecentSubmissions: toRecentSubmissions(d.RecentSubmissions),
	}
	for _, s := range d.SchoolBreakdown {
		t.SchoolBreakdown = append(t.SchoolBreakdown, model.SchoolBreakdown{
			SchoolID:        string(s.SchoolID),
			Name:            string(s.Name),
			SubmissionCount: s.SubmissionCount.Int(),
			AvgScore:        model.RoundTenth(s.AvgScore.Float()),
		})
	}
	return t
}
