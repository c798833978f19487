package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"wellbeing_dashboard/internal/model"
	"wellbeing_dashboard/internal/util"
	"wellbeing_dashboard/pkg/logger"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	SheetSummary     = "Summary"
	SheetSchools     = "Schools"
	SheetClasses     = "Classes"
	SheetStudents    = "Students"
	SheetSubmissions = "Submissions"
)

const noSubmissionLabel = "No Submission"

type ExportStore interface {
	Create(ctx context.Context, record *model.ExportRecord) error
	ListBySession(ctx context.Context, sessionID, userID string) ([]model.ExportRecord, error)
}

// ExportService writes the current scope as an xlsx workbook to object
// storage.
type ExportService struct {
	Storage StorageProvider
	Store   ExportStore
}

func NewExportService(storage StorageProvider, store ExportStore) *ExportService {
	return &ExportService{Storage: storage, Store: store}
}

// Export snapshots view with bucket labels of vocab. It fails with
// util.ErrNoScopeData when the current scope has nothing loaded.
func (s *ExportService) Export(ctx context.Context, p model.Principal, sessionID string, view model.NavigationView, vocab model.Vocabulary) (*model.ExportRecord, error) {
	if view.Data == nil {
		return nil, util.ErrNoScopeData
	}

	body, rows, err := RenderWorkbook(view, vocab)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/%s/%s.xlsx", sessionID, model.GenerateUUID())
	url, err := s.Storage.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), util.MimeXLSX)
	if err != nil {
		logger.Log.Error("Export upload failed", zap.String("session", sessionID), zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", util.ErrStorageFailed, err)
	}

	record := &model.ExportRecord{
		SessionID: sessionID,
		UserID:    p.UserID,
		Scope:     view.State.Scope.String(),
		ObjectKey: key,
		URL:       url,
		Rows:      rows,
	}
	record.ID = model.GenerateUUID()
	if err := s.Store.Create(ctx, record); err != nil {
		return nil, err
	}

	logger.Log.Info("Scope exported",
		zap.String("session", sessionID),
		zap.String("scope", record.Scope),
		zap.Int("rows", rows))
	return record, nil
}

func (s *ExportService) List(ctx context.Context, p model.Principal, sessionID string) ([]model.ExportRecord, error) {
	return s.Store.ListBySession(ctx, sessionID, p.UserID)
}

type sheetWriter struct {
	f    *excelize.File
	name string
	row  int
	data int
	err  error
}

func newSheet(f *excelize.File, name string, headerStyle int, header ...interface{}) *sheetWriter {
	w := &sheetWriter{f: f, name: name}
	if name != SheetSummary {
		if _, err := f.NewSheet(name); err != nil {
			w.err = err
			return w
		}
	}
	w.put(header)
	if w.err == nil {
		w.err = f.SetRowStyle(name, 1, 1, headerStyle)
	}
	if w.err == nil {
		last, err := excelize.ColumnNumberToName(len(header))
		if err != nil {
			w.err = err
			return w
		}
		w.err = f.SetColWidth(name, "A", last, 20)
	}
	return w
}

func (w *sheetWriter) put(values []interface{}) {
	if w.err != nil {
		return
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.name, cell, &values)
}

func (w *sheetWriter) append(values ...interface{}) {
	w.put(values)
	if w.err == nil {
		w.data++
	}
}

// RenderWorkbook writes a Summary sheet with distributions and trends plus
// one detail sheet for the records of the scope. It returns the encoded
// workbook and the number of data rows.
func RenderWorkbook(view model.NavigationView, vocab model.Vocabulary) ([]byte, int, error) {
	vocab = model.ParseVocabulary(string(vocab))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, 0, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"B993E9"}},
	})
	if err != nil {
		return nil, 0, err
	}

	summary := newSheet(f, SheetSummary, headerStyle, "Section", "Key", "Metric", "Value")
	trail := make([]string, 0, len(view.Breadcrumbs))
	for _, b := range view.Breadcrumbs {
		trail = append(trail, b.Label)
	}
	summary.append("Scope", view.State.Scope.String(), "Path", strings.Join(trail, " / "))

	agg := view.Data.Aggregates().Normalize()
	for _, area := range model.SkillAreas {
		counts := agg.SkillDistribution[area.Key]
		for _, b := range model.Buckets {
			summary.append("Skill Distribution", area.Name, vocab.Label(b), counts[b])
		}
	}
	for _, b := range model.Buckets {
		summary.append("Overall Distribution", "Total", model.OverallLabel(b), agg.OverallDistribution[b])
	}
	for _, p := range agg.MonthlyTrend {
		summary.append("Monthly Trend", p.PeriodLabel, "Average Score", p.AvgScore)
		summary.append("Monthly Trend", p.PeriodLabel, "Submissions", p.Count)
	}
	for _, p := range agg.WeeklyTrend {
		summary.append("Weekly Trend", p.PeriodLabel, "Average Score", p.AvgScore)
		summary.append("Weekly Trend", p.PeriodLabel, "Submissions", p.Count)
	}

	sheets := []*sheetWriter{summary}
	switch {
	case view.Data.Class != nil:
		sheets = append(sheets, studentSheet(f, headerStyle, view.Data.Class.Students, vocab))
	case view.Data.Student != nil:
		sheets = append(sheets, submissionSheet(f, headerStyle, view.Data.Student, vocab))
	case view.Data.School != nil:
		w := newSheet(f, SheetClasses, headerStyle, "Class", "Total Students", "Completed", "Completion Rate", "Average Score")
		for _, c := range view.Data.School.Classes {
			w.append(c.ClassName, c.Stats.TotalStudents, c.Stats.CompletedStudents, c.Stats.CompletionRate, c.Stats.AvgScore)
		}
		sheets = append(sheets, w)
	case view.Data.Nationwide != nil:
		w := newSheet(f, SheetSchools, headerStyle, "School ID", "Code", "Name", "Students", "Submissions", "Completion Rate")
		var walk func(schools []model.SchoolSummary, parent string)
		walk = func(schools []model.SchoolSummary, parent string) {
			for _, s := range schools {
				name := s.Name
				if parent != "" {
					name = parent + " / " + s.Name
				}
				w.append(s.ID, s.Code, name, s.StudentCount, s.SubmissionCount, s.CompletionRate)
				walk(s.Branches, s.Name)
			}
		}
		walk(view.Data.Nationwide.Schools, "")
		sheets = append(sheets, w)
	}

	rows := 0
	for _, w := range sheets {
		if w.err != nil {
			return nil, 0, w.err
		}
		rows += w.data
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), rows, nil
}

func skillHeaders(leading ...interface{}) []interface{} {
	header := leading
	for _, area := range model.SkillAreas {
		header = append(header, area.Name)
	}
	return header
}

// sectionCells renders "score (label)" per skill area; absent scores stay
// blank.
func sectionCells(scores map[model.SkillAreaKey]float64, vocab model.Vocabulary) []interface{} {
	cells := make([]interface{}, 0, len(model.SkillAreas))
	for _, area := range model.SkillAreas {
		score, ok := scores[area.Key]
		if !ok {
			cells = append(cells, "")
			continue
		}
		cells = append(cells, fmt.Sprintf("%s (%s)", strconv.FormatFloat(score, 'f', -1, 64), vocab.Label(Classify(score))))
	}
	return cells
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(util.TimeFormat)
}

func studentSheet(f *excelize.File, style int, students []model.RosterEntry, vocab model.Vocabulary) *sheetWriter {
	header := skillHeaders("Student Name", "Access ID", "Class", "Section", "Total Score")
	header = append(header, "Overall Status", "Submitted At")
	w := newSheet(f, SheetStudents, style, header...)

	for _, st := range students {
		row := []interface{}{st.Name, st.AccessID, st.ClassName, st.SectionName}
		if !st.HasSubmission {
			row = append(row, "")
			for range model.SkillAreas {
				row = append(row, "")
			}
			row = append(row, noSubmissionLabel, "")
			w.append(row...)
			continue
		}
		row = append(row, st.TotalScore)
		row = append(row, sectionCells(st.SectionScores, vocab)...)
		row = append(row, model.OverallLabel(ClassifyOverall(st.TotalScore)), formatTime(st.SubmittedAt))
		w.append(row...)
	}
	return w
}

func submissionSheet(f *excelize.File, style int, student *model.StudentAnalytics, vocab model.Vocabulary) *sheetWriter {
	header := skillHeaders("Student Name", "Submission ID", "Assessment", "Total Score")
	header = append(header, "Overall Status", "Time Taken (min)", "Submitted At")
	w := newSheet(f, SheetSubmissions, style, header...)

	for _, sub := range student.Submissions {
		row := []interface{}{student.Student.Name, sub.ID, sub.AssessmentTitle, sub.TotalScore}
		row = append(row, sectionCells(sub.SectionScores, vocab)...)
		minutes := math.Round(float64(sub.TimeTakenSeconds)/60*10) / 10
		row = append(row, model.OverallLabel(ClassifyOverall(sub.TotalScore)), minutes, formatTime(sub.SubmittedAt))
		w.append(row...)
	}
	return w
}
