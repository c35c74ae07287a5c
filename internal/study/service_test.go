package study

import (
	"context"
	"errors"
	"testing"
	"time"

	"studyhub-backend/internal/chats"
	"studyhub-backend/internal/documents"
)

func newTestStudyService() (*Service, chats.Repo, documents.Repo) {
	chatRepo := chats.NewMemoryRepo()
	docRepo := documents.NewMemoryRepo()
	svc := &Service{
		Repo:      NewMemoryRepo(),
		Chats:     chatRepo,
		Documents: docRepo,
	}
	return svc, chatRepo, docRepo
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _, _ := newTestStudyService()

	session, err := svc.Create(context.Background(), "user-1", CreateInput{
		Title:   "Midterm prep",
		Subject: "biology",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if session.Settings.Difficulty != DifficultyMedium || session.Settings.StudyMode != ModeReading {
		t.Fatalf("unexpected defaults: %+v", session.Settings)
	}
	if !session.IsActive {
		t.Fatal("new sessions start active")
	}
	if session.Progress.CompletedTopics == nil || session.Progress.StudyGoals == nil {
		t.Fatal("progress slices must be initialized")
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, _ := newTestStudyService()

	cases := []CreateInput{
		{Title: "", Subject: "math"},
		{Title: "ok", Subject: ""},
		{Title: "ok", Subject: "math", Difficulty: "expert"},
		{Title: "ok", Subject: "math", StudyMode: "cramming"},
	}
	for i, in := range cases {
		if _, err := svc.Create(context.Background(), "user-1", in); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestUpdateProgressAddsTime(t *testing.T) {
	svc, _, _ := newTestStudyService()
	session, err := svc.Create(context.Background(), "user-1", CreateInput{Title: "t", Subject: "math"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateProgress(context.Background(), "user-1", session.ID, ProgressUpdate{TimeSpent: 30}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	topic := "algebra"
	progress, err := svc.UpdateProgress(context.Background(), "user-1", session.ID, ProgressUpdate{
		TimeSpent:       15,
		CurrentTopic:    &topic,
		CompletedTopics: []string{"arithmetic"},
	})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if progress.TimeSpent != 45 {
		t.Fatalf("expected time accumulated to 45, got %d", progress.TimeSpent)
	}
	if progress.CurrentTopic != "algebra" || len(progress.CompletedTopics) != 1 {
		t.Fatalf("unexpected progress: %+v", progress)
	}
}

func TestUpdateProgressRejectsNegativeTime(t *testing.T) {
	svc, _, _ := newTestStudyService()
	session, _ := svc.Create(context.Background(), "user-1", CreateInput{Title: "t", Subject: "math"})

	if _, err := svc.UpdateProgress(context.Background(), "user-1", session.ID, ProgressUpdate{TimeSpent: -5}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdateProgressReplacesGoals(t *testing.T) {
	svc, _, _ := newTestStudyService()
	session, _ := svc.Create(context.Background(), "user-1", CreateInput{Title: "t", Subject: "math"})

	due := time.Now().UTC().Add(48 * time.Hour)
	progress, err := svc.UpdateProgress(context.Background(), "user-1", session.ID, ProgressUpdate{
		StudyGoals: []StudyGoal{
			{Goal: "finish chapter 3", DueDate: &due},
			{Goal: "review flashcards", Completed: true},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(progress.StudyGoals) != 2 || progress.StudyGoals[0].Goal != "finish chapter 3" {
		t.Fatalf("unexpected goals: %+v", progress.StudyGoals)
	}
	if !progress.StudyGoals[1].Completed || progress.StudyGoals[0].DueDate == nil {
		t.Fatalf("goal fields lost: %+v", progress.StudyGoals)
	}

	_, err = svc.UpdateProgress(context.Background(), "user-1", session.ID, ProgressUpdate{
		StudyGoals: []StudyGoal{{Goal: "   "}},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank goal, got %v", err)
	}
}

func TestAttachDocumentIdempotent(t *testing.T) {
	svc, _, docRepo := newTestStudyService()
	session, _ := svc.Create(context.Background(), "user-1", CreateInput{Title: "t", Subject: "math"})
	doc := documents.Document{
		ID:               "d1",
		UserID:           "user-1",
		OriginalName:     "notes.pdf",
		MimeType:         "application/pdf",
		Tags:             []string{},
		ProcessingStatus: documents.StatusCompleted,
		UploadDate:       time.Now().UTC(),
	}
	if err := docRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed doc: %v", err)
	}

	count, err := svc.AttachDocument(context.Background(), "user-1", session.ID, "d1")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 attachment, got %d", count)
	}

	count, err = svc.AttachDocument(context.Background(), "user-1", session.ID, "d1")
	if err != nil {
		t.Fatalf("second attach: %v", err)
	}
	if count != 1 {
		t.Fatalf("repeat attach must not duplicate, got %d", count)
	}
}

func TestAttachDocumentChecksOwnership(t *testing.T) {
	svc, _, docRepo := newTestStudyService()
	session, _ := svc.Create(context.Background(), "user-1", CreateInput{Title: "t", Subject: "math"})

	if _, err := svc.AttachDocument(context.Background(), "user-1", "missing", "d1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected session ErrNotFound, got %v", err)
	}

	otherDoc := documents.Document{
		ID:           "d2",
		UserID:       "user-2",
		OriginalName: "other.pdf",
		Tags:         []string{},
		UploadDate:   time.Now().UTC(),
	}
	if err := docRepo.Create(context.Background(), otherDoc); err != nil {
		t.Fatalf("seed doc: %v", err)
	}
	if _, err := svc.AttachDocument(context.Background(), "user-1", session.ID, "d2"); !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected document ErrNotFound, got %v", err)
	}
}

func TestAnalyticsEmptyWindowReportsZeros(t *testing.T) {
	svc, _, _ := newTestStudyService()

	analytics, err := svc.AnalyticsFor(context.Background(), "user-1", "7d")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if analytics.Period != "7d" {
		t.Fatalf("expected period 7d, got %s", analytics.Period)
	}
	stats := analytics.StudyStats
	if stats.TotalSessions != 0 || stats.AverageSessionTime != 0 || stats.TotalStudyTime != 0 {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
	if analytics.ActivityStats.TotalChats != 0 || analytics.ActivityStats.DocumentsUploaded != 0 {
		t.Fatalf("expected zeroed activity, got %+v", analytics.ActivityStats)
	}
}

func TestAnalyticsUnknownPeriodFallsBack(t *testing.T) {
	svc, _, _ := newTestStudyService()

	analytics, err := svc.AnalyticsFor(context.Background(), "user-1", "90d")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if analytics.Period != "7d" {
		t.Fatalf("expected fallback to 7d, got %s", analytics.Period)
	}
}

func TestAnalyticsAggregatesActivity(t *testing.T) {
	svc, chatRepo, docRepo := newTestStudyService()
	ctx := context.Background()

	s1, _ := svc.Create(ctx, "user-1", CreateInput{Title: "a", Subject: "math"})
	if _, err := svc.Create(ctx, "user-1", CreateInput{Title: "b", Subject: "math"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	s3, _ := svc.Create(ctx, "user-1", CreateInput{Title: "c", Subject: "physics"})
	inactive := false
	if _, err := svc.Update(ctx, "user-1", s3.ID, SessionUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.UpdateProgress(ctx, "user-1", s1.ID, ProgressUpdate{TimeSpent: 90}); err != nil {
		t.Fatalf("progress: %v", err)
	}

	now := time.Now().UTC()
	chatSeed := []chats.Chat{
		{ID: "c1", UserID: "user-1", Type: chats.TypeQuestion, Tags: []string{}, CreatedAt: now},
		{ID: "c2", UserID: "user-1", Type: chats.TypeQuestion, Tags: []string{}, CreatedAt: now},
		{ID: "c3", UserID: "user-1", Type: chats.TypeQuiz, Tags: []string{}, CreatedAt: now},
		// outside the window
		{ID: "c4", UserID: "user-1", Type: chats.TypeQuiz, Tags: []string{}, CreatedAt: now.Add(-8 * 24 * time.Hour)},
	}
	for _, chat := range chatSeed {
		if err := chatRepo.Create(ctx, chat); err != nil {
			t.Fatalf("seed chat: %v", err)
		}
	}
	if err := docRepo.Create(ctx, documents.Document{
		ID: "d1", UserID: "user-1", OriginalName: "notes.pdf",
		Tags: []string{}, UploadDate: now,
	}); err != nil {
		t.Fatalf("seed doc: %v", err)
	}

	analytics, err := svc.AnalyticsFor(ctx, "user-1", "7d")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	stats := analytics.StudyStats
	if stats.TotalSessions != 3 || stats.ActiveSessions != 2 {
		t.Fatalf("unexpected session stats: %+v", stats)
	}
	if stats.TotalStudyTime != 90 || stats.AverageSessionTime != 30 {
		t.Fatalf("unexpected time stats: %+v", stats)
	}
	if analytics.Subjects["math"] != 2 || analytics.Subjects["physics"] != 1 {
		t.Fatalf("unexpected subjects: %+v", analytics.Subjects)
	}
	activity := analytics.ActivityStats
	if activity.TotalChats != 3 || activity.ChatsByType["question"] != 2 || activity.ChatsByType["quiz"] != 1 {
		t.Fatalf("unexpected chat stats: %+v", activity)
	}
	if activity.DocumentsUploaded != 1 {
		t.Fatalf("expected 1 document, got %d", activity.DocumentsUploaded)
	}
}
