package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acadsuite/campus-core/internal/models"
	"github.com/acadsuite/campus-core/internal/repository"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
)

type stubSectionStore struct {
	created      *models.CourseSection
	createErr    error
	updateChange *repository.SectionChange
	updateErr    error
	section      *models.CourseSection
	availability []models.SectionAvailability
}

func (s *stubSectionStore) Create(_ context.Context, section *models.CourseSection) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = section
	return nil
}

func (s *stubSectionStore) Update(_ context.Context, _ string, _ models.SectionUpdate) (*repository.SectionChange, error) {
	return s.updateChange, s.updateErr
}

func (s *stubSectionStore) FindByID(_ context.Context, _ string) (*models.CourseSection, error) {
	return s.section, nil
}

func (s *stubSectionStore) Availability(_ context.Context, _ string, _ int) ([]models.SectionAvailability, error) {
	return s.availability, nil
}

type stubCourseFinder struct {
	err error
}

func (s *stubCourseFinder) FindByID(_ context.Context, id string) (*models.Course, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Course{ID: id}, nil
}

type recordingSalaryEngine struct {
	facultyIDs []string
}

func (r *recordingSalaryEngine) RecomputeBestEffort(_ context.Context, facultyID string) {
	r.facultyIDs = append(r.facultyIDs, facultyID)
}

func strPtr(s string) *string { return &s }

func TestSectionServiceCreateAppliesDefaultCapacity(t *testing.T) {
	store := &stubSectionStore{}
	salaries := &recordingSalaryEngine{}
	svc := NewSectionService(store, &stubCourseFinder{}, salaries, nil, nil, nil, nil, 30)

	section, err := svc.Create(context.Background(), CreateSectionRequest{
		CourseID:    "c-1",
		SectionCode: "A",
		Semester:    "Fall 2026",
		Year:        2026,
	})
	require.NoError(t, err)
	require.Equal(t, 30, section.MaxCapacity)
	require.True(t, section.IsActive)
	require.Empty(t, salaries.facultyIDs)
}

func TestSectionServiceCreateWithFacultyRecomputesSalary(t *testing.T) {
	store := &stubSectionStore{}
	salaries := &recordingSalaryEngine{}
	svc := NewSectionService(store, &stubCourseFinder{}, salaries, nil, nil, nil, nil, 30)

	capacity := 25
	_, err := svc.Create(context.Background(), CreateSectionRequest{
		CourseID:    "c-1",
		FacultyID:   strPtr("f-1"),
		SectionCode: "A",
		Semester:    "Fall 2026",
		Year:        2026,
		MaxCapacity: &capacity,
	})
	require.NoError(t, err)
	require.Equal(t, 25, store.created.MaxCapacity)
	require.Equal(t, []string{"f-1"}, salaries.facultyIDs)
}

func TestSectionServiceCreateUnknownCourse(t *testing.T) {
	notFound := appErrors.Clone(appErrors.ErrNotFound, "course not found")
	svc := NewSectionService(&stubSectionStore{}, &stubCourseFinder{err: notFound}, &recordingSalaryEngine{}, nil, nil, nil, nil, 30)

	_, err := svc.Create(context.Background(), CreateSectionRequest{
		CourseID:    "missing",
		SectionCode: "A",
		Semester:    "Fall 2026",
		Year:        2026,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSectionServiceUpdateReassignmentRecomputesBothSalaries(t *testing.T) {
	store := &stubSectionStore{
		updateChange: &repository.SectionChange{
			OldFacultyID: strPtr("f-old"),
			NewFacultyID: strPtr("f-new"),
		},
		section: &models.CourseSection{ID: "sec-1"},
	}
	salaries := &recordingSalaryEngine{}
	svc := NewSectionService(store, &stubCourseFinder{}, salaries, nil, nil, nil, nil, 30)

	_, err := svc.Update(context.Background(), "sec-1", models.SectionUpdate{FacultyID: strPtr("f-new")})
	require.NoError(t, err)
	require.Equal(t, []string{"f-old", "f-new"}, salaries.facultyIDs)
}

func TestSectionServiceUpdateSameFacultyRecomputesOnce(t *testing.T) {
	store := &stubSectionStore{
		updateChange: &repository.SectionChange{
			OldFacultyID: strPtr("f-1"),
			NewFacultyID: strPtr("f-1"),
		},
		section: &models.CourseSection{ID: "sec-1"},
	}
	salaries := &recordingSalaryEngine{}
	svc := NewSectionService(store, &stubCourseFinder{}, salaries, nil, nil, nil, nil, 30)

	active := false
	_, err := svc.Update(context.Background(), "sec-1", models.SectionUpdate{IsActive: &active})
	require.NoError(t, err)
	require.Equal(t, []string{"f-1"}, salaries.facultyIDs)
}

func TestSectionServiceUpdateTeachingLimitPassesThrough(t *testing.T) {
	store := &stubSectionStore{updateErr: appErrors.ErrTeachingLimit}
	salaries := &recordingSalaryEngine{}
	svc := NewSectionService(store, &stubCourseFinder{}, salaries, nil, nil, nil, nil, 30)

	_, err := svc.Update(context.Background(), "sec-1", models.SectionUpdate{FacultyID: strPtr("f-4")})
	require.ErrorIs(t, err, appErrors.ErrTeachingLimit)
	require.Empty(t, salaries.facultyIDs)
}

func TestSectionServiceAvailabilityWithoutCache(t *testing.T) {
	store := &stubSectionStore{
		availability: []models.SectionAvailability{{SectionID: "sec-1", MaxCapacity: 30, Enrolled: 28, SeatsLeft: 2}},
	}
	svc := NewSectionService(store, &stubCourseFinder{}, &recordingSalaryEngine{}, nil, nil, nil, nil, 30)

	sections, err := svc.Availability(context.Background(), "Fall 2026", 2026)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	require.Equal(t, 2, sections[0].SeatsLeft)
}
