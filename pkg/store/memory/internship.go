package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/estagio/estagio/pkg/apperr"
	"github.com/estagio/estagio/pkg/model"
	"github.com/estagio/estagio/pkg/store"
)

func (s *Store) CreateInternship(ctx context.Context, internship *model.Internship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&internship.ID)
	s.stamp(&internship.CreatedAt, &internship.UpdatedAt)
	s.internships.put(internship.ID, *internship)
	return nil
}

func (s *Store) GetInternship(ctx context.Context, id uuid.UUID) (*model.Internship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	internship, ok := s.internships.get(id)
	if !ok {
		return nil, apperr.NotFound("estagio", id)
	}
	return &internship, nil
}

func (s *Store) ListInternships(ctx context.Context, filter store.InternshipFilter) ([]model.Internship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Internship, 0)
	for _, internship := range s.internships.all() {
		if filter.SupervisorID != nil && internship.SupervisorID != *filter.SupervisorID {
			continue
		}
		if filter.EmpresaID != nil && internship.EmpresaID != *filter.EmpresaID {
			continue
		}
		if filter.StatusVaga != "" && internship.StatusVaga != filter.StatusVaga {
			continue
		}
		if filter.Status != "" && internship.Status != filter.Status {
			continue
		}
		out = append(out, internship)
	}
	return out, nil
}

func (s *Store) UpdateInternship(ctx context.Context, internship *model.Internship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.internships.get(internship.ID); !ok {
		return apperr.NotFound("estagio", internship.ID)
	}
	s.stamp(nil, &internship.UpdatedAt)
	s.internships.put(internship.ID, *internship)
	return nil
}

func (s *Store) AssignStudent(ctx context.Context, internship *model.Internship, studentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.internships.get(internship.ID); !ok {
		return apperr.NotFound("estagio", internship.ID)
	}
	student, ok := s.students.get(studentID)
	if !ok {
		return apperr.NotFound("estudante", studentID)
	}
	s.stamp(nil, &internship.UpdatedAt)
	s.internships.put(internship.ID, *internship)
	id := internship.ID
	student.EstagioID = &id
	s.stamp(nil, &student.UpdatedAt)
	s.students.put(student.ID, student)
	return nil
}

func (s *Store) CreateHoursLog(ctx context.Context, entry *model.HoursLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&entry.ID)
	s.stamp(&entry.CreatedAt, nil)
	s.hours.put(entry.ID, *entry)
	return nil
}

func (s *Store) ListHoursLogs(ctx context.Context, studentID uuid.UUID) ([]model.HoursLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.HoursLog, 0)
	for _, entry := range s.hours.all() {
		if entry.EstudanteID == studentID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *Store) SumHours(ctx context.Context, studentID uuid.UUID) (float64, error) {
	entries, err := s.ListHoursLogs(ctx, studentID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, entry := range entries {
		total += entry.Quantidade
	}
	return total, nil
}
