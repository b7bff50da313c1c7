package service

import (
	"context"
	"time"

	"go.uber.org/mock/gomock"

	"giyus/internal/lead/fields"
	"giyus/internal/lead/models"
	dErrors "giyus/pkg/domain-errors"
)

func (s *MockedServiceSuite) ctx() context.Context {
	return context.Background()
}

func (s *ServiceSuite) TestCreateChangeRequest() {
	lead := s.seedLead(map[string]string{fields.GiyusDate: "2025-01-01"})
	input := func() *models.ChangeRequest {
		return &models.ChangeRequest{
			LeadID:     lead.ID,
			FieldName:  fields.GiyusDate,
			OldValue:   "2025-01-01",
			NewValue:   "15/02/2025",
			ProposedBy: "recruiter-9",
			ProposedAt: fixedNow,
		}
	}

	created, err := s.service.CreateChangeRequest(s.ctx, input())
	s.Require().NoError(err)
	s.NotZero(created.ID)
	s.Equal("2025-02-15", created.NewValue, "new value is stored in canonical form")

	listed, err := s.service.ListChangeRequests(s.ctx, lead.ID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(created.ID, listed[0].ID)

	s.Run("second request for the same field conflicts", func() {
		_, err := s.service.CreateChangeRequest(s.ctx, input())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestCreateChangeRequestValidation() {
	lead := s.seedLead(nil)
	valid := models.ChangeRequest{
		LeadID:     lead.ID,
		FieldName:  fields.City,
		NewValue:   "Haifa",
		ProposedBy: "recruiter-9",
		ProposedAt: time.Now(),
	}

	tests := []struct {
		name   string
		mutate func(cr *models.ChangeRequest)
		code   dErrors.Code
	}{
		{name: "missing record id", mutate: func(cr *models.ChangeRequest) { cr.LeadID = 0 }, code: dErrors.CodeValidation},
		{name: "missing field", mutate: func(cr *models.ChangeRequest) { cr.FieldName = " " }, code: dErrors.CodeValidation},
		{name: "missing author", mutate: func(cr *models.ChangeRequest) { cr.ProposedBy = "" }, code: dErrors.CodeValidation},
		{name: "missing date", mutate: func(cr *models.ChangeRequest) { cr.ProposedAt = time.Time{} }, code: dErrors.CodeValidation},
		{name: "unknown field", mutate: func(cr *models.ChangeRequest) { cr.FieldName = "shoeSize" }, code: dErrors.CodeValidation},
		{name: "invalid value", mutate: func(cr *models.ChangeRequest) { cr.FieldName = fields.Gender; cr.NewValue = "robot" }, code: dErrors.CodeValidation},
		{name: "unknown lead", mutate: func(cr *models.ChangeRequest) { cr.LeadID = 4040 }, code: dErrors.CodeNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			cr := valid
			tt.mutate(&cr)
			_, err := s.service.CreateChangeRequest(s.ctx, &cr)
			s.True(dErrors.HasCode(err, tt.code), "got %v", err)
		})
	}

	_, err := s.service.CreateChangeRequest(s.ctx, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestListChangeRequestsForUnknownLead() {
	_, err := s.service.ListChangeRequests(s.ctx, 999)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *MockedServiceSuite) TestListChangeRequestsStorageFailure() {
	s.mockLeads.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(&models.Lead{ID: 1}, nil)
	s.mockCRs.EXPECT().ListPending(gomock.Any(), gomock.Any()).Return(nil, errStorage)

	_, err := s.service.ListChangeRequests(s.ctx(), 1)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
