package service

import (
	"go.uber.org/mock/gomock"

	"giyus/internal/audit"
	"giyus/internal/lead/fields"
	"giyus/internal/lead/models"
	"giyus/pkg/domain"
	dErrors "giyus/pkg/domain-errors"
	"giyus/pkg/platform/sentinel"
)

func (s *ServiceSuite) proposeCity(lead *models.Lead, city string) *models.ChangeRequest {
	_, err := s.service.ProposeUpdate(s.ctx, recruiter, lead.ID, map[string]any{fields.City: city})
	s.Require().NoError(err)
	pending, err := s.ledger.ListPending(s.ctx, lead.ID)
	s.Require().NoError(err)
	s.Require().NotEmpty(pending)
	return pending[0]
}

func (s *ServiceSuite) TestApproveAppliesNewValue() {
	lead := s.seedLead(map[string]string{fields.City: "Paris"})
	cr := s.proposeCity(lead, "Tel Aviv")

	updated, err := s.service.Approve(s.ctx, cr.ID)
	s.Require().NoError(err)
	s.Equal("Tel Aviv", updated.Value(fields.City))
	s.Equal("Tel Aviv", s.stored(lead.ID).Value(fields.City))

	pending, err := s.ledger.ListPending(s.ctx, lead.ID)
	s.Require().NoError(err)
	s.Empty(pending)

	events, err := s.events.ListByLead(s.ctx, lead.ID)
	s.Require().NoError(err)
	s.Equal(audit.ActionChangeRequestApplied, events[len(events)-1].Action)
}

func (s *ServiceSuite) TestRejectLeavesLeadUntouched() {
	lead := s.seedLead(map[string]string{fields.City: "Paris"})
	cr := s.proposeCity(lead, "Tel Aviv")

	s.Require().NoError(s.service.Reject(s.ctx, cr.ID))
	s.Equal("Paris", s.stored(lead.ID).Value(fields.City))

	pending, err := s.ledger.ListPending(s.ctx, lead.ID)
	s.Require().NoError(err)
	s.Empty(pending)

	result, err := s.service.ProposeUpdate(s.ctx, recruiter, lead.ID, map[string]any{fields.City: "Haifa"})
	s.Require().NoError(err)
	s.Equal(1, result.ChangeRequestsCreated, "field is proposable again once resolved")
}

// TestApproveOverwritesNewerValue documents that approval has no staleness
// check: a direct edit made after the proposal is overwritten.
func (s *ServiceSuite) TestApproveOverwritesNewerValue() {
	lead := s.seedLead(map[string]string{fields.City: "Paris"})
	cr := s.proposeCity(lead, "Tel Aviv")

	_, err := s.service.ProposeUpdate(s.ctx, manager, lead.ID, map[string]any{fields.City: "Eilat"})
	s.Require().NoError(err)

	_, err = s.service.Approve(s.ctx, cr.ID)
	s.Require().NoError(err)
	s.Equal("Tel Aviv", s.stored(lead.ID).Value(fields.City))
}

func (s *ServiceSuite) TestResolveUnknownRequest() {
	_, err := s.service.Approve(s.ctx, domain.ChangeRequestID(77))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.service.Reject(s.ctx, domain.ChangeRequestID(77))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestResolveDispatch() {
	lead := s.seedLead(map[string]string{fields.City: "Paris"})
	cr := s.proposeCity(lead, "Tel Aviv")

	updated, err := s.service.Resolve(s.ctx, cr.ID, models.OutcomeApplied)
	s.Require().NoError(err)
	s.Equal("Tel Aviv", updated.Value(fields.City))

	cr = s.proposeCity(lead, "Haifa")
	updated, err = s.service.Resolve(s.ctx, cr.ID, models.OutcomeRejected)
	s.Require().NoError(err)
	s.Nil(updated)

	_, err = s.service.Resolve(s.ctx, cr.ID, models.Outcome("maybe"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *MockedServiceSuite) TestApproveWithMissingLeadKeepsRequestPending() {
	cr := &models.ChangeRequest{ID: 3, LeadID: 8, FieldName: fields.City, NewValue: "Haifa"}
	s.mockCRs.EXPECT().FindByID(gomock.Any(), cr.ID).Return(cr, nil)
	s.mockLeads.EXPECT().FindByID(gomock.Any(), cr.LeadID).Return(nil, sentinel.ErrNotFound)
	// No UpdateFields and no Resolve.

	_, err := s.service.Approve(s.ctx(), cr.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	var de *dErrors.Error
	s.Require().ErrorAs(err, &de)
	s.Equal("lead not found", de.Message)
}

func (s *MockedServiceSuite) TestApproveWriteFailureKeepsRequestPending() {
	cr := &models.ChangeRequest{ID: 3, LeadID: 8, FieldName: fields.City, NewValue: "Haifa"}
	s.mockCRs.EXPECT().FindByID(gomock.Any(), cr.ID).Return(cr, nil)
	s.mockLeads.EXPECT().FindByID(gomock.Any(), cr.LeadID).Return(&models.Lead{ID: 8, Fields: map[string]string{}}, nil)
	s.mockLeads.EXPECT().UpdateFields(gomock.Any(), domain.LeadID(8), map[string]string{fields.City: "Haifa"}, gomock.Any()).Return(errStorage)

	_, err := s.service.Approve(s.ctx(), cr.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
