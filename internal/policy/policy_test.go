package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civicdesk/helpdesk/internal/domain"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

func TestAllowed(t *testing.T) {
	assignee := "emp-1"
	ticket := &domain.Ticket{ID: "t-1", SubmittedBy: "cit-1", AssignedTo: &assignee}

	submitter := &domain.User{ID: "cit-1", Role: domain.RoleCitizen}
	employee := &domain.User{ID: "emp-1", Role: domain.RoleEmployee}
	stranger := &domain.User{ID: "emp-2", Role: domain.RoleEmployee}
	admin := &domain.User{ID: "adm-1", Role: domain.RoleAdmin}

	cases := []struct {
		name   string
		actor  *domain.User
		action Action
		want   bool
	}{
		{"submitter views", submitter, ActionView, true},
		{"submitter comments", submitter, ActionComment, true},
		{"submitter cannot update status", submitter, ActionUpdateStatus, false},
		{"submitter reopens", submitter, ActionReopen, true},
		{"submitter cannot assign", submitter, ActionAssign, false},
		{"assignee views", employee, ActionView, true},
		{"assignee comments", employee, ActionComment, true},
		{"assignee updates status", employee, ActionUpdateStatus, true},
		{"assignee cannot reopen", employee, ActionReopen, false},
		{"assignee cannot assign", employee, ActionAssign, false},
		{"stranger cannot view", stranger, ActionView, false},
		{"stranger cannot comment", stranger, ActionComment, false},
		{"stranger cannot update status", stranger, ActionUpdateStatus, false},
		{"admin views", admin, ActionView, true},
		{"admin updates status", admin, ActionUpdateStatus, true},
		{"admin reopens", admin, ActionReopen, true},
		{"admin assigns", admin, ActionAssign, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Allowed(tc.actor, ticket, tc.action))
		})
	}
}

func TestAuthorize_ErrorCodes(t *testing.T) {
	ticket := &domain.Ticket{SubmittedBy: "cit-1"}

	assert.NoError(t, Authorize(&domain.User{ID: "cit-1", Role: domain.RoleCitizen}, ticket, ActionView))
	assert.True(t, apperrors.IsCode(Authorize(&domain.User{ID: "x", Role: domain.RoleCitizen}, ticket, ActionView), apperrors.CodeForbidden))
	assert.True(t, apperrors.IsCode(Authorize(nil, ticket, ActionView), apperrors.CodeUnauthorized))
}

func TestAllowed_UnassignedTicket(t *testing.T) {
	ticket := &domain.Ticket{SubmittedBy: "cit-1"}
	assert.False(t, Allowed(&domain.User{ID: "emp-1", Role: domain.RoleEmployee}, ticket, ActionUpdateStatus))
}
