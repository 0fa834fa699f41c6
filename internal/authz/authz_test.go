package authz

import "testing"

func TestAllowed(t *testing.T) {
	tests := []struct {
		name     string
		roles    []string
		relation Relation
		op       Operation
		want     bool
	}{
		{"admin can verify leads", []string{"admin"}, RelationNone, OpLeadVerify, true},
		{"admin can accept any quote", []string{"admin"}, RelationNone, OpQuoteAccept, true},
		{"homeowner cannot verify leads", []string{"homeowner"}, RelationLeadOwner, OpLeadVerify, false},
		{"contractor cannot assign leads", []string{"contractor"}, RelationAssignedContractor, OpLeadAssign, false},
		{"assigned contractor can update lead status", []string{"contractor"}, RelationAssignedContractor, OpLeadUpdateStatus, true},
		{"unassigned contractor cannot update lead status", []string{"contractor"}, RelationNone, OpLeadUpdateStatus, false},

		{"lead owner can view own lead", []string{"homeowner"}, RelationLeadOwner, OpLeadView, true},
		{"homeowner cannot view someone else's lead", []string{"homeowner"}, RelationNone, OpLeadView, false},
		{"assigned contractor can view lead", []string{"contractor"}, RelationAssignedContractor, OpLeadView, true},
		{"unassigned contractor cannot view lead", []string{"contractor"}, RelationNone, OpLeadView, false},

		{"assigned contractor can update own assignment", []string{"contractor"}, RelationAssignedContractor, OpAssignmentUpdate, true},
		{"contractor cannot update another assignment", []string{"contractor"}, RelationNone, OpAssignmentUpdate, false},
		{"homeowner cannot update assignments", []string{"homeowner"}, RelationLeadOwner, OpAssignmentUpdate, false},

		{"assigned contractor can create quote", []string{"contractor"}, RelationAssignedContractor, OpQuoteCreate, true},
		{"unassigned contractor cannot create quote", []string{"contractor"}, RelationNone, OpQuoteCreate, false},
		{"issuer can send quote", []string{"contractor"}, RelationQuoteIssuer, OpQuoteSend, true},
		{"recipient cannot send quote", []string{"homeowner"}, RelationQuoteRecipient, OpQuoteSend, false},
		{"recipient can accept quote", []string{"homeowner"}, RelationQuoteRecipient, OpQuoteAccept, true},
		{"issuer cannot accept own quote", []string{"contractor"}, RelationQuoteIssuer, OpQuoteAccept, false},
		{"recipient can reject quote", []string{"homeowner"}, RelationQuoteRecipient, OpQuoteReject, true},
		{"issuer can correct quote", []string{"contractor"}, RelationQuoteIssuer, OpQuoteCorrect, true},
		{"recipient can view quote", []string{"homeowner"}, RelationQuoteRecipient, OpQuoteView, true},
		{"stranger cannot view quote", []string{"homeowner"}, RelationNone, OpQuoteView, false},

		{"only admin manages catalog", []string{"contractor"}, RelationNone, OpCatalogManage, false},
		{"no roles denied", nil, RelationNone, OpLeadList, false},
		{"unknown operation denied", []string{"contractor"}, RelationNone, Operation("lead:delete"), false},
		{"unknown operation allowed for admin", []string{"admin"}, RelationNone, Operation("lead:delete"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.roles, tt.relation, tt.op); got != tt.want {
				t.Errorf("Allowed(%v, %q, %q) = %v, want %v", tt.roles, tt.relation, tt.op, got, tt.want)
			}
		})
	}
}
