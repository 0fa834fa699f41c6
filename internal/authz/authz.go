// Package authz centralizes the authorization rules for leads, assignments,
// and quotes. Services ask a single question: may this caller perform this
// operation given their relation to the resource?
package authz

// Role is an account role as stored on the user record.
type Role string

const (
	RoleHomeowner  Role = "homeowner"
	RoleContractor Role = "contractor"
	RoleAdmin      Role = "admin"
)

// Operation identifies a guarded action.
type Operation string

const (
	OpLeadView         Operation = "lead:view"
	OpLeadList         Operation = "lead:list"
	OpLeadVerify       Operation = "lead:verify"
	OpLeadAssign       Operation = "lead:assign"
	OpLeadUpdateStatus Operation = "lead:update-status"
	OpLeadInvalidate   Operation = "lead:invalidate"

	OpAssignmentList   Operation = "assignment:list"
	OpAssignmentUpdate Operation = "assignment:update"

	OpQuoteCreate  Operation = "quote:create"
	OpQuoteView    Operation = "quote:view"
	OpQuoteList    Operation = "quote:list"
	OpQuoteSend    Operation = "quote:send"
	OpQuoteAccept  Operation = "quote:accept"
	OpQuoteReject  Operation = "quote:reject"
	OpQuoteCorrect Operation = "quote:correct"

	OpCatalogManage Operation = "catalog:manage"
)

// Relation describes how the caller relates to the specific resource.
// Callers with no special relation pass RelationNone.
type Relation string

const (
	RelationNone               Relation = "none"
	RelationLeadOwner          Relation = "lead-owner"
	RelationAssignedContractor Relation = "assigned-contractor"
	RelationQuoteIssuer        Relation = "quote-issuer"
	RelationQuoteRecipient     Relation = "quote-recipient"
)

type rule struct {
	role     Role
	relation Relation // RelationNone means the role alone is enough
}

// rules is the single source of truth. An operation absent from the table is
// denied for everyone except admins.
var rules = map[Operation][]rule{
	OpLeadView: {
		{role: RoleHomeowner, relation: RelationLeadOwner},
		{role: RoleContractor, relation: RelationAssignedContractor},
	},
	OpLeadList:         {{role: RoleHomeowner}, {role: RoleContractor}},
	OpLeadVerify:       {},
	OpLeadAssign:       {},
	OpLeadUpdateStatus: {{role: RoleContractor, relation: RelationAssignedContractor}},
	OpLeadInvalidate:   {},

	OpAssignmentList:   {{role: RoleContractor}},
	OpAssignmentUpdate: {{role: RoleContractor, relation: RelationAssignedContractor}},

	OpQuoteCreate: {{role: RoleContractor, relation: RelationAssignedContractor}},
	OpQuoteView: {
		{role: RoleContractor, relation: RelationQuoteIssuer},
		{role: RoleHomeowner, relation: RelationQuoteRecipient},
	},
	OpQuoteList:    {{role: RoleContractor}},
	OpQuoteSend:    {{role: RoleContractor, relation: RelationQuoteIssuer}},
	OpQuoteAccept:  {{role: RoleHomeowner, relation: RelationQuoteRecipient}},
	OpQuoteReject:  {{role: RoleHomeowner, relation: RelationQuoteRecipient}},
	OpQuoteCorrect: {{role: RoleContractor, relation: RelationQuoteIssuer}},

	OpCatalogManage: {},
}

// Allowed reports whether a caller holding the given roles, with the given
// relation to the resource, may perform the operation. Admins may perform
// every operation regardless of relation.
func Allowed(roles []string, relation Relation, op Operation) bool {
	for _, r := range roles {
		if Role(r) == RoleAdmin {
			return true
		}
	}

	candidates, ok := rules[op]
	if !ok {
		return false
	}

	for _, candidate := range candidates {
		if !hasRole(roles, candidate.role) {
			continue
		}
		if candidate.relation == RelationNone || candidate.relation == relation {
			return true
		}
	}
	return false
}

func hasRole(roles []string, want Role) bool {
	for _, r := range roles {
		if Role(r) == want {
			return true
		}
	}
	return false
}
