package model

// Email categories used by inbound email classification.
const (
	EmailQuery              = "Query"
	EmailDocumentSubmission = "Document Submission"
	EmailFollowUp           = "Follow-up"
	EmailAppreciation       = "Appreciation"
	EmailUrgent             = "Urgent"
	EmailGeneral            = "General"
)

// EmailCategories lists every classification category.
var EmailCategories = []string{
	EmailQuery,
	EmailDocumentSubmission,
	EmailFollowUp,
	EmailAppreciation,
	EmailUrgent,
	EmailGeneral,
}

// Fixed templates the templated-email flow can render.
const (
	TemplateNewClientOnboarding = "New Client Onboarding"
	TemplateEngagementLetter    = "Engagement Letter - Audit"
	TemplateRecurringAgreement  = "Recurring Service Agreement"
	TemplateFeeRevisionApproval = "Fee Revision Approval"
)

// EmailTemplates lists the four fixed templates.
var EmailTemplates = []string{
	TemplateNewClientOnboarding,
	TemplateEngagementLetter,
	TemplateRecurringAgreement,
	TemplateFeeRevisionApproval,
}
