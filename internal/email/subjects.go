package email

const (
	subjectWelcome          = "Welcome to ServiceConnect"
	subjectPasswordReset    = "Reset your password"
	subjectProposalAccepted = "Your proposal was accepted"
	subjectReviewPromptFmt  = "How did \"%s\" go?"
	subjectServiceApproved  = "Your service listing is approved"
	subjectServiceRejected  = "Your service listing was not approved"
)
