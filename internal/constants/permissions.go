package constants

const (
	AnswerLeads      = "answer_leads"
	RecordSales      = "record_sales"
	ManageListings   = "manage_listings"
	ViewDashboard    = "view_dashboard"
	ManageUsers      = "manage_users"
	AssignRole       = "assign_role"
	ModerateProducts = "moderate_products"
	ManageSupport    = "manage_support"
	ViewOwnActivity  = "view_own_activity"
	EditOwnProfile   = "edit_own_profile"
)
