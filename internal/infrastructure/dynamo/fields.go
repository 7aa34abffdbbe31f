package dynamo

// DynamoDB attribute and index names shared by the repos and Bootstrap.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	attrUserID        = "user_id"
	attrUsername      = "username"
	attrEmail         = "email"
	attrCategoryID    = "category_id"
	attrType          = "type"
	attrNameKey       = "name_key"
	attrTransactionID = "transaction_id"
	attrDate          = "date"
	attrUpdatedAt     = "updated_at"
	attrOwnerID       = "owner_id"

	indexUsername    = "username-index"
	indexEmail       = "email-index"
	indexType        = "type-index"
	indexNameKey     = "name_key-index"
	indexUserDate    = "user_id-date-index"
	indexCategoryRef = "category_id-index"
)
