package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldYear        = "year"
	FieldMonth       = "month"
	FieldAccountID   = "account_id"
	FieldAccountName = "account_name"
	FieldAccountType = "account_type"
	FieldCategoryID  = "category_id"
	FieldMovementID  = "movement_id"
	FieldAmountCents = "amount_cents"
	FieldUserID      = "user_id"
	FieldCount       = "count"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentCatalog = "catalog"
	ComponentLedger  = "ledger"
	ComponentBalance = "balance"
	ComponentFlow    = "flow"
	ComponentReport  = "report"
	ComponentUsers   = "users"
	ComponentStorage = "storage"
	ComponentEvents  = "events"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
	ComponentCache   = "cache"
)
