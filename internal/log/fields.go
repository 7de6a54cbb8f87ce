package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldURL        = "url"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldErrorKind  = "error_kind"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldUsername   = "username"
	FieldExpenseID  = "expense_id"
	FieldCount      = "count"
	FieldSeq        = "seq"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentAPI        = "api"
	ComponentSession    = "session"
	ComponentCache      = "cache"
	ComponentController = "controller"
	ComponentUI         = "ui"
)

// Operations defines standard operation names
const (
	OpLogin   = "login"
	OpSignup  = "signup"
	OpLogout  = "logout"
	OpList    = "list"
	OpCreate  = "create"
	OpDelete  = "delete"
	OpRestore = "restore"
)
