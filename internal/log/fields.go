package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldCardID      = "card_id"
	FieldCategoryID  = "category_id"
	FieldTxID        = "transaction_id"
	FieldTxKind      = "transaction_kind"
	FieldReceiptID   = "receipt_id"
	FieldAmountCents = "amount_cents"
	FieldPaymentDate = "payment_date"
	FieldPeriodStart = "period_start"
	FieldPeriodEnd   = "period_end"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentVision   = "vision"
	ComponentBilling  = "billing"
	ComponentReceipts = "receipts"
	ComponentCache    = "cache"
	ComponentExport   = "export"
	ComponentCLI      = "cli"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpProject  = "project"
	OpAnalyze  = "analyze"
	OpExport   = "export"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
