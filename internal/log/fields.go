package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldQuery        = "query"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldSuccess      = "success"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldTxID         = "transaction_id"
	FieldDocType      = "doc_type"
	FieldCounterparty = "counterparty"
	FieldBankAccount  = "bank_account"
	FieldAmountGross  = "amount_gross"
	FieldRowCount     = "rows"
	FieldSkippedRows  = "skipped_rows"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentJournal  = "journal"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentImporter = "importer"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpReplace  = "replace"
	OpSync     = "sync"
	OpValidate = "validate"
	OpImport   = "import"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
