package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldRecordID    = "record_id"
	FieldItem        = "item"
	FieldCategory    = "category"
	FieldPayer       = "payer"
	FieldAmountCents = "amount_cents"
	FieldSeq         = "seq"
	FieldCount       = "count"
	FieldBackend     = "backend"
	FieldSheetsRef   = "sheets_ref"
	FieldDuration    = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentDocs    = "docstore"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSettle   = "settle"
	OpSnapshot = "snapshot"
	OpExport   = "export"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeConflict      = "conflict_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds the error message and its category.
func (f LogFields) WithError(err error, errType string) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = errType
	}
	return f
}

func (f LogFields) WithRecordID(id string) LogFields {
	f[FieldRecordID] = id
	return f
}

// WithRecord adds the descriptive fields of a record.
func (f LogFields) WithRecord(item, category, payer string, amountCents int64) LogFields {
	f[FieldItem] = item
	f[FieldCategory] = category
	f[FieldPayer] = payer
	f[FieldAmountCents] = amountCents
	return f
}

func (f LogFields) WithSeq(seq uint64) LogFields {
	f[FieldSeq] = seq
	return f
}

func (f LogFields) WithSheetsRef(ref string) LogFields {
	f[FieldSheetsRef] = ref
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
