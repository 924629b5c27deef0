package log

// Field names shared by every component.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldCategoryID = "category_id"
	FieldExpenseID  = "expense_id"
	FieldIncomeID   = "income_id"
	FieldSourceID   = "source_id"
	FieldGoalID     = "goal_id"
	FieldAmount     = "amount"
	FieldMonth      = "month"
	FieldSlot       = "slot"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBudget    = "budget"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentTips      = "tips"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentRollover  = "rollover"
	ComponentCLI       = "cli"
)

const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpUndo     = "undo"
	OpTransfer = "transfer"
	OpAllocate = "allocate"
	OpRollover = "rollover"
	OpArchive  = "archive"
	OpImport   = "import"
	OpExport   = "export"
	OpFlush    = "flush"
	OpPublish  = "publish"
	OpSync     = "sync"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields builds structured attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithExpense adds the ids and amount of an expense. Empty ids are skipped.
func (f LogFields) WithExpense(expenseID, categoryID, sourceID string, amount any) LogFields {
	f.setNonEmpty(FieldExpenseID, expenseID)
	f.setNonEmpty(FieldCategoryID, categoryID)
	f.setNonEmpty(FieldSourceID, sourceID)
	f[FieldAmount] = amount
	return f
}

func (f LogFields) WithCategory(categoryID string) LogFields {
	f[FieldCategoryID] = categoryID
	return f
}

func (f LogFields) WithSource(sourceID string) LogFields {
	f[FieldSourceID] = sourceID
	return f
}

func (f LogFields) WithMonth(month string) LogFields {
	f[FieldMonth] = month
	return f
}

func (f LogFields) WithAmount(amount any) LogFields {
	f[FieldAmount] = amount
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f.setNonEmpty(FieldQuery, query)
	f.setNonEmpty(FieldUserAgent, userAgent)
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

func (f LogFields) setNonEmpty(key, value string) {
	if value != "" {
		f[key] = value
	}
}

// ToSlice flattens the fields into slog key/value pairs.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
