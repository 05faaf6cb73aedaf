package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserID      = "user_id"
	FieldEmail       = "email"
	FieldTxID        = "transaction_id"
	FieldTxType      = "transaction_type"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDescription = "description"
	FieldBackend     = "backend"
	FieldTimeframe   = "timeframe"
)

// Components defines standard component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentSession  = "session"
	ComponentStore    = "store"
	ComponentAuth     = "auth"
	ComponentStorage  = "storage"
	ComponentKV       = "kv"
	ComponentRemote   = "remote"
	ComponentAMQP     = "amqp"
	ComponentNotifier = "notifier"
	ComponentExport   = "export"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names.
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpRestore  = "restore"
	OpVerify   = "verify"
	OpCreate   = "create"
	OpDelete   = "delete"
	OpList     = "list"
	OpSeed     = "seed"
	OpCompute  = "compute"
	OpExport   = "export"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
