package native

// Handle is an opaque identifier for a transient native resource such as a
// loaded configuration or an open export cursor. A handle is valid until the
// matching close call returns and may be reused by the library afterwards.
type Handle uintptr

// ErrorState exposes the thread-local last-error slot of one native
// sub-library. The values are only meaningful on the OS thread that made the
// failing call, immediately after it returned.
type ErrorState interface {
	GetLastException() string
	GetLastExceptionCode() int64
	ClearLastException()
}

// Library groups the native sub-libraries. Each accessor returns the same
// value for the lifetime of the Library.
type Library interface {
	Engine() Engine
	Config() Config
	ConfigManager() ConfigManager
	Diagnostic() Diagnostic
	Product() Product
}

// Engine mirrors the native engine entry points. Every method returns the
// native return code last; zero means success and any out-values are only
// populated on success.
type Engine interface {
	ErrorState

	Init(instanceName, settings string, verboseLogging int64) int64
	InitWithConfigID(instanceName, settings string, configID int64, verboseLogging int64) int64
	Destroy() int64
	Reinit(configID int64) int64
	PrimeEngine() int64
	GetActiveConfigID() (int64, int64)

	AddRecord(dataSourceCode, recordID, recordDefinition string) int64
	AddRecordWithInfo(dataSourceCode, recordID, recordDefinition string, flags int64) (string, int64)
	DeleteRecord(dataSourceCode, recordID string) int64
	DeleteRecordWithInfo(dataSourceCode, recordID string, flags int64) (string, int64)
	ReevaluateEntity(entityID int64, flags int64) int64
	ReevaluateEntityWithInfo(entityID int64, flags int64) (string, int64)
	ReevaluateRecord(dataSourceCode, recordID string, flags int64) int64
	ReevaluateRecordWithInfo(dataSourceCode, recordID string, flags int64) (string, int64)

	GetRecord(dataSourceCode, recordID string, flags int64) (string, int64)
	GetEntityByEntityID(entityID int64, flags int64) (string, int64)
	GetEntityByRecordID(dataSourceCode, recordID string, flags int64) (string, int64)
	SearchByAttributes(attributes, searchProfile string, flags int64) (string, int64)
	WhyEntities(entityID1, entityID2 int64, flags int64) (string, int64)
	WhyRecords(dataSourceCode1, recordID1, dataSourceCode2, recordID2 string, flags int64) (string, int64)
	HowEntityByEntityID(entityID int64, flags int64) (string, int64)
	FindPathByEntityID(startEntityID, endEntityID int64, maxDegrees int64, avoidEntityIDs, requiredDataSources string, flags int64) (string, int64)
	FindNetworkByEntityID(entityIDs string, maxDegrees, buildOutDegrees, buildOutMaxEntities int64, flags int64) (string, int64)

	CountRedoRecords() (int64, int64)
	GetRedoRecord() (string, int64)
	ProcessRedoRecord(redoRecord string) int64
	ProcessRedoRecordWithInfo(redoRecord string, flags int64) (string, int64)

	ExportJSONEntityReport(flags int64) (Handle, int64)
	ExportCSVEntityReport(csvColumnList string, flags int64) (Handle, int64)
	FetchNext(exportHandle Handle) (string, int64)
	CloseExport(exportHandle Handle) int64

	GetStats() (string, int64)
}

// Config mirrors the native configuration-document entry points. Create and
// Load hand out handles that must be released with Close.
type Config interface {
	ErrorState

	Init(instanceName, settings string, verboseLogging int64) int64
	Destroy() int64

	Create() (Handle, int64)
	Load(configDefinition string) (Handle, int64)
	Export(configHandle Handle) (string, int64)
	Close(configHandle Handle) int64

	GetDataSourceRegistry(configHandle Handle) (string, int64)
	RegisterDataSource(configHandle Handle, dataSource string) (string, int64)
	UnregisterDataSource(configHandle Handle, dataSource string) (string, int64)
}

// ConfigManager mirrors the native configuration registry entry points.
type ConfigManager interface {
	ErrorState

	Init(instanceName, settings string, verboseLogging int64) int64
	Destroy() int64

	RegisterConfig(configDefinition, configComment string) (int64, int64)
	GetConfig(configID int64) (string, int64)
	GetConfigRegistry() (string, int64)
	GetDefaultConfigID() (int64, int64)
	ReplaceDefaultConfigID(currentDefaultConfigID, newDefaultConfigID int64) int64
	SetDefaultConfigID(configID int64) int64
}

// Diagnostic mirrors the native diagnostic entry points.
type Diagnostic interface {
	ErrorState

	Init(instanceName, settings string, verboseLogging int64) int64
	InitWithConfigID(instanceName, settings string, configID int64, verboseLogging int64) int64
	Destroy() int64
	Reinit(configID int64) int64

	CheckRepositoryPerformance(secondsToRun int64) (string, int64)
	GetRepositoryInfo() (string, int64)
	GetFeature(featureID int64) (string, int64)
	PurgeRepository() int64
}

// Product mirrors the native product entry points.
type Product interface {
	ErrorState

	Init(instanceName, settings string, verboseLogging int64) int64
	Destroy() int64

	GetLicense() (string, int64)
	GetVersion() (string, int64)
}
