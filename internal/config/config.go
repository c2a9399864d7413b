package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Baby-Bloom/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Baby Bloom"
	AppID             = "com.github.tricolor-initiatives.baby-bloom"
	KeyringService    = "com.github.tricolor-initiatives.baby-bloom"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	CommandName       = "baby-bloom"

	DefaultConfigPath = "~/.baby-bloom/config.yaml"
	DefaultDBPath     = "~/.baby-bloom/bloom.db"
	EnvPrefix         = "BLOOM_"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagConfig       = "config"
	FlagDebug        = "debug"
	FlagDescConfig   = "Path to the YAML configuration file"
	FlagDescDebug    = "Enable debug logging to stdout"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Storage Keys
// -----------------------------------------------------------------------------

// Reminder collections.
const (
	KeyScheduledReminders = "baby-bloom-scheduled-reminders"
	KeySyncedReminders    = "baby-bloom-synced-reminders"
	KeyManualReminders    = "baby-bloom-reminders"
)

// Domain records and per-feature settings consumed by the synchronizers.
const (
	KeyFeedings        = "baby-bloom-feedings"
	KeyDiapers         = "baby-bloom-diapers"
	KeyFeedingSettings = "baby-bloom-feeding-reminder-settings"
	KeyDiaperSettings  = "baby-bloom-diaper-reminder-settings"
	KeySleepSettings   = "baby-bloom-sleep-reminder-settings"
	KeyVaccinations    = "baby-bloom-vaccinations"
	KeyMedications     = "baby-bloom-medications"
	KeyAppointments    = "baby-bloom-appointments"
	KeyProfile         = "baby-bloom-baby-profile"
)

// Storage backends selectable from settings.
const (
	BackendSQLite      = "sqlite"
	BackendPreferences = "preferences"

	SQLiteDriver = "sqlite"
	SQLitePragma = "PRAGMA journal_mode=WAL"
)

// SignalRemindersSynced is broadcast whenever a synchronizer completes.
const SignalRemindersSynced = "reminders-synced"

// -----------------------------------------------------------------------------
// Reminder Model
// -----------------------------------------------------------------------------

// Source types owning synced reminders.
const (
	SourceFeeding     = "feeding"
	SourceDiaper      = "diaper"
	SourceSleep       = "sleep"
	SourceVaccination = "vaccination"
	SourceMedication  = "medication"
	SourceAppointment = "appointment"
	SourceManual      = "manual"
)

// Fixed source slots.
const (
	SlotNextFeeding = "next-feeding"
	SlotNextDiaper  = "next-diaper"
	SlotNap         = "nap-daily"
	SlotBedtime     = "bedtime-daily"

	FormatSyncedID  = "synced-%s-%s"
	FormatMedSlot   = "%s-%s"
	FormatApptSlot  = "%s-%s"
	FormatHours     = "%.1f"
	FormatLeadHours = "%dh"
	FormatLeadMins  = "%dm"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	// AdaptiveMinEvents is the number of recent events the estimator needs.
	AdaptiveMinEvents = 4
	AdaptiveMinHours  = 2.0
	AdaptiveMaxHours  = 4.0

	DefaultFeedingIntervalHours = 3.0
	DefaultDiaperIntervalHours  = 3.0
	DefaultNapTime              = "13:00"
	DefaultBedtime              = "19:30"

	VaccineLeadDays     = 7
	VaccineLastCallDays = 1
	VaccineReminderHour = 9

	DefaultCheckInterval    = 60 * time.Second
	DefaultCatchUpWindow    = 15 * time.Minute
	NotificationAutoDismiss = 10 * time.Second
	DefaultResyncMin        = 60
	DisabledInterval        = 0
	DefaultLanguage         = "en"
	DefaultAlarmTrigger     = "-PT0M"
)

// Notification permission states.
const (
	PermissionGranted     = "granted"
	PermissionDenied      = "denied"
	PermissionDefault     = "default"
	PermissionUnsupported = "unsupported"
)

// SupportedLanguages defines the list of available languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Preferences (tray app)
// -----------------------------------------------------------------------------

const (
	PrefLanguage       = "language"
	PrefResyncInterval = "resync_interval_min"
	PrefLastRun        = "last_run_version"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyFeedingTitle     = "reminder_feeding_title"
	TKeyFeedingBody      = "reminder_feeding_body"
	TKeyDiaperTitle      = "reminder_diaper_title"
	TKeyDiaperBody       = "reminder_diaper_body"
	TKeyNapTitle         = "reminder_nap_title"
	TKeyNapBody          = "reminder_nap_body"
	TKeyBedtimeTitle     = "reminder_bedtime_title"
	TKeyBedtimeBody      = "reminder_bedtime_body"
	TKeyVaccineTitle     = "reminder_vaccine_title"     // Requires Name
	TKeyVaccineBody      = "reminder_vaccine_body"      // Requires Date
	TKeyMedicationTitle  = "reminder_medication_title"  // Requires Name
	TKeyMedicationBody   = "reminder_medication_body"   // Requires Dosage, Time
	TKeyAppointmentTitle = "reminder_appointment_title" // Requires Title
	TKeyAppointmentBody  = "reminder_appointment_body"  // Requires Lead

	TKeyTrayStatus     = "tray_status"      // Requires Count > 0
	TKeyTrayStatusZero = "tray_status_zero" // Explicit key for 0
	TKeyMenuReminders  = "menu_reminders"
	TKeyMenuSync       = "menu_sync"
	TKeyWinReminders   = "win_reminders_title"
	TKeyColTitle       = "col_title"
	TKeyColDue         = "col_due"
	TKeyColCategory    = "col_category"
	TKeyDueNow         = "due_now"
	TKeyFormatDateTime = "format_date_time"
	TKeyNotifSyncDone  = "notif_sync_done"
	TKeyNotifSyncError = "notif_sync_error"

	TKeyMenuSettings  = "menu_settings"
	TKeyWinSettings   = "win_settings_title"
	TKeyLblGeneral    = "lbl_general"
	TKeyLblLanguage   = "lbl_language"
	TKeyLblResync     = "lbl_resync"
	TKeyHelpResync    = "help_resync"
	TKeyLblMinutes    = "lbl_minutes"
	TKeyLblFeeding    = "lbl_feeding"
	TKeyLblDiaper     = "lbl_diaper"
	TKeyLblSleep      = "lbl_sleep"
	TKeyLblEnabled    = "lbl_enabled"
	TKeyLblAdaptive   = "lbl_adaptive"
	TKeyLblEveryHours = "lbl_every_hours"
	TKeyLblNap        = "lbl_nap"
	TKeyLblBedtime    = "lbl_bedtime"
	TKeyBtnSave       = "btn_save"
	TKeyBtnCancel     = "btn_cancel"
	TKeyLblFooter     = "lbl_footer" // Requires Version
)

// -----------------------------------------------------------------------------
// UI Reminders Window Constants
// -----------------------------------------------------------------------------

const (
	RemindersWinWidth  = 560
	RemindersWinHeight = 420

	ColIDTitle    = 0
	ColIDDue      = 1
	ColIDCategory = 2
	ColCount      = 3

	ColWidthTitle    = 280
	ColWidthDue      = 150
	ColWidthCategory = 110

	DateTimeFormatDisplay = "2006-01-02 15:04"
	TablePlaceholder      = "Cell Content"
	LogMsgOpenWin         = "Opening reminders window"
	LogMsgSorted          = "Reminders table sorted"
	SortIconAsc           = " ▲"
	SortIconDesc          = " ▼"
	CompletedMark         = "✓ "

	SettingsWindowWidth = 420
	LayoutColumnsDouble = 2
	IconFile            = "Icon.png"
	HoursEntryWidthHint = "3.0"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	ICalVersion   = "2.0"
	ICalProdid    = "-//Baby Bloom//Reminders//EN"
	ICalCalName   = "Baby Bloom"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "babybloom"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropCategories  = "CATEGORIES"
	PropStatus      = "STATUS"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	StatusCompleted = "COMPLETED"

	VCardBDAY = "BDAY"
	VCardFN   = "FN"

	FormatUID          = "%s@%s"
	DefaultICalRefresh = 1 * time.Hour
	FeedHistory        = 30 * 24 * time.Hour

	// StubVCalendar is the minimal valid iCalendar object used when no reminders exist.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Data Formats & Limits
// -----------------------------------------------------------------------------

const (
	// Date layouts used for parsing vCard BDAY fields
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"
	DefaultLeapYear     = 2000

	TimeOfDayLayout = "15:04"
	DateLayout      = "2006-01-02"

	FallbackName = "Baby"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	DefaultPort         = "18081"
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 1 * 1024 * 1024 // vCards of a single profile stay tiny
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteRoot           = "/"
	FeedFileName        = "reminders.ics"
	RouteMetrics        = "/metrics"

	TelegramAPIBase     = "https://api.telegram.org"
	TelegramParseMode   = "HTML"
	FormatTelegramURL   = "%s/bot%s/sendMessage"
	FormatTelegramText  = "%s <b>%s</b>\n%s"
	MCPServerName       = "baby-bloom"
	StatusPending       = "pending"
	StatusDone          = "completed"
	MaxCLIListLineWidth = 80
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType  = "Content-Type"
	HeaderCacheControl = "Cache-Control"
	HeaderETag         = "ETag"
	HeaderRetryAfter   = "Retry-After"
	HeaderAllow        = "Allow"
	HeaderXContentType = "X-Content-Type-Options"
	HeaderUserAgent    = "User-Agent"
	HeaderAccept       = "Accept"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json"
	MimeNoSniff         = "nosniff"
	AcceptVCard         = "text/vcard, text/x-vcard;q=0.9, text/directory;q=0.8, text/plain;q=0.5"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrLocalPathEmpty   = "configuration error: local path is empty"
	ErrFetcherMissing   = "internal error: network fetcher is not initialized"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrNoBirthday       = "no vCard with a birthday found"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrDateParse        = "unable to parse date"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrTrayNotSupported = "system tray not supported on this platform/driver"
	ErrStorageOpen      = "failed to open storage"
	ErrStorageRead      = "failed to read storage key"
	ErrStorageWrite     = "failed to write storage key"
	ErrStorageDecode    = "corrupt JSON in storage key, treating as empty"
	ErrStorageEncode    = "failed to encode storage value"
	ErrBackendUnknown   = "configuration error: unknown storage backend"
	ErrConfigDefaults   = "failed to load defaults"
	ErrConfigFile       = "failed to load config file"
	ErrConfigEnv        = "failed to load env vars"
	ErrProfileImport    = "profile import failed"
	ErrRemoteStatus     = "server returned unexpected status"
	ErrNotVCard         = "server did not return a vCard"
	ErrVCardTooLarge    = "vCard exceeds the download limit"
	ErrConfigUnmarshal  = "failed to unmarshal config"
	ErrConfigInvalid    = "invalid configuration"
	ErrReminderNotFound = "reminder not found"
	ErrReminderReadOnly = "synced reminders are read-only"
	ErrDueInPast        = "reminder due time is not in the future"
	ErrMissingFields    = "reminder is missing id, title or due time"
	ErrSyncFailed       = "synchronization failed"
	ErrNotifyFailed     = "notification delivery failed"
	ErrTelegramAPI      = "telegram API error"
	ErrTelegramConfig   = "telegram chat id and bot token are required"
	ErrKeyringLookup    = "bot token not found in keyring"
	ErrUnknownVaccine   = "unknown vaccine id"
	ErrInvalidTime      = "invalid time of day (use HH:MM)"
	ErrCheckInterval    = "scheduler check interval must be positive"
	ErrRecordNotFound   = "record not found"
	ErrMedicationTimes  = "medication needs a name and at least one time of day"
	ErrAppointmentEmpty = "appointment needs a title and a date"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Fallbacks & Defaults
// -----------------------------------------------------------------------------

const (
	FallbackFeedingTitle     = "🍼 Next feeding"
	FallbackFeedingBody      = "Next feeding expected (every %s h)"
	FallbackDiaperTitle      = "🧷 Diaper check"
	FallbackDiaperBody       = "Next diaper change expected (every %s h)"
	FallbackNapTitle         = "😴 Nap time"
	FallbackNapBody          = "Time for the daily nap"
	FallbackBedtimeTitle     = "🌙 Bedtime"
	FallbackBedtimeBody      = "Time to start the bedtime routine"
	FallbackVaccineTitle     = "💉 %s vaccine due"
	FallbackVaccineBody      = "Scheduled for %s"
	FallbackMedicationTitle  = "💊 %s"
	FallbackMedicationBody   = "Give %s at %s"
	FallbackAppointmentTitle = "📅 %s"
	FallbackAppointmentBody  = "Starts in %s"
	FallbackTrayError        = "Baby Bloom: Sync Error"
	FallbackTrayDefault      = "Baby Bloom (%d today)"
	FallbackTrayLabel        = "Baby Bloom"
	FallbackDueNow           = "Due now"

	MsgSyncStarted      = "Synchronization started"
	MsgSyncDone         = "Synchronization finished"
	MsgSyncCleared      = "Feature disabled or empty, synced reminders cleared"
	MsgSyncReq          = "Sync requested"
	MsgWorkerStart      = "Background worker started"
	MsgWorkerStop       = "Worker stopping due to context cancellation"
	MsgUpdateSync       = "Updating resync interval"
	MsgAppStop          = "Application stopped gracefully"
	MsgCtxCancel        = "Context cancelled, shutting down"
	MsgAppStarting      = "Starting application"
	MsgServerListen     = "HTTP server listening"
	MsgServerStop       = "Shutting down HTTP server..."
	MsgCacheUpdated     = "Calendar cache updated"
	MsgLocaleSkip       = "Skipping non-locale file"
	MsgLocaleBadName    = "Skipping malformed locale filename"
	MsgLocaleLoaded     = "Locale loaded successfully"
	MsgTransMissing     = "Missing translation key"
	MsgLogWarning       = "Warning: %s at %s: %v\n"
	MsgScheduled        = "Reminder scheduled"
	MsgScheduleRejected = "Reminder rejected by scheduler"
	MsgCancelled        = "Reminder cancelled"
	MsgFired            = "Reminder fired"
	MsgAlreadyFired     = "Reminder already fired, skipping"
	MsgFireCancelled    = "Reminder no longer scheduled, skipping"
	MsgShown            = "Notification shown"
	MsgSuppressed       = "Notification suppressed"
	MsgMissed           = "Reminder missed while offline, dropping"
	MsgRearmed          = "Timer re-armed from the store"
	MsgCheckerStart     = "Reminder checker started"
	MsgCheckerStop      = "Reminder checker stopping"
	MsgPermission       = "Notification permission status"
	MsgSkippedCard      = "Skipping malformed vCard"
	MsgSkippedDate      = "Skipping invalid date format"
	MsgProfileImported  = "Baby profile imported"
	MsgProfileDownload  = "Downloading profile vCard"
	MsgProfileReceived  = "Profile vCard received"
	MsgDroppedReminder  = "Dropping reminder with malformed input"
	MsgEventLogged      = "Care event logged"
	MsgStorageOpened    = "Storage opened"
	MsgKeyringMiss      = "Bot token lookup in keyring failed"
	MsgMCPServe         = "Serving MCP tools on stdio"
	MsgToolCalled       = "MCP tool call"
	MsgSyncFailed       = "Resync failed"
	MsgSettingsOpen     = "Opening settings window"
	MsgSettingsFocus    = "Settings window already open, requesting focus"
	MsgSettingsSave     = "Saving preferences"
	MsgResyncDisabled   = "Periodic resync disabled via settings"
	MsgPortBusy         = "Could not start calendar server on port %s."

	TitleSyncError    = "Sync Error"
	TitleStartupError = "Startup Error"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyInterval  = "interval"
	LogKeyOld       = "old"
	LogKeyNew       = "new"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyManual    = "manual"
	LogKeyValue     = "value"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyDuration  = "duration_ms"
	LogKeyID        = "id"
	LogKeySource    = "source_type"
	LogKeyDueAt     = "due_at"
	LogKeyDelay     = "delay"
	LogKeyReason    = "reason"
	LogKeyCategory  = "category"
	LogKeyBackend   = "backend"
	LogKeyPath      = "path"
	LogKeyWindow    = "window"
	LogKeyChat      = "chat_id"
	LogKeyTrigger   = "trigger"
	LogKeySortCol   = "sort_col"
	LogKeySortAsc   = "sort_asc"
	LogKeyMimeType  = "content_type"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyBuilt   = "built"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI        = "ui"
	CompUISet     = "ui_settings"
	CompEngine    = "engine"
	CompServer    = "server"
	CompWorker    = "worker"
	CompMain      = "main"
	CompI18n      = "i18n"
	CompStorage   = "storage"
	CompStore     = "reminder_store"
	CompScheduler = "scheduler"
	CompNotifier  = "notifier"
	CompJournal   = "journal"
	CompProfile   = "profile"
	CompFeed      = "feed"
	CompTools     = "tools"
)

// Suppression reasons and fire triggers reported in logs and metrics.
const (
	ReasonPermission = "permission"
	ReasonActive     = "already_active"
	ReasonError      = "error"

	TriggerTimer = "timer"
	TriggerSweep = "sweep"
)
