package config

// Config holds all application configuration, shared by the queue
// server and the sync helper. Each process reads the sections it needs;
// validation is per-section so the helper does not need a database URL
// and the server does not need an Anki endpoint.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Anki     AnkiConfig     `mapstructure:"anki"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

// ServerConfig contains the queue server's bind settings. Port is the
// preferred port; when it is taken the server walks up through
// PortAttempts-1 further candidates before giving up.
type ServerConfig struct {
	Host         string `mapstructure:"host"          validate:"required"`
	Port         int    `mapstructure:"port"          validate:"required,gt=0,lt=65536"`
	PortAttempts int    `mapstructure:"port_attempts" validate:"required,gte=1,lte=100"`
}

// LogConfig contains logging settings for either process. File is
// optional; when set, output is also written to a rotated file.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	File  string `mapstructure:"file"`
}

// DatabaseConfig contains the card queue store's connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains the shared-secret settings. Exactly one of Secret
// (the cleartext secret) or SecretHash (its bcrypt hash, so the secret
// never rests on the server's disk) must be set on the server; the sync
// helper always uses Secret.
type AuthConfig struct {
	Secret     string `mapstructure:"secret"`
	SecretHash string `mapstructure:"secret_hash"`
}

// SyncConfig contains the sync helper's settings. ServerURL is the base
// URL whose port seeds endpoint probing; StatePath is the helper's local
// sqlite file holding held outcomes and the last-known-good endpoint.
type SyncConfig struct {
	ServerURL       string `mapstructure:"server_url"       validate:"required,url"`
	PortAttempts    int    `mapstructure:"port_attempts"    validate:"required,gte=1,lte=100"`
	IntervalSeconds int    `mapstructure:"interval_seconds" validate:"required,gte=1"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"  validate:"required,gte=1"`
	StatePath       string `mapstructure:"state_path"       validate:"required"`
}

// AnkiConfig describes the local AnkiConnect endpoint and the note shape
// cards are delivered into.
type AnkiConfig struct {
	ConnectURL    string `mapstructure:"connect_url"    validate:"required,url"`
	Deck          string `mapstructure:"deck"           validate:"required"`
	NoteType      string `mapstructure:"note_type"      validate:"required"`
	FrontField    string `mapstructure:"front_field"    validate:"required"`
	BackField     string `mapstructure:"back_field"     validate:"required"`
	SentenceField string `mapstructure:"sentence_field"`
}

// LLMConfig contains translation-collaborator settings. The draft
// endpoint is disabled when GeminiAPIKey is empty.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	Model        string `mapstructure:"model"`
}
