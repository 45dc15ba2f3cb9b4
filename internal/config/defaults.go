package config

const (
	defaultOutputDir         = "public"
	defaultProjectsDir       = "static-projects"
	defaultPreviewsDir       = "static-previews"
	defaultEnvFile           = ".env.local"
	defaultThumbnailLayout   = LayoutFlat
	defaultImageWorkers      = 4
	defaultPersonColors      = ColorsNone
	defaultAssetPlaceholder  = "static-previews/placeholder-asset.png"
	defaultPersonPlaceholder = "static-previews/placeholder-user.png"
	defaultEditSourceType    = "video/mp4"
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Thumbnail layouts.
const (
	LayoutFlat    = "flat"
	LayoutSharded = "sharded"
)

// Person color assignment modes.
const (
	ColorsNone       = "none"
	ColorsSequential = "sequential"
	ColorsStable     = "stable"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Kitsu: Kitsu{
			EnvFile: defaultEnvFile,
		},
		Paths: Paths{
			OutputDir:   defaultOutputDir,
			ProjectsDir: defaultProjectsDir,
			PreviewsDir: defaultPreviewsDir,
			StateDir:    defaultStateDir(),
		},
		Export: Export{
			ThumbnailLayout:   defaultThumbnailLayout,
			ImageWorkers:      defaultImageWorkers,
			PersonColors:      defaultPersonColors,
			AssetPlaceholder:  defaultAssetPlaceholder,
			PersonPlaceholder: defaultPersonPlaceholder,
			EditSourceType:    defaultEditSourceType,
			Lookups:           true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			OnSuccess:      true,
			OnFailure:      true,
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
