package config

const (
	defaultStateDir         = "~/.local/share/mediadupe"
	defaultLogDir           = "~/.local/share/mediadupe/logs"
	defaultScanMode         = ModeFolders
	defaultQuickHashWindow  = 1 << 20
	defaultQuickHashWindows = 3
	maxQuickHashWindows     = 16
	defaultMaxHandles       = 2
	defaultOpDelayMS        = 20
	defaultChunkDelayMS     = 2
	defaultChunkSize        = 1 << 20
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Discovery modes accepted by scan.mode.
const (
	ModeFolders = "folders"
	ModeDrives  = "drives"
)

// DefaultMediaExtensions lists the extensions inventoried when none are configured.
var DefaultMediaExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff",
	".mp4", ".mov", ".avi", ".mkv", ".heic",
}

// DefaultSkipPatterns lists Windows system folders that are never worth
// walking when scanning whole drives.
var DefaultSkipPatterns = []string{
	`C:\Windows`,
	`C:\Program Files`,
	`C:\Program Files (x86)`,
	`C:\ProgramData`,
	`C:\$Recycle.Bin`,
	`C:\System Volume Information`,
	`C:\Recovery`,
	`C:\PerfLogs`,
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Scan: Scan{
			Mode:         defaultScanMode,
			Extensions:   append([]string(nil), DefaultMediaExtensions...),
			SkipPatterns: append([]string(nil), DefaultSkipPatterns...),
		},
		Detect: Detect{
			QuickHashWindow:  defaultQuickHashWindow,
			QuickHashWindows: defaultQuickHashWindows,
		},
		Throttle: Throttle{
			MaxHandles:   defaultMaxHandles,
			OpDelayMS:    defaultOpDelayMS,
			ChunkDelayMS: defaultChunkDelayMS,
			ChunkSize:    defaultChunkSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
