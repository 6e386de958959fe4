package bot

// Set at build time with -ldflags "-X github.com/raine/places-collector/internal/bot.Version=...".
var (
	Version   = "dev"
	BuildTime = "unknown"
)
