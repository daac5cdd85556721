package exclusion

// DefaultFolders lists directories skipped unless overridden.
var DefaultFolders = []string{
	"node_modules", "dist", "build", ".git", ".vscode", ".idea", "__pycache__",
	"venv", "env", ".venv", "target", ".cache", "logs", "coverage", ".nyc_output",
	".movement",
}

// DefaultFiles lists lock files and OS artifacts skipped unless overridden.
var DefaultFiles = []string{
	"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "composer.lock",
	"poetry.lock", ".DS_Store",
}

// DefaultExtensions lists media, archive, document and compiled artifact extensions.
var DefaultExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".webp", ".ico",
	".mp3", ".wav", ".ogg", ".flac", ".m4a", ".mp4", ".mov", ".avi", ".mkv",
	".webm", ".zip", ".tar", ".gz", ".rar", ".7z", ".pdf", ".docx", ".xlsx",
	".ppt", ".pptx", ".pyc", ".pyo", ".o", ".a", ".so", ".lib", ".dll",
	".exe", ".class", ".jar", ".log", ".sqlite", ".sqlite3", ".db",
}

// DefaultSet returns a Set built from the default lists.
func DefaultSet() Set {
	return NewSet(DefaultFolders, DefaultFiles, DefaultExtensions)
}
