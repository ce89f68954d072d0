package config

import "flag"

// Flags holds command-line values that override the config file.
type Flags struct {
	ConfigPath string
	Input      string
	Output     string
	Extracted  string
	DataRoot   string

	PNG            bool
	NoCompressed   bool
	OnlyPNG        bool
	SaveRenderings bool
	SaveVanilla    bool
	NoFilters      bool
	Steep          bool
	Debug          bool

	Workers int
	LogFile string
}

// Register binds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&f.Input, "i", "", "Directory scanned for .cfg files, or a single .cfg (default: current directory)")
	fs.StringVar(&f.Output, "o", "", "Output directory (default: <input>/"+OutputDirName+")")
	fs.StringVar(&f.Extracted, "d", "", "Directory with extracted game data used as texture fallback")
	fs.StringVar(&f.DataRoot, "data-root", "", "Data root override (default: derived from each config path)")
	fs.BoolVar(&f.PNG, "png", false, "Also save level 0 as PNG")
	fs.BoolVar(&f.NoCompressed, "no-dds", false, "Do not save the compressed mip chain")
	fs.BoolVar(&f.OnlyPNG, "only-png", false, "Save only PNG output")
	fs.BoolVar(&f.SaveRenderings, "save-renderings", false, "Save isometric debug renderings")
	fs.BoolVar(&f.SaveVanilla, "save-vanilla", false, "Also save textures found only in the extracted data")
	fs.BoolVar(&f.NoFilters, "no-ff", false, "Disable file name filters")
	fs.BoolVar(&f.Steep, "steep", false, "Let steep surfaces win where UV charts overlap")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.IntVar(&f.Workers, "workers", 0, "Number of assets processed in parallel (default: 1)")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file (rotated)")
}
