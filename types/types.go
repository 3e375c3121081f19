package types

// SizeProfile is a named target width for one tier of derivatives
type SizeProfile struct {
	Name  string `json:"name"`
	Width int    `json:"width"`
}

// FormatProfile is a named output codec with its quality level
type FormatProfile struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Ext     string `json:"ext"`
	Quality int    `json:"quality"`
}

// Dimensions holds pixel width and height
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DerivativeInfo describes one generated derivative file
type DerivativeInfo struct {
	SourcePath string `json:"source_path"`
	Path       string `json:"path"`
	Size       string `json:"size"`
	Format     string `json:"format"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Bytes      int64  `json:"bytes"`
}
