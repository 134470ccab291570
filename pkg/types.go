package pkg

// TOCDocument is the YAML form of a disc's table of contents.
type TOCDocument struct {
	Image   string       `yaml:"image"`
	Kind    string       `yaml:"kind"`
	LeadOut string       `yaml:"lead_out"`
	Sectors int          `yaml:"sectors"`
	Tracks  []TrackEntry `yaml:"tracks"`
}

// TrackEntry describes one track. Times are absolute mm:ss:ff positions,
// gap lengths are in sectors.
type TrackEntry struct {
	Number  int    `yaml:"number"`
	Mode    string `yaml:"mode"`
	Start   string `yaml:"start"`
	Index01 string `yaml:"index01"`
	End     string `yaml:"end"`
	Pregap  int    `yaml:"pregap"`
	Postgap int    `yaml:"postgap"`
	Sectors int    `yaml:"sectors"`
}

// SectorFault is a sector whose stored EDC does not match its contents.
type SectorFault struct {
	Track    int
	Sector   int
	Expected uint32
	Actual   uint32
}

// VerifyReport summarises a verify pass.
type VerifyReport struct {
	Sectors int
	Tracks  int
	Faults  []SectorFault
}

// DiscIdentity is what the controller reports about a disc at boot.
type DiscIdentity struct {
	FirstTrack  int
	LastTrack   int
	LeadOut     string   // mm:ss from GetTD 0
	TrackStarts []string // mm:ss from GetTD n
	Licensed    bool
	Audio       bool
	Region      string
	ID          string // raw GetID answer
}
