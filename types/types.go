package types

// BlockType identifies the kind of a content block inside an article.
type BlockType string

const (
	BlockH1       BlockType = "H1"
	BlockH2       BlockType = "H2"
	BlockH3       BlockType = "H3"
	BlockH4       BlockType = "H4"
	BlockP        BlockType = "P"
	BlockQuote    BlockType = "QUOTE"
	BlockListItem BlockType = "LIST_ITEM"
	BlockImage    BlockType = "IMG"
)

// IsHeading reports whether the block is a section heading.
func (t BlockType) IsHeading() bool {
	switch t {
	case BlockH1, BlockH2, BlockH3, BlockH4:
		return true
	}
	return false
}

// Block is one unit of article content, in document reading order.
type Block struct {
	Type BlockType `json:"type"`
	Text string    `json:"text"`
}

// Image is a referenced article image.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Article is the normalized article document produced by the extractor
// or loaded from a JSON file. Content ordering is reading order and must
// be preserved by every downstream stage.
type Article struct {
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	PublishedDate string   `json:"published_date"`
	Content       []Block  `json:"content"`
	Summary       string   `json:"summary"`
	Images        []Image  `json:"images"`
	Tags          []string `json:"tags"`
}

// Segment is one narration-sized slice of the script.
type Segment struct {
	Index        int     `json:"index"`
	Text         string  `json:"text"`
	SourceBlock  int     `json:"source_block"`
	EstimatedSec float64 `json:"estimated_sec"`
	StyleHint    string  `json:"style_hint"` // heading | body | quote | title | outro
}

// Script is the ordered narration plan derived from one Article.
type Script struct {
	Title    string    `json:"title"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// TotalEstimatedSec is the sum of per-segment duration estimates.
func (s *Script) TotalEstimatedSec() float64 {
	var total float64
	for _, seg := range s.Segments {
		total += seg.EstimatedSec
	}
	return total
}

// SegmentOffset is one segment's span within the narration track.
type SegmentOffset struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Span is the offset's length in seconds.
func (o SegmentOffset) Span() float64 { return o.End - o.Start }

// AudioTrack is the synthesized narration for one script.
// Offsets has exactly one entry per script segment, monotonically
// non-decreasing and contiguous.
type AudioTrack struct {
	File        string          `json:"file"`
	DurationSec float64         `json:"duration_sec"`
	Offsets     []SegmentOffset `json:"offsets"`
}

// VideoTrack is the silent visual track: per-segment clip files in
// segment order, plus the concatenated file once assembly created it.
type VideoTrack struct {
	File             string    `json:"file,omitempty"`
	SegmentFiles     []string  `json:"segment_files"`
	SegmentDurations []float64 `json:"segment_durations"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
}

// ArtifactKind tells what the pipeline ultimately produced.
type ArtifactKind string

const (
	// ArtifactMerged is a single muxed video+audio file.
	ArtifactMerged ArtifactKind = "merged"
	// ArtifactBundle is the degraded output: separate video and audio
	// files plus a manual merge instruction file.
	ArtifactBundle ArtifactKind = "bundle"
)

// FinalArtifact is the terminal pipeline output. A bundle that could
// not be concatenated carries the ordered clips in VideoSegments
// instead of a single VideoFile.
type FinalArtifact struct {
	Kind             ArtifactKind `json:"kind"`
	VideoFile        string       `json:"video_file,omitempty"`
	VideoSegments    []string     `json:"video_segments,omitempty"`
	AudioFile        string       `json:"audio_file,omitempty"`
	InstructionsFile string       `json:"instructions_file,omitempty"`
}

// VideoMetadata holds platform-facing metadata for an optional upload.
type VideoMetadata struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	CategoryID      string   `json:"category_id"`
	Visibility      string   `json:"visibility"`
	DefaultLanguage string   `json:"default_language"`
}

// RunState tracks one pipeline run end to end; persisted as JSON in the
// output directory so a failed run can be inspected.
type RunState struct {
	RunID       string         `json:"run_id"`
	StartedAt   string         `json:"started_at"`
	CompletedAt string         `json:"completed_at"`
	Source      string         `json:"source"`
	Language    string         `json:"language"`
	ArticleFile string         `json:"article_file,omitempty"`
	ScriptFile  string         `json:"script_file,omitempty"`
	AudioFile   string         `json:"audio_file,omitempty"`
	VideoFile   string         `json:"video_file,omitempty"`
	Artifact    *FinalArtifact `json:"artifact,omitempty"`
	Error       string         `json:"error,omitempty"`
}
