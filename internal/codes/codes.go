// Package codes is the single source of truth for the backend's internal
// integer codes and their symbolic names. The mappings were derived from
// observed traffic; unknown codes decode to "unknown" rather than failing.
package codes

import (
	"fmt"
	"sort"
	"strings"
)

// Mapper is a bidirectional name<->code table with case-insensitive name
// lookup and error messages that enumerate the valid options.
type Mapper struct {
	what       string
	nameToCode map[string]int
	codeToName map[int]string
	names      []string
}

// NewMapper builds a Mapper. what names the option set in error messages.
func NewMapper(what string, mapping map[string]int) *Mapper {
	m := &Mapper{
		what:       what,
		nameToCode: make(map[string]int, len(mapping)),
		codeToName: make(map[int]string, len(mapping)),
	}
	for name, code := range mapping {
		m.nameToCode[strings.ToLower(name)] = code
		m.codeToName[code] = name
		m.names = append(m.names, name)
	}
	sort.Strings(m.names)
	return m
}

// Code resolves a symbolic name to its backend code.
func (m *Mapper) Code(name string) (int, error) {
	code, ok := m.nameToCode[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown %s %q; valid options: %s", m.what, name, m.Options())
	}
	return code, nil
}

// Name resolves a backend code to its symbolic name, "unknown" when the code
// is not in the table.
func (m *Mapper) Name(code int) string {
	name, ok := m.codeToName[code]
	if !ok {
		return "unknown"
	}
	return name
}

// Names returns the valid option names, sorted.
func (m *Mapper) Names() []string { return m.names }

// Options returns the valid option names as a comma-separated list.
func (m *Mapper) Options() string { return strings.Join(m.names, ", ") }

// Notebook ownership (metadata position 0).
const (
	OwnershipMine   = 1
	OwnershipShared = 2
)

// Chat configuration.
const (
	ChatGoalDefault       = 1
	ChatGoalCustom        = 2
	ChatGoalLearningGuide = 3

	ChatResponseDefault = 1
	ChatResponseLonger  = 4
	ChatResponseShorter = 5
)

var ChatGoals = NewMapper("chat goal", map[string]int{
	"default":        ChatGoalDefault,
	"custom":         ChatGoalCustom,
	"learning_guide": ChatGoalLearningGuide,
})

var ChatResponseLengths = NewMapper("response length", map[string]int{
	"default": ChatResponseDefault,
	"longer":  ChatResponseLonger,
	"shorter": ChatResponseShorter,
})

// Research source discovery.
const (
	ResearchSourceWeb   = 1
	ResearchSourceDrive = 2

	ResearchModeFast = 1
	ResearchModeDeep = 5

	ResultTypeWeb          = 1
	ResultTypeGoogleDoc    = 2
	ResultTypeGoogleSlides = 3
	ResultTypeDeepReport   = 5
	ResultTypeGoogleSheets = 8
)

var ResearchSources = NewMapper("research source", map[string]int{
	"web":   ResearchSourceWeb,
	"drive": ResearchSourceDrive,
})

var ResearchModes = NewMapper("research mode", map[string]int{
	"fast": ResearchModeFast,
	"deep": ResearchModeDeep,
})

var ResultTypes = NewMapper("result type", map[string]int{
	"web":           ResultTypeWeb,
	"google_doc":    ResultTypeGoogleDoc,
	"google_slides": ResultTypeGoogleSlides,
	"deep_report":   ResultTypeDeepReport,
	"google_sheets": ResultTypeGoogleSheets,
})

// Source types (the Google Workspace document type, not the source origin;
// metadata position 4).
const (
	SourceTypeGoogleDocs    = 1
	SourceTypeGoogleOther   = 2
	SourceTypePDF           = 3
	SourceTypePastedText    = 4
	SourceTypeWebPage       = 5
	SourceTypeGeneratedText = 8
	SourceTypeYouTube       = 9
	SourceTypeUploadedFile  = 11
	SourceTypeImage         = 13
	SourceTypeWordDoc       = 14
)

var SourceTypes = NewMapper("source type", map[string]int{
	"google_docs":          SourceTypeGoogleDocs,
	"google_slides_sheets": SourceTypeGoogleOther,
	"pdf":                  SourceTypePDF,
	"pasted_text":          SourceTypePastedText,
	"web_page":             SourceTypeWebPage,
	"generated_text":       SourceTypeGeneratedText,
	"youtube":              SourceTypeYouTube,
	"uploaded_file":        SourceTypeUploadedFile,
	"image":                SourceTypeImage,
	"word_doc":             SourceTypeWordDoc,
})

// Studio artifact types.
const (
	StudioTypeAudio  = 1
	StudioTypeReport = 2
	StudioTypeVideo  = 3
)

var StudioTypes = NewMapper("studio type", map[string]int{
	"audio":  StudioTypeAudio,
	"report": StudioTypeReport,
	"video":  StudioTypeVideo,
})

// Audio Overview.
const (
	AudioFormatDeepDive = 1
	AudioFormatBrief    = 2
	AudioFormatCritique = 3
	AudioFormatDebate   = 4

	AudioLengthShort   = 1
	AudioLengthDefault = 2
	AudioLengthLong    = 3
)

var AudioFormats = NewMapper("audio format", map[string]int{
	"deep_dive": AudioFormatDeepDive,
	"brief":     AudioFormatBrief,
	"critique":  AudioFormatCritique,
	"debate":    AudioFormatDebate,
})

var AudioLengths = NewMapper("audio length", map[string]int{
	"short":   AudioLengthShort,
	"default": AudioLengthDefault,
	"long":    AudioLengthLong,
})

// Video Overview.
const (
	VideoFormatExplainer = 1
	VideoFormatBrief     = 2

	VideoStyleAutoSelect = 1
	VideoStyleCustom     = 2
	VideoStyleClassic    = 3
	VideoStyleWhiteboard = 4
	VideoStyleKawaii     = 5
	VideoStyleAnime      = 6
	VideoStyleWatercolor = 7
	VideoStyleRetroPrint = 8
	VideoStyleHeritage   = 9
	VideoStylePaperCraft = 10
)

var VideoFormats = NewMapper("video format", map[string]int{
	"explainer": VideoFormatExplainer,
	"brief":     VideoFormatBrief,
})

var VideoStyles = NewMapper("video style", map[string]int{
	"auto_select": VideoStyleAutoSelect,
	"custom":      VideoStyleCustom,
	"classic":     VideoStyleClassic,
	"whiteboard":  VideoStyleWhiteboard,
	"kawaii":      VideoStyleKawaii,
	"anime":       VideoStyleAnime,
	"watercolor":  VideoStyleWatercolor,
	"retro_print": VideoStyleRetroPrint,
	"heritage":    VideoStyleHeritage,
	"paper_craft": VideoStylePaperCraft,
})

// Studio artifact status codes observed in poll responses.
const (
	ArtifactStatusInProgress = 1
	ArtifactStatusCompleted  = 3
)

// Research task status codes. 6 is "imported", also a terminal state.
const (
	ResearchStatusInProgress = 1
	ResearchStatusCompleted  = 2
	ResearchStatusImported   = 6
)
