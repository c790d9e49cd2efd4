// Package news defines the standardized article record shared by the
// fetch adapters, the dedup engine and the WhatsApp sender.
package news

// Source tags identifying which adapter produced an article.
const (
	SourceNewsAPI    = "NewsAPI"
	SourceGoogleNews = "GoogleNews"
	SourceChatGPT    = "ChatGPT"
)

// Article is a single news item in the standardized shape every adapter
// maps its upstream fields onto. PublishedAt stays the raw upstream string;
// it is compared lexically and never parsed for ordering.
type Article struct {
	Title       string
	Description string
	URL         string
	Source      string // human-readable publisher name
	FetchedFrom string // one of the Source* tags
	PublishedAt string
	Content     string
	// RelevanceScore is set only by the ChatGPT adapter.
	RelevanceScore float64
}

// sourcePriority is the trust ranking used to decide which copy of a story
// survives deduplication. Lower wins.
var sourcePriority = map[string]int{
	SourceNewsAPI:    1,
	SourceGoogleNews: 2,
	SourceChatGPT:    3,
}

const defaultPriority = 4

// SourcePriority returns the trust rank for a fetched-from tag.
// Unknown tags rank after every known source.
func SourcePriority(fetchedFrom string) int {
	if p, ok := sourcePriority[fetchedFrom]; ok {
		return p
	}
	return defaultPriority
}
