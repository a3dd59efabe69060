package client

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bluesky-social/indigo/api/bsky"
)

var hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// CreateHashtagFacets creates tag facets for every hashtag in the text.
// Facet indices are byte offsets into the UTF-8 text.
func CreateHashtagFacets(text string) []*bsky.RichtextFacet {
	var facets []*bsky.RichtextFacet

	for _, match := range hashtagPattern.FindAllStringIndex(text, -1) {
		// skip things like "issue#12"
		if !hashtagBoundary(text[:match[0]]) {
			continue
		}

		tag := strings.TrimPrefix(text[match[0]:match[1]], "#")
		facets = append(facets, &bsky.RichtextFacet{
			Index: &bsky.RichtextFacet_ByteSlice{
				ByteStart: int64(match[0]),
				ByteEnd:   int64(match[1]),
			},
			Features: []*bsky.RichtextFacet_Features_Elem{
				{
					RichtextFacet_Tag: &bsky.RichtextFacet_Tag{
						Tag: tag,
					},
				},
			},
		})
	}

	return facets
}

func linkFacet(start, end int, uri string) *bsky.RichtextFacet {
	return &bsky.RichtextFacet{
		Index: &bsky.RichtextFacet_ByteSlice{
			ByteStart: int64(start),
			ByteEnd:   int64(end),
		},
		Features: []*bsky.RichtextFacet_Features_Elem{
			{
				RichtextFacet_Link: &bsky.RichtextFacet_Link{
					Uri: uri,
				},
			},
		},
	}
}

// hashtagBoundary reports whether a hashtag may start right after prefix:
// at the start of the text or after anything but a letter, digit or '_'.
func hashtagBoundary(prefix string) bool {
	r, size := utf8.DecodeLastRuneInString(prefix)
	if size == 0 {
		return true
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}
