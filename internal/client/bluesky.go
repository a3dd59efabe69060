package client

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/client"
	"github.com/bluesky-social/indigo/lex/util"
	"github.com/sirupsen/logrus"
)

// maxPostLength is the Bluesky post limit in characters.
const maxPostLength = 300

const photoLinkText = "View photo"

// BlueskyClient mirrors published captions to a Bluesky account
type BlueskyClient struct {
	client   *client.APIClient
	host     string
	handle   string
	password string
	log      logrus.FieldLogger
}

func New(host, handle, password string, log logrus.FieldLogger) *BlueskyClient {
	return &BlueskyClient{
		host:     host,
		handle:   handle,
		password: password,
		log:      log,
	}
}

func (c *BlueskyClient) Authenticate(ctx context.Context) error {
	authClient, err := client.LoginWithPasswordHost(ctx, c.host, c.handle, c.password, "", nil)
	if err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	c.client = authClient
	return nil
}

// PostCaption posts the caption with a link and card pointing at the image.
// The session is created on first use.
func (c *BlueskyClient) PostCaption(ctx context.Context, caption, imageURL string) error {
	if c.client == nil {
		if err := c.Authenticate(ctx); err != nil {
			return err
		}
	}

	text, facets := ComposeMirrorPost(caption, imageURL)
	embed := &bsky.FeedPost_Embed{
		EmbedExternal: &bsky.EmbedExternal{
			External: &bsky.EmbedExternal_External{
				Uri:         imageURL,
				Title:       "Today's photo",
				Description: truncateText(caption, 200),
			},
		},
	}

	return c.PostWithFacets(ctx, text, facets, embed)
}

func (c *BlueskyClient) PostWithFacets(ctx context.Context, text string, facets []*bsky.RichtextFacet, embed *bsky.FeedPost_Embed) error {
	if c.client == nil {
		return fmt.Errorf("client not authenticated")
	}

	postRecord := &bsky.FeedPost{
		Text:      text,
		CreatedAt: time.Now().Format(time.RFC3339),
		Embed:     embed,
	}
	if facets != nil {
		postRecord.Facets = facets
	}

	resp, err := atproto.RepoCreateRecord(ctx, c.client, &atproto.RepoCreateRecord_Input{
		Repo:       c.handle,
		Collection: "app.bsky.feed.post",
		Record:     &util.LexiconTypeDecoder{Val: postRecord},
	})
	if err != nil {
		return fmt.Errorf("failed to post to Bluesky: %w", err)
	}

	c.log.WithField("uri", resp.Uri).Infof("Mirrored caption to Bluesky: %s", truncateText(text, 50))
	return nil
}

// ComposeMirrorPost builds the post text and its facets: hashtags become tag
// facets and a trailing "View photo" links to the image.
func ComposeMirrorPost(caption, imageURL string) (string, []*bsky.RichtextFacet) {
	suffix := "\n\n" + photoLinkText
	body := truncateText(caption, maxPostLength-utf8.RuneCountInString(suffix))
	text := body + suffix

	facets := CreateHashtagFacets(body)
	facets = append(facets, linkFacet(len(body)+2, len(text), imageURL))
	return text, facets
}

// truncateText shortens text to at most maxLength characters, marking the
// cut with an ellipsis.
func truncateText(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLength-1]) + "…"
}
