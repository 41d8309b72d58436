// Package youtube wraps the YouTube Data API calls the CLI exposes:
// subscriptions, channel search and channel info.
package youtube

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"
)

type Client struct {
	svc *youtubeapi.Service
}

// NewClient builds a YouTube client over a bearer access token obtained from
// the broker.
func NewClient(ctx context.Context, accessToken string) (*Client, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("no access token provided")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})

	svc, err := youtubeapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("could not create youtube service: %w", err)
	}

	return &Client{svc: svc}, nil
}

type Subscription struct {
	Id           string `json:"id"`
	ChannelId    string `json:"channel_id"`
	ChannelTitle string `json:"channel_title"`
	Description  string `json:"description"`
	PublishedAt  string `json:"published_at"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

type Channel struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	PublishedAt  string `json:"published_at"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

type ChannelInfo struct {
	Id              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	PublishedAt     string `json:"published_at"`
	SubscriberCount uint64 `json:"subscriber_count"`
	VideoCount      uint64 `json:"video_count"`
	ViewCount       uint64 `json:"view_count"`
	ThumbnailUrl    string `json:"thumbnail_url"`
}

// Subscriptions fetches the authenticated user's subscriptions, paging until
// maxResults entries have been collected or the listing runs out.
func (c *Client) Subscriptions(ctx context.Context, maxResults int64) ([]Subscription, error) {
	subs := []Subscription{}
	pageToken := ""

	for int64(len(subs)) < maxResults {
		pageSize := maxResults - int64(len(subs))
		if pageSize > 50 {
			pageSize = 50
		}

		call := c.svc.Subscriptions.List([]string{"snippet", "contentDetails"}).
			Mine(true).
			MaxResults(pageSize)

		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("could not list subscriptions: %w", err)
		}

		for _, item := range resp.Items {
			sub := Subscription{
				Id:           item.Id,
				ChannelTitle: item.Snippet.Title,
				Description:  item.Snippet.Description,
				PublishedAt:  item.Snippet.PublishedAt,
				ThumbnailUrl: defaultThumbnail(item.Snippet.Thumbnails),
			}
			if item.Snippet.ResourceId != nil {
				sub.ChannelId = item.Snippet.ResourceId.ChannelId
			}
			subs = append(subs, sub)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return subs, nil
}

// SearchChannels searches for channels matching the query.
func (c *Client) SearchChannels(ctx context.Context, query string, maxResults int64) ([]Channel, error) {
	resp, err := c.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("channel").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("could not search channels: %w", err)
	}

	channels := []Channel{}
	for _, item := range resp.Items {
		ch := Channel{
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			PublishedAt:  item.Snippet.PublishedAt,
			ThumbnailUrl: defaultThumbnail(item.Snippet.Thumbnails),
		}
		if item.Id != nil {
			ch.Id = item.Id.ChannelId
		}
		channels = append(channels, ch)
	}

	return channels, nil
}

// ChannelInfo fetches a single channel's snippet and statistics. It returns
// nil when the channel does not exist.
func (c *Client) ChannelInfo(ctx context.Context, channelId string) (*ChannelInfo, error) {
	resp, err := c.svc.Channels.List([]string{"snippet", "statistics"}).
		Id(channelId).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("could not get channel info: %w", err)
	}

	if len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	info := &ChannelInfo{
		Id:           item.Id,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		PublishedAt:  item.Snippet.PublishedAt,
		ThumbnailUrl: defaultThumbnail(item.Snippet.Thumbnails),
	}

	if item.Statistics != nil {
		info.SubscriberCount = item.Statistics.SubscriberCount
		info.VideoCount = item.Statistics.VideoCount
		info.ViewCount = item.Statistics.ViewCount
	}

	return info, nil
}

func defaultThumbnail(t *youtubeapi.ThumbnailDetails) string {
	if t == nil || t.Default == nil {
		return ""
	}
	return t.Default.Url
}
