package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/abyan-ai/askme/pkg/models"
)

// hnFetchConcurrency bounds parallel Hacker News item requests.
const hnFetchConcurrency = 8

type wikiSummaryResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	Thumbnail   *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Wikipedia returns the lead summary of the article titled query.
func (c *Client) Wikipedia(ctx context.Context, query string) (models.WikiSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.WikiSummary{}, fmt.Errorf("%s: empty query", SourceWikipedia)
	}

	return cached(ctx, c, SourceWikipedia, []string{query}, func(ctx context.Context) (models.WikiSummary, error) {
		var r wikiSummaryResponse
		u := c.cfg.WikipediaURL + "/api/rest_v1/page/summary/" + url.PathEscape(query)
		if err := c.getJSON(ctx, SourceWikipedia, u, &r); err != nil {
			return models.WikiSummary{}, err
		}

		s := models.WikiSummary{
			Title:       r.Title,
			Description: r.Description,
			Extract:     r.Extract,
			URL:         r.ContentURLs.Desktop.Page,
		}
		if r.Thumbnail != nil {
			s.Thumbnail = r.Thumbnail.Source
		}
		return s, nil
	})
}

type githubUser struct {
	Name        string `json:"name"`
	Login       string `json:"login"`
	AvatarURL   string `json:"avatar_url"`
	Bio         string `json:"bio"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	PublicRepos int    `json:"public_repos"`
	HTMLURL     string `json:"html_url"`
}

type githubRepo struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	StargazersCount int    `json:"stargazers_count"`
	Language        string `json:"language"`
	HTMLURL         string `json:"html_url"`
}

// GitHub returns a user's public profile and their most recently updated repositories.
func (c *Client) GitHub(ctx context.Context, user string, limit int) (models.GitHubProfile, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return models.GitHubProfile{}, fmt.Errorf("%s: empty username", SourceGitHub)
	}
	limit = clampLimit(limit, 5)

	return cached(ctx, c, SourceGitHub, []string{strings.ToLower(user), strconv.Itoa(limit)}, func(ctx context.Context) (models.GitHubProfile, error) {
		base := c.cfg.GitHubURL + "/users/" + url.PathEscape(user)

		var u githubUser
		if err := c.getJSON(ctx, SourceGitHub, base, &u); err != nil {
			return models.GitHubProfile{}, err
		}

		var repos []githubRepo
		q := url.Values{"sort": {"updated"}, "per_page": {strconv.Itoa(limit)}}
		if err := c.getJSON(ctx, SourceGitHub, base+"/repos?"+q.Encode(), &repos); err != nil {
			return models.GitHubProfile{}, err
		}

		p := models.GitHubProfile{
			Name:        u.Name,
			Login:       u.Login,
			Avatar:      u.AvatarURL,
			Bio:         u.Bio,
			Followers:   u.Followers,
			Following:   u.Following,
			PublicRepos: u.PublicRepos,
			URL:         u.HTMLURL,
			Repos:       make([]models.GitHubRepo, 0, len(repos)),
		}
		if p.Name == "" {
			p.Name = user
		}
		for _, r := range repos {
			p.Repos = append(p.Repos, models.GitHubRepo{
				Name:        r.Name,
				Description: r.Description,
				Stars:       r.StargazersCount,
				Language:    r.Language,
				URL:         r.HTMLURL,
			})
		}
		return p, nil
	})
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string `json:"title"`
				Author      string `json:"author"`
				Score       int    `json:"score"`
				NumComments int    `json:"num_comments"`
				Permalink   string `json:"permalink"`
				Thumbnail   string `json:"thumbnail"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Reddit returns the hot posts of a subreddit.
func (c *Client) Reddit(ctx context.Context, subreddit string, limit int) (models.RedditListing, error) {
	subreddit = strings.TrimPrefix(strings.TrimSpace(subreddit), "r/")
	if subreddit == "" {
		return models.RedditListing{}, fmt.Errorf("%s: empty subreddit", SourceReddit)
	}
	limit = clampLimit(limit, 10)

	return cached(ctx, c, SourceReddit, []string{strings.ToLower(subreddit), strconv.Itoa(limit)}, func(ctx context.Context) (models.RedditListing, error) {
		var l redditListing
		u := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", c.cfg.RedditURL, url.PathEscape(subreddit), limit)
		if err := c.getJSON(ctx, SourceReddit, u, &l); err != nil {
			return models.RedditListing{}, err
		}

		out := models.RedditListing{
			Subreddit: subreddit,
			Posts:     make([]models.RedditPost, 0, len(l.Data.Children)),
		}
		for _, child := range l.Data.Children {
			d := child.Data
			post := models.RedditPost{
				Title:    d.Title,
				Author:   d.Author,
				Score:    d.Score,
				Comments: d.NumComments,
				URL:      "https://reddit.com" + d.Permalink,
			}
			// Reddit uses placeholders such as "self" and "default" for posts without images.
			if strings.HasPrefix(d.Thumbnail, "http://") || strings.HasPrefix(d.Thumbnail, "https://") {
				post.Thumbnail = d.Thumbnail
			}
			out.Posts = append(out.Posts, post)
		}
		return out, nil
	})
}

type hnItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	By          string `json:"by"`
	Score       int    `json:"score"`
	URL         string `json:"url"`
	Descendants int    `json:"descendants"`
}

// HackerNews returns the current top stories in front-page order.
func (c *Client) HackerNews(ctx context.Context, limit int) (models.HNListing, error) {
	limit = clampLimit(limit, 10)

	return cached(ctx, c, SourceHackerNews, []string{strconv.Itoa(limit)}, func(ctx context.Context) (models.HNListing, error) {
		var ids []int64
		if err := c.getJSON(ctx, SourceHackerNews, c.cfg.HackerNewsURL+"/v0/topstories.json", &ids); err != nil {
			return models.HNListing{}, err
		}
		if len(ids) > limit {
			ids = ids[:limit]
		}

		items := make([]*hnItem, len(ids))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(hnFetchConcurrency)
		for i, id := range ids {
			g.Go(func() error {
				u := fmt.Sprintf("%s/v0/item/%d.json", c.cfg.HackerNewsURL, id)
				return c.getJSON(gctx, SourceHackerNews, u, &items[i])
			})
		}
		if err := g.Wait(); err != nil {
			return models.HNListing{}, err
		}

		out := models.HNListing{Stories: make([]models.HNStory, 0, len(items))}
		for i, it := range items {
			// Deleted items come back as null.
			if it == nil {
				continue
			}
			story := models.HNStory{
				Title:    it.Title,
				By:       it.By,
				Score:    it.Score,
				URL:      it.URL,
				Comments: it.Descendants,
			}
			if story.URL == "" {
				story.URL = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", ids[i])
			}
			out.Stories = append(out.Stories, story)
		}
		return out, nil
	})
}
