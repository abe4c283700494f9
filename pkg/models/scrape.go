package models

// ScrapeResult wraps a scraper payload for the UI.
type ScrapeResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WikiSummary is the lead summary of a Wikipedia article.
type WikiSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	URL         string `json:"url"`
}

// GitHubRepo is a repository listed on a GitHub profile.
type GitHubRepo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Stars       int    `json:"stars"`
	Language    string `json:"language"`
	URL         string `json:"url"`
}

// GitHubProfile is a public GitHub user with recently updated repositories.
type GitHubProfile struct {
	Name        string       `json:"name"`
	Login       string       `json:"login"`
	Avatar      string       `json:"avatar"`
	Bio         string       `json:"bio"`
	Followers   int          `json:"followers"`
	Following   int          `json:"following"`
	PublicRepos int          `json:"public_repos"`
	URL         string       `json:"url"`
	Repos       []GitHubRepo `json:"repos"`
}

// RedditPost is one post from a subreddit listing.
type RedditPost struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Score     int    `json:"score"`
	Comments  int    `json:"comments"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// RedditListing is the hot listing of a subreddit.
type RedditListing struct {
	Subreddit string       `json:"subreddit"`
	Posts     []RedditPost `json:"posts"`
}

// HNStory is a Hacker News front-page story.
type HNStory struct {
	Title    string `json:"title"`
	By       string `json:"by"`
	Score    int    `json:"score"`
	URL      string `json:"url"`
	Comments int    `json:"comments"`
}

// HNListing is the current top stories on Hacker News.
type HNListing struct {
	Stories []HNStory `json:"stories"`
}
