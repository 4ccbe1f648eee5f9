package services

import (
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
)

// URLService ingests web sources as documents. YouTube links resolve to the
// video transcript; anything else is fetched and stripped to visible text.
type URLService struct {
	httpClient    *http.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
}

func NewURLService() *URLService {
	return &URLService{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{},
	}
}

// ExtractFromURL returns the extracted text and a display name for the
// document.
func (s *URLService) ExtractFromURL(rawURL string) (string, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", "", &ValidationError{Fields: map[string]string{"url": "Invalid URL"}}
	}

	if videoID := youtubeVideoID(parsed); videoID != "" {
		return s.extractYouTube(rawURL, videoID)
	}
	return s.extractWebPage(rawURL)
}

func youtubeVideoID(u *url.URL) string {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return id
		}
		if strings.HasPrefix(u.Path, "/shorts/") {
			return strings.TrimPrefix(u.Path, "/shorts/")
		}
	case "youtu.be":
		return strings.TrimPrefix(u.Path, "/")
	}
	return ""
}

func (s *URLService) extractYouTube(rawURL, videoID string) (string, string, error) {
	name := "YouTube " + videoID

	// Video metadata gives the document a readable name and a description
	// fallback when no captions exist.
	var description string
	if video, err := s.ytClient.GetVideo(rawURL); err == nil {
		if video.Title != "" {
			name = video.Title
		}
		description = video.Description
	}

	transcript, err := s.getTranscript(videoID)
	if err != nil {
		if description != "" {
			return normalizeExtractedText(description), name, nil
		}
		return "", "", &ValidationError{Fields: map[string]string{
			"url": fmt.Sprintf("no transcript available: %v", err),
		}}
	}
	return transcript, name, nil
}

func (s *URLService) getTranscript(videoID string) (string, error) {
	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	if err != nil {
		// Fallback: request any available language
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			return "", fmt.Errorf("no subtitles available: %w", err)
		}
	}

	if len(transcript.Entries) == 0 {
		return "", fmt.Errorf("subtitle track is empty")
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}

	cleaned := strings.TrimSpace(fullText.String())
	if cleaned == "" {
		return "", fmt.Errorf("subtitle text resolved to empty content")
	}

	return cleaned, nil
}

var (
	scriptPattern = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</\s*(script|style|noscript)\s*>`)
	titlePattern  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
)

func (s *URLService) extractWebPage(rawURL string) (string, string, error) {
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return "", "", &ValidationError{Fields: map[string]string{"url": "Invalid URL"}}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", &ValidationError{Fields: map[string]string{
			"url": fmt.Sprintf("failed to fetch URL: %v", err),
		}}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", &ValidationError{Fields: map[string]string{
			"url": fmt.Sprintf("URL returned status %d", resp.StatusCode),
		}}
	}

	const maxPageBytes = 10 * 1024 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", "", fmt.Errorf("failed to read URL body: %w", err)
	}

	page := string(body)

	name := rawURL
	if m := titlePattern.FindStringSubmatch(page); len(m) > 1 {
		if t := strings.TrimSpace(html.UnescapeString(m[1])); t != "" {
			name = t
		}
	}

	text := stripHTML(page)
	if text == "" {
		return "", "", &ValidationError{Fields: map[string]string{"url": "page has no extractable text"}}
	}
	return text, name, nil
}

func stripHTML(page string) string {
	page = scriptPattern.ReplaceAllString(page, " ")
	page = strings.ReplaceAll(page, "</p>", "\n")
	page = strings.ReplaceAll(page, "<br>", "\n")
	page = strings.ReplaceAll(page, "<br/>", "\n")
	page = strings.ReplaceAll(page, "<br />", "\n")
	page = xmlTagPattern.ReplaceAllString(page, " ")
	page = html.UnescapeString(page)
	return normalizeExtractedText(page)
}
