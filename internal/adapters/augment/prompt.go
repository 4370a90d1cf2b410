package augment

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/okian/pacer/internal/domain/model"
)

// SystemPrompt establishes the analyst persona.
const SystemPrompt = "You are a professional sports performance analyst. Provide concise, actionable feedback."

// Request is the context sent along with the frame.
type Request struct {
	Sport    string
	Metric   float64
	Duration float64
	Frame    *model.Part // optional for the probe, required in the pipeline
}

// UserPrompt renders the text half of the user message.
func UserPrompt(r Request) string {
	return fmt.Sprintf(
		"Sport: %s. Athlete reported metric: %s. Duration: %ss. Analyze technique from the image and suggest 2-3 improvements in bullet points. End with an encouraging one-liner.",
		r.Sport, formatNumber(r.Metric), formatNumber(r.Duration),
	)
}

// formatNumber prints integral values without a fraction, like 85 not 85.000000.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// chatMessage content is either a string or a list of contentPart.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

func buildMessages(r Request) []chatMessage {
	user := []contentPart{{Type: "text", Text: UserPrompt(r)}}
	if r.Frame != nil && len(r.Frame.Data) > 0 {
		user = append(user, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: dataURL(r.Frame)},
		})
	}
	return []chatMessage{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: user},
	}
}

func dataURL(p *model.Part) string {
	mime := p.MIME
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}
