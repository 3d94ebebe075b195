package services

import (
	"fmt"
	"regexp"
	"strings"
)

// FinishReason is the generator's completion signal. STOP means the output is
// complete, MAX_TOKENS means it was truncated; anything else aborts
// extraction outright.
type FinishReason string

const (
	FinishStop      FinishReason = "STOP"
	FinishMaxTokens FinishReason = "MAX_TOKENS"
)

var (
	doctypeRe = regexp.MustCompile(`(?is)<!DOCTYPE html>.*?</html>`)
	htmlTagRe = regexp.MustCompile(`(?is)<html.*?</html>`)

	// Fenced code blocks: a labelled html fence, or an unlabelled fence whose
	// body starts with a document.
	codeBlockRes = []*regexp.Regexp{
		regexp.MustCompile("(?s)```html\r?\n(.*?)\r?\n```"),
		regexp.MustCompile("(?s)```\n(<!DOCTYPE html.*?)\n```"),
		regexp.MustCompile("(?s)```\n(<html.*?</html>)\n```"),
	}
)

// ExtractHTML turns raw generated text into a complete HTML document. The
// strategies run in a fixed order and the first match wins; when everything
// fails it returns ErrGenerationIncomplete.
func ExtractHTML(content string, reason FinishReason) (string, error) {
	if reason != FinishStop && reason != FinishMaxTokens {
		return "", fmt.Errorf("%w: generation stopped unexpectedly: %s", ErrGenerationIncomplete, reason)
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty response", ErrGenerationIncomplete)
	}

	if match := doctypeRe.FindString(content); match != "" {
		return match, nil
	}

	if match := htmlTagRe.FindString(content); match != "" {
		return match, nil
	}

	for _, re := range codeBlockRes {
		if m := re.FindStringSubmatch(content); m != nil && m[1] != "" {
			return m[1], nil
		}
	}

	if strings.Contains(content, "<html") && strings.Contains(content, "</html>") {
		return strings.TrimSpace(content), nil
	}

	// Truncation repair. Best effort only: close a dangling script tag and the
	// document, never balance arbitrary nested tags.
	if reason == FinishMaxTokens && strings.Contains(content, "<html") {
		fixed := strings.TrimSpace(content)
		if strings.Contains(fixed, "<script") && !strings.Contains(fixed, "</script>") {
			fixed += "\n</script>"
		}
		if !strings.Contains(fixed, "</body>") {
			fixed += "\n</body>"
		}
		if !strings.Contains(fixed, "</html>") {
			fixed += "\n</html>"
		}
		return fixed, nil
	}

	return "", fmt.Errorf("%w: no HTML document found in generated content", ErrGenerationIncomplete)
}

// ErrorDocument renders a self-contained fallback page so downstream code
// always receives valid HTML even when generation fails.
func ErrorDocument(message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Generation Error</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
            margin: 0;
            background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%);
        }
        .error-container {
            background: white;
            padding: 30px;
            border-radius: 15px;
            text-align: center;
            box-shadow: 0 10px 30px rgba(0,0,0,0.2);
        }
        h2 {
            color: #e74c3c;
            margin-bottom: 10px;
        }
        p {
            color: #555;
            margin: 10px 0;
        }
        button {
            background: #667eea;
            color: white;
            border: none;
            padding: 10px 20px;
            border-radius: 5px;
            cursor: pointer;
            margin-top: 15px;
        }
        button:hover {
            background: #5a67d8;
        }
    </style>
</head>
<body>
    <div class="error-container">
        <h2>⚠️ Game Generation Error</h2>
        <p>%s</p>
        <p>Please try again with a different prompt.</p>
        <button onclick="location.reload()">Reload</button>
    </div>
</body>
</html>`, message)
}
