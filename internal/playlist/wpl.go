package playlist

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// wpl is the Windows Media Player playlist format.
type wpl struct {
	XMLName xml.Name `xml:"smil"`
	Head    struct {
		Title string `xml:"title"`
	} `xml:"head"`
	Body struct {
		Seq struct {
			Media []struct {
				Src string `xml:"src,attr"`
			} `xml:"media"`
		} `xml:"seq"`
	} `xml:"body"`
}

func parseWPL(data []byte) (string, []string, error) {
	var doc wpl
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("invalid WPL: %w", err)
	}

	entries := make([]string, 0, len(doc.Body.Seq.Media))
	for _, media := range doc.Body.Seq.Media {
		if src := strings.TrimSpace(media.Src); src != "" {
			entries = append(entries, src)
		}
	}
	return strings.TrimSpace(doc.Head.Title), entries, nil
}
